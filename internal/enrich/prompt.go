package enrich

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

// MaxTags is the number of tags kept per annotation.
const MaxTags = 3

const systemPrompt = `You are a research assistant annotating arXiv papers for a reader who skims paper cards.
For every paper in the input, produce one object with these fields:
- "id": the paper id, copied exactly from the input
- "abstract_zh": a faithful Simplified Chinese translation of the abstract
- "tldr": one English sentence summarizing the contribution
- "tags": exactly 3 short topic tags
Respond with a JSON array of these objects and nothing else. Do not wrap it in markdown.`

// promptPaper is the per-paper payload embedded in the prompt.
type promptPaper struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// BuildPrompt returns the system and user messages for a batch of records.
// focus, when set, steers tag selection.
func BuildPrompt(records []domain.RawRecord, focus string) (string, string, error) {
	payload := make([]promptPaper, len(records))
	for i, r := range records {
		payload[i] = promptPaper{ID: r.ID, Title: r.Title, Summary: r.Abstract}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", "", fmt.Errorf("encoding prompt payload: %w", err)
	}

	user := "Papers:\n" + buf.String()
	if focus != "" {
		user = fmt.Sprintf("Reader focus: %s. Prefer tags that relate to it.\n\n%s", focus, user)
	}
	return systemPrompt, user, nil
}
