package arxiv

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

// arxivIDRegex extracts the arXiv ID from the full URL.
// Matches patterns like "http://arxiv.org/abs/2301.12345v1" or "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// feedMarker is the markup a well-formed Atom response must contain.
var feedMarker = []byte("<feed")

// ValidateFeed reports whether body looks like an Atom feed. Relays often
// answer 200 with an HTML error page, so HTTP success alone is not enough.
func ValidateFeed(body []byte) error {
	if !bytes.Contains(body, feedMarker) {
		return domain.NewMalformedResponseError(sourceName, "missing Atom feed element")
	}
	return nil
}

// ParseFeed decodes an Atom feed into raw records in feed order.
// Missing sub-fields become empty strings; entries without any identifier
// and arXiv error entries are skipped.
func ParseFeed(body []byte) ([]domain.RawRecord, error) {
	var feed Feed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, domain.NewMalformedResponseError(sourceName, err.Error())
	}

	records := make([]domain.RawRecord, 0, len(feed.Entries))
	for i := range feed.Entries {
		if rec, ok := entryToRecord(&feed.Entries[i]); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func entryToRecord(entry *Entry) (domain.RawRecord, bool) {
	rawID := strings.TrimSpace(entry.ID)
	if rawID == "" || strings.Contains(rawID, "/api/errors") {
		return domain.RawRecord{}, false
	}

	id := extractArXivID(rawID)
	if id == "" {
		id = rawID
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := normalizeWhitespace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	return domain.RawRecord{
		ID:        id,
		Title:     normalizeWhitespace(entry.Title),
		Abstract:  normalizeWhitespace(entry.Summary),
		Published: strings.TrimSpace(entry.Published),
		Authors:   authors,
	}, true
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// normalizeWhitespace trims and collapses runs of whitespace, including the
// newlines arXiv puts inside titles and abstracts.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
