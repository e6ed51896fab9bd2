package enrich

import (
	"strings"
	"unicode/utf8"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

const (
	// PlaceholderAbstractZH marks a record the model did not annotate.
	PlaceholderAbstractZH = "（暂无中文摘要，请参阅英文摘要）"

	// PlaceholderTag is the single tag given to unannotated records.
	PlaceholderTag = "Paper"

	// UnavailableAbstractZH is shown when the enrichment service failed.
	UnavailableAbstractZH = "（AI 服务暂不可用，请参阅英文摘要）"

	// UnavailableTLDR is the summary shown when the enrichment service failed.
	UnavailableTLDR = "AI summary unavailable"

	// UnavailableTag is the tag shown when the enrichment service failed.
	UnavailableTag = "AI Agent"

	// maxFallbackTLDR bounds the abstract-derived summary in runes.
	maxFallbackTLDR = 200
)

// MissingAnnotation is used for a record the model skipped or garbled.
// The summary is derived from the English abstract.
func MissingAnnotation(raw domain.RawRecord) domain.Annotation {
	tldr := firstSentence(raw.Abstract, maxFallbackTLDR)
	if tldr == "" {
		tldr = raw.Title
	}
	return domain.Annotation{
		AbstractZH: PlaceholderAbstractZH,
		TLDR:       tldr,
		Tags:       []string{PlaceholderTag},
	}
}

// ServiceFailureAnnotation is used for every record when the call failed.
func ServiceFailureAnnotation() domain.Annotation {
	return domain.Annotation{
		AbstractZH: UnavailableAbstractZH,
		TLDR:       UnavailableTLDR,
		Tags:       []string{UnavailableTag},
	}
}

// firstSentence returns text up to the first sentence end, capped at max runes.
func firstSentence(text string, max int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if i := strings.Index(text, ". "); i >= 0 {
		text = text[:i+1]
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
