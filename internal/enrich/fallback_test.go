package enrich

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

func TestMissingAnnotation(t *testing.T) {
	t.Run("summary from first sentence", func(t *testing.T) {
		a := MissingAnnotation(domain.RawRecord{
			ID:       "2301.00001",
			Title:    "Multi Agent Coordination",
			Abstract: "We propose a protocol. It scales well.",
		})

		assert.Equal(t, PlaceholderAbstractZH, a.AbstractZH)
		assert.Equal(t, "We propose a protocol.", a.TLDR)
		assert.Equal(t, []string{PlaceholderTag}, a.Tags)
	})

	t.Run("title when abstract empty", func(t *testing.T) {
		a := MissingAnnotation(domain.RawRecord{Title: "Only A Title"})
		assert.Equal(t, "Only A Title", a.TLDR)
	})

	t.Run("long abstract truncated", func(t *testing.T) {
		a := MissingAnnotation(domain.RawRecord{Abstract: strings.Repeat("word ", 100)})
		assert.LessOrEqual(t, utf8.RuneCountInString(a.TLDR), maxFallbackTLDR)
		assert.True(t, strings.HasSuffix(a.TLDR, "…"))
	})
}

func TestServiceFailureAnnotation(t *testing.T) {
	a := ServiceFailureAnnotation()

	assert.Equal(t, UnavailableAbstractZH, a.AbstractZH)
	assert.Equal(t, UnavailableTLDR, a.TLDR)
	assert.Equal(t, []string{UnavailableTag}, a.Tags)
}
