package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

const (
	ruleWidth     = 72
	maxAuthorsRow = 3
)

func renderCard(w io.Writer, p domain.PaperRecord) {
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
	fmt.Fprintf(w, "%s\n", p.Title)

	meta := formatAuthors(p.Authors)
	if p.Year > 0 {
		if meta != "" {
			meta += " · "
		}
		meta += fmt.Sprintf("%d", p.Year)
	}
	if meta != "" {
		fmt.Fprintln(w, meta)
	}
	fmt.Fprintf(w, "arXiv:%s\n", p.ID)
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(p.Tags, " · "))
	}
	if p.TLDR != "" {
		fmt.Fprintf(w, "\nTL;DR: %s\n", p.TLDR)
	}
	if p.AbstractZH != "" {
		fmt.Fprintf(w, "\n%s\n", p.AbstractZH)
	}
	if p.AbstractEN != "" {
		fmt.Fprintf(w, "\n%s\n", p.AbstractEN)
	}
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
}

func formatAuthors(authors []string) string {
	if len(authors) <= maxAuthorsRow {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:maxAuthorsRow], ", ") + " et al."
}
