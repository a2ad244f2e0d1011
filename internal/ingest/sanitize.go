package ingest

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Characters commonly used in comment markdown that carry no prose value.
	markdownCharsRE = regexp.MustCompile(`[<>_*]`)
	// Stray newlines become sentence spacing, keeping trailing punctuation.
	strayNewlinesRE = regexp.MustCompile(`((?:[.?!]+)?)(?:\r?\n)+`)
	// Runs of spaces after punctuation — people use them instead of periods.
	spacedPunctRE = regexp.MustCompile(`([.?!]+)\s{2,}`)
	// "..." and "?!" runs confuse sentence segmentation; collapse to one mark.
	repeatedPunctRE = regexp.MustCompile(`([.?!]){2,}\s?`)
	// Markdown links: keep the label, drop the URL.
	markdownLinkRE = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
)

// htmlPolicy strips every HTML element from comment bodies.
var htmlPolicy = bluemonday.StrictPolicy()

// CleanBody normalizes a raw comment body into plain prose: HTML stripped,
// entities unescaped, markdown noise removed, newline and punctuation runs
// collapsed so the sentence splitter sees clean boundaries.
func CleanBody(raw string) string {
	text := htmlPolicy.Sanitize(raw)
	text = html.UnescapeString(text)
	text = markdownCharsRE.ReplaceAllString(text, "")
	text = strayNewlinesRE.ReplaceAllString(text, "$1 ")
	text = spacedPunctRE.ReplaceAllString(text, "$1 ")
	text = repeatedPunctRE.ReplaceAllString(text, "$1 ")
	return strings.TrimSpace(text)
}

// StripLinks replaces markdown links with their parenthesized label, so
// URLs never reach the tagger.
func StripLinks(text string) string {
	return markdownLinkRE.ReplaceAllString(text, "($1)")
}
