package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"
	"github.com/jdkato/prose/v2"
	"github.com/jinzhu/inflection"
)

// minSentenceWords drops fragments too short to be worth storing.
const minSentenceWords = 3

var nonAlphaRE = regexp.MustCompile(`[^a-z]`)

// Tagged is one sentence ready for storage: its text, the normalized
// noun subjects extracted from it, and its sentiment scores.
type Tagged struct {
	Text         string
	Subjects     []string
	Sentiment    float64
	Subjectivity float64
	WordCount    int
}

// TagSentences splits sanitized text into sentences and tags each one.
// Sentences with fewer than minSentenceWords words, or with no surviving
// subject after normalization, are dropped; the second return value
// counts them.
func TagSentences(text string) ([]Tagged, int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, 0, nil
	}

	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil, 0, fmt.Errorf("segmenting text: %w", err)
	}

	var out []Tagged
	skipped := 0
	for _, sent := range doc.Sentences() {
		tagged, err := tagSentence(sent.Text)
		if err != nil {
			return nil, skipped, err
		}
		if tagged == nil {
			skipped++
			continue
		}
		out = append(out, *tagged)
	}
	return out, skipped, nil
}

// tagSentence tags one sentence. Returns nil when the sentence doesn't
// qualify for storage.
func tagSentence(text string) (*Tagged, error) {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, fmt.Errorf("tagging sentence: %w", err)
	}

	var subjects []string
	words := 0
	for _, tok := range doc.Tokens() {
		if isWord(tok.Text) {
			words++
		}
		// NN, NNS, NNP, NNPS — every noun flavor is a subject candidate.
		if strings.HasPrefix(tok.Tag, "NN") {
			if label := NormalizeLabel(tok.Text); label != "" {
				subjects = append(subjects, label)
			}
		}
	}

	if words < minSentenceWords || len(subjects) == 0 {
		return nil, nil
	}

	parsed := sentitext.Parse(text, lexicon.DefaultLexicon)
	score := sentitext.PolarityScore(parsed)

	subjectivity := 1 - score.Neutral
	if subjectivity < 0 {
		subjectivity = 0
	}
	if subjectivity > 1 {
		subjectivity = 1
	}

	return &Tagged{
		Text:         strings.TrimSpace(text),
		Subjects:     subjects,
		Sentiment:    score.Compound,
		Subjectivity: subjectivity,
		WordCount:    words,
	}, nil
}

// NormalizeLabel canonicalizes a raw noun token into a subject label:
// singularized, lowercased, stripped to bare letters. Two raw tokens
// that normalize identically always resolve to the same subject.
// Returns "" when nothing survives.
func NormalizeLabel(raw string) string {
	label := strings.ToLower(raw)
	label = nonAlphaRE.ReplaceAllString(label, "")
	if label == "" {
		return ""
	}
	return inflection.Singular(label)
}

// isWord reports whether a token counts toward sentence length —
// punctuation doesn't.
func isWord(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
