package rag

import (
	"regexp"
	"strings"
	"unicode"
)

// Excerpter shortens a document body to a bounded, readable excerpt.
type Excerpter interface {
	Excerpt(text string, maxSentences int) string
}

// SentenceExcerpter keeps the first N sentences. A sentence ends at '.', '!' or
// '?' followed by whitespace; abbreviations and decimals can be mis-split.
type SentenceExcerpter struct{}

func (SentenceExcerpter) Excerpt(text string, maxSentences int) string {
	return GetSentences(text, maxSentences)
}

// ClauseExcerpter normalizes whitespace and treats numbered clause headings
// ("제 1 조", "제3조의2", "제 2 관") as sentence ends before taking the first N
// sentences. A heading counts only when followed by whitespace or the end of
// the text, so references like "제1조의 규정" stay intact.
type ClauseExcerpter struct{}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	articleMarker = regexp.MustCompile(`(제\s*\d+\s*조(?:\s*의\s*\d+)?)\.?(\s|$)`)
	chapterMarker = regexp.MustCompile(`(제\s*\d+\s*관)\.?(\s|$)`)
)

func (ClauseExcerpter) Excerpt(text string, maxSentences int) string {
	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	text = articleMarker.ReplaceAllString(text, "${1}.${2}")
	text = chapterMarker.ReplaceAllString(text, "${1}.${2}")
	return strings.Join(firstN(splitSentences(text), maxSentences), " ")
}

// GetSentences returns the first maxSentences sentences of text joined by single spaces.
func GetSentences(text string, maxSentences int) string {
	return strings.Join(firstN(splitSentences(strings.TrimSpace(text)), maxSentences), " ")
}

// splitSentences splits on whitespace runs that follow a terminal mark.
// Whitespace elsewhere is left untouched.
func splitSentences(text string) []string {
	if text == "" {
		return []string{""}
	}
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		out = append(out, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	return append(out, string(runes[start:]))
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func firstN(s []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if n < len(s) {
		return s[:n]
	}
	return s
}
