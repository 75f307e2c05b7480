package llm

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"

	"github.com/comment-insights/internal/analysis"
)

// DefaultMaxCommentWords drops comments longer than this before prompting
const DefaultMaxCommentWords = 100

var emojiPattern = regexp.MustCompile(`[\x{10000}-\x{10FFFF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}]+`)

// minEnglishShare is the share of known English words a short Latin-script
// text needs when the detector is unsure
const minEnglishShare = 0.3

// SimpleText strips emoji and pictographic symbols and collapses whitespace
func SimpleText(text string) string {
	return strings.Join(strings.Fields(emojiPattern.ReplaceAllString(text, "")), " ")
}

// IsEnglish reports whether text looks English
func IsEnglish(text string) bool {
	info := whatlanggo.Detect(text)
	if info.Lang == whatlanggo.Eng {
		return true
	}
	if info.Script != unicode.Latin {
		return false
	}
	// trigram detection is unreliable on one-line comments
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return false
	}
	hits := 0
	for _, w := range words {
		if analysis.IsEnglishWord(strings.Trim(w, ".,!?;:'\"()")) {
			hits++
		}
	}
	return float64(hits)/float64(len(words)) >= minEnglishShare
}

// Sanitize cleans comment texts for prompting: emoji are stripped,
// whitespace collapsed, exact duplicates, non-English and over-long
// comments dropped. Order is preserved.
func Sanitize(comments []string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxCommentWords
	}

	seen := make(map[string]bool, len(comments))
	out := make([]string, 0, len(comments))
	for _, c := range comments {
		clean := SimpleText(c)
		if clean == "" || seen[clean] {
			continue
		}
		if len(strings.Fields(clean)) > maxWords || !IsEnglish(clean) {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
