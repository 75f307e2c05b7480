package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/comment-insights/internal/models"
)

// themeScanLimit is how many comments of each polarity are scanned for themes
const themeScanLimit = 20

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	nonWord       = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s]`)
	requestRegexp = compileRequestPhrases()
)

func compileRequestPhrases() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(requestPhrases))
	for i, p := range requestPhrases {
		out[i] = regexp.MustCompile(`(?i)\b` + p + `\b`)
	}
	return out
}

// Themes holds the pros and cons mined from one video's comments
type Themes struct {
	Pros []string
	Cons []string
}

// ProsCons mines pros from positive comments and cons from negative ones.
// Comments must already carry a sentiment label.
func ProsCons(comments []models.Comment) (res models.Result[Themes]) {
	defer func() {
		if r := recover(); r != nil {
			res = models.Degraded(Themes{Pros: []string{}, Cons: []string{}}, fmt.Sprintf("pros/cons: %v", r))
		}
	}()

	var positive, negative []string
	for _, c := range comments {
		switch c.Sentiment {
		case models.SentimentPositive:
			positive = append(positive, c.Text)
		case models.SentimentNegative:
			negative = append(negative, c.Text)
		}
	}

	return models.Ok(Themes{
		Pros: extractThemes(positive, positiveThemeTerms, models.MaxPros),
		Cons: extractThemes(negative, negativeThemeTerms, models.MaxCons),
	})
}

// extractThemes collects distinct sentences containing a lexicon term, in
// scan order, from the first themeScanLimit comments.
func extractThemes(texts []string, terms []string, limit int) []string {
	themes := make([]string, 0, limit)
	if len(texts) > themeScanLimit {
		texts = texts[:themeScanLimit]
	}

	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, term := range terms {
			if !strings.Contains(lower, term) {
				continue
			}
			ctx := sentenceContaining(text, term)
			if ctx == "" || contains(themes, ctx) {
				continue
			}
			themes = append(themes, ctx)
			if len(themes) >= limit {
				return themes
			}
		}
	}
	return themes
}

// sentenceContaining returns the first cleaned sentence of text that
// contains term and is between 11 and 99 characters long.
func sentenceContaining(text, term string) string {
	for _, sentence := range sentenceSplit.Split(text, -1) {
		if !strings.Contains(strings.ToLower(sentence), term) {
			continue
		}
		cleaned := cleanFragment(sentence)
		if n := utf8.RuneCountInString(cleaned); n > 10 && n < 100 {
			return cleaned
		}
	}
	return ""
}

// NextTopicIdeas finds viewer requests ("please make", "tutorial on", ...)
// and returns up to four distinct follow-up topics in first-seen order.
func NextTopicIdeas(texts []string) (res models.Result[[]string]) {
	defer func() {
		if r := recover(); r != nil {
			res = models.Degraded([]string{}, fmt.Sprintf("next topics: %v", r))
		}
	}()

	ideas := make([]string, 0, models.MaxNextTopics)
	for _, text := range texts {
		for _, re := range requestRegexp {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				topic := cleanFragment(firstRunes(text[loc[1]:], 100))
				if n := utf8.RuneCountInString(topic); n <= 5 || n >= 50 {
					continue
				}
				if contains(ideas, topic) {
					continue
				}
				ideas = append(ideas, topic)
				if len(ideas) == models.MaxNextTopics {
					return models.Ok(ideas)
				}
			}
		}
	}
	return models.Ok(ideas)
}

// cleanFragment replaces punctuation with spaces and collapses whitespace
func cleanFragment(s string) string {
	return strings.Join(strings.Fields(nonWord.ReplaceAllString(s, " ")), " ")
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
