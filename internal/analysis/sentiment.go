package analysis

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/comment-insights/internal/models"
)

// Polarity thresholds for Classify
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

// Polarity scores text in [-1, 1] as the mean prior polarity of its
// sentiment-bearing words, after applying intensifiers and negation.
// Text without any scored word has polarity 0.
func Polarity(text string) float64 {
	var (
		sum       float64
		n         int
		negate    bool
		intensity = 1.0
	)

	for _, tok := range tokenize(text) {
		if negators[tok] {
			negate = true
			continue
		}
		if m, ok := intensifiers[tok]; ok {
			intensity *= m
			continue
		}
		if fillers[tok] {
			continue
		}

		if p, ok := polarityLexicon[tok]; ok {
			s := p * intensity
			if negate {
				s *= -0.5
			}
			sum += clamp(s, -1, 1)
			n++
		}
		negate = false
		intensity = 1
	}

	if n == 0 {
		return 0
	}
	return clamp(sum/float64(n), -1, 1)
}

// Classify labels text as positive, neutral or negative. It never fails:
// unscorable input degrades to neutral.
func Classify(text string) (res models.Result[models.Sentiment]) {
	defer func() {
		if r := recover(); r != nil {
			res = models.Degraded(models.SentimentNeutral, fmt.Sprintf("classify: %v", r))
		}
	}()

	if !utf8.ValidString(text) {
		return models.Degraded(models.SentimentNeutral, "classify: invalid utf-8")
	}
	if strings.TrimSpace(text) == "" {
		return models.Degraded(models.SentimentNeutral, "classify: empty text")
	}

	p := Polarity(text)
	switch {
	case p > PositiveThreshold:
		return models.Ok(models.SentimentPositive)
	case p < NegativeThreshold:
		return models.Ok(models.SentimentNegative)
	}
	return models.Ok(models.SentimentNeutral)
}

// Summarize turns a multiset of labels into fractions rounded to three
// decimals. Rounding uses largest remainders so the parts always sum to
// exactly 1. Unknown labels count as neutral.
func Summarize(labels []models.Sentiment) models.SentimentSummary {
	if len(labels) == 0 {
		return models.NeutralSummary()
	}

	var counts [3]int // positive, neutral, negative
	for _, l := range labels {
		switch l {
		case models.SentimentPositive:
			counts[0]++
		case models.SentimentNegative:
			counts[2]++
		default:
			counts[1]++
		}
	}

	const scale = 1000
	total := len(labels)
	var (
		parts     [3]int
		remainder [3]int
		assigned  int
	)
	for i, c := range counts {
		parts[i] = c * scale / total
		remainder[i] = c * scale % total
		assigned += parts[i]
	}
	for left := scale - assigned; left > 0; left-- {
		best := 0
		for i := 1; i < 3; i++ {
			if remainder[i] > remainder[best] {
				best = i
			}
		}
		parts[best]++
		remainder[best] = -1
	}

	return models.SentimentSummary{
		Positive: float64(parts[0]) / scale,
		Neutral:  float64(parts[1]) / scale,
		Negative: float64(parts[2]) / scale,
	}
}

// tokenize lowercases text and splits it into words, keeping apostrophes
// inside words so contractions survive.
func tokenize(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "’", "'")
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	tokens := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "'"); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
