package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/comment-insights/internal/models"
)

// TF-IDF model parameters
const (
	maxFeatures   = 50
	minDocFreq    = 2
	maxNGram      = 2
	minKeywordLen = 3
)

var noisePattern = regexp.MustCompile(`http\S+|@[\p{L}\p{N}_]+|[^\p{L}\p{N}\p{M}_\s]`)

// CleanForKeywords lowercases text, replaces URLs, mentions and punctuation
// with spaces and collapses whitespace.
func CleanForKeywords(text string) string {
	cleaned := noisePattern.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// ExtractKeywords ranks unigrams and bigrams across the comment corpus by
// mean TF-IDF weight and returns at most ten of them.
//
// Terms must occur in at least two comments, and only the fifty most
// frequent eligible terms are weighted. Ties rank alphabetically.
func ExtractKeywords(texts []string) (res models.Result[[]string]) {
	defer func() {
		if r := recover(); r != nil {
			res = models.Degraded([]string{}, fmt.Sprintf("keywords: %v", r))
		}
	}()

	docs := make([][]string, 0, len(texts))
	for _, t := range texts {
		if cleaned := CleanForKeywords(t); cleaned != "" {
			docs = append(docs, analyzeTerms(cleaned))
		}
	}
	if len(docs) == 0 {
		return models.Ok([]string{})
	}

	vocab := buildVocabulary(docs)
	if len(vocab) == 0 {
		return models.Ok([]string{})
	}

	scores := meanTFIDF(docs, vocab)

	ranked := make([]string, 0, len(vocab))
	for term := range vocab {
		ranked = append(ranked, term)
	}
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i]], scores[ranked[j]]
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})

	keywords := make([]string, 0, models.MaxKeywords)
	for _, term := range ranked {
		if keywordStopWords[term] || utf8.RuneCountInString(term) < minKeywordLen {
			continue
		}
		keywords = append(keywords, term)
		if len(keywords) == models.MaxKeywords {
			break
		}
	}
	return models.Ok(keywords)
}

// analyzeTerms splits a cleaned document into tokens of two or more
// characters, drops English stop words and emits 1..maxNGram grams.
func analyzeTerms(doc string) []string {
	var tokens []string
	for _, tok := range strings.Fields(doc) {
		if utf8.RuneCountInString(tok) < 2 || englishStopWords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}

	terms := make([]string, 0, len(tokens)*maxNGram)
	for n := 1; n <= maxNGram; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// buildVocabulary keeps terms with document frequency >= minDocFreq, then
// the maxFeatures most frequent of those. The value is the document frequency.
func buildVocabulary(docs [][]string) map[string]int {
	docFreq := make(map[string]int)
	termFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range doc {
			termFreq[term]++
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}

	eligible := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= minDocFreq {
			eligible = append(eligible, term)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		fi, fj := termFreq[eligible[i]], termFreq[eligible[j]]
		if fi != fj {
			return fi > fj
		}
		return eligible[i] < eligible[j]
	})
	if len(eligible) > maxFeatures {
		eligible = eligible[:maxFeatures]
	}

	vocab := make(map[string]int, len(eligible))
	for _, term := range eligible {
		vocab[term] = docFreq[term]
	}
	return vocab
}

// meanTFIDF computes raw-count tf times smoothed idf, L2-normalises each
// document vector and averages every term over all documents.
func meanTFIDF(docs [][]string, vocab map[string]int) map[string]float64 {
	n := float64(len(docs))
	idf := make(map[string]float64, len(vocab))
	for term, df := range vocab {
		idf[term] = math.Log((1+n)/(1+float64(df))) + 1
	}

	sums := make(map[string]float64, len(vocab))
	for _, doc := range docs {
		counts := make(map[string]float64)
		for _, term := range doc {
			if _, ok := vocab[term]; ok {
				counts[term]++
			}
		}

		var norm float64
		for term, c := range counts {
			w := c * idf[term]
			counts[term] = w
			norm += w * w
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for term, w := range counts {
			sums[term] += w / norm
		}
	}

	for term := range sums {
		sums[term] /= n
	}
	return sums
}
