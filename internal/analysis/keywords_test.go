package analysis

import (
	"fmt"
	"reflect"
	"testing"
)

func TestExtractKeywordsRequiresTwoDocuments(t *testing.T) {
	got := ExtractKeywords([]string{
		"This tutorial is great for beginners",
		"Love the examples and explanations",
		"Programming made easy with this tutorial",
	})
	if got.IsDegraded() {
		t.Fatalf("unexpected degraded result: %s", got.Reason)
	}
	if !reflect.DeepEqual(got.Value, []string{"tutorial"}) {
		t.Errorf("ExtractKeywords = %v, want [tutorial]", got.Value)
	}
}

func TestExtractKeywordsFiltersPlatformNoise(t *testing.T) {
	got := ExtractKeywords([]string{
		"Great video, the goroutines part was clear",
		"great video! goroutines finally make sense",
		"Subscribe for more goroutines content @someone https://example.com/x",
	}).Value

	has := func(term string) bool {
		for _, k := range got {
			if k == term {
				return true
			}
		}
		return false
	}

	if !has("goroutines") {
		t.Errorf("expected goroutines in %v", got)
	}
	if !has("great video") {
		t.Errorf("expected bigram 'great video' in %v", got)
	}
	for _, noise := range []string{"video", "subscribe", "someone", "https", "example"} {
		if has(noise) {
			t.Errorf("did not expect %q in %v", noise, got)
		}
	}
}

func TestExtractKeywordsEmpty(t *testing.T) {
	for _, input := range [][]string{nil, {}, {"!!!", "   ", "@only https://link"}} {
		got := ExtractKeywords(input)
		if len(got.Value) != 0 {
			t.Errorf("ExtractKeywords(%v) = %v, want empty", input, got.Value)
		}
		if got.IsDegraded() {
			t.Errorf("ExtractKeywords(%v) should not degrade on empty input", input)
		}
	}
}

func TestExtractKeywordsCap(t *testing.T) {
	var texts []string
	for i := 0; i < 30; i++ {
		doc := ""
		for w := 0; w < 20; w++ {
			doc += fmt.Sprintf("topicword%02d ", w)
		}
		texts = append(texts, doc)
	}

	got := ExtractKeywords(texts).Value
	if len(got) != 10 {
		t.Errorf("expected exactly 10 keywords, got %d: %v", len(got), got)
	}
}

func TestExtractKeywordsDeterministic(t *testing.T) {
	texts := []string{
		"channels and goroutines are great",
		"goroutines and channels explained",
		"great explanation of channels",
		"goroutines great explanation",
	}
	first := ExtractKeywords(texts).Value
	for i := 0; i < 10; i++ {
		if again := ExtractKeywords(texts).Value; !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, first, again)
		}
	}
}

func TestCleanForKeywords(t *testing.T) {
	got := CleanForKeywords("Check THIS out: https://x.io/a?b=c @dev_team   wow!!")
	if got != "check this out wow" {
		t.Errorf("CleanForKeywords = %q", got)
	}
}
