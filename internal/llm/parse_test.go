package llm

import (
	"reflect"
	"testing"
)

func TestParseResponseJSON(t *testing.T) {
	content := "Sure! Here is the analysis:\n```json\n" + `{
  "pros": ["Clear explanations", "Good pacing"],
  "cons": "- Audio is quiet\n- Too short",
  "next_hot_topic": ["Generics deep dive"]
}` + "\n```"

	got := parseResponse(content)
	want := summary{
		Pros:         []string{"Clear explanations", "Good pacing"},
		Cons:         []string{"Audio is quiet", "Too short"},
		NextHotTopic: []string{"Generics deep dive"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseResponse = %+v, want %+v", got, want)
	}
}

func TestParseResponseSections(t *testing.T) {
	content := `**PROS:**
- Clear explanations
- 2) Good examples

CONS:
* Audio is quiet

NEXT HOT TOPIC:
1. Generics deep dive
`
	got := parseResponse(content)
	want := summary{
		Pros:         []string{"Clear explanations", "Good examples"},
		Cons:         []string{"Audio is quiet"},
		NextHotTopic: []string{"Generics deep dive"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseResponse = %+v, want %+v", got, want)
	}
}

func TestParseResponseInlineAndHeadings(t *testing.T) {
	got := parseResponse("Pros: great demos Cons: none really")
	if !reflect.DeepEqual(got.Pros, []string{"great demos"}) || !reflect.DeepEqual(got.Cons, []string{"none really"}) {
		t.Errorf("inline = %+v", got)
	}

	got = parseResponse("## Pros\n- fast\n## Next Hot Topics\n- testing\n")
	if !reflect.DeepEqual(got.Pros, []string{"fast"}) || !reflect.DeepEqual(got.NextHotTopic, []string{"testing"}) {
		t.Errorf("headings = %+v", got)
	}
}

func TestParseResponseMentionInsideItem(t *testing.T) {
	content := "PROS:\n- Weighs the pros and cons: clearly for beginners\n- Good pacing\n" +
		"CONS:\n- Audio is quiet\nNEXT HOT TOPIC:\n- Concurrency patterns\n"

	got := parseResponse(content)
	want := summary{
		Pros:         []string{"Weighs the pros and cons: clearly for beginners", "Good pacing"},
		Cons:         []string{"Audio is quiet"},
		NextHotTopic: []string{"Concurrency patterns"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseResponse = %+v, want %+v", got, want)
	}
}

func TestParseResponseHeaderWithTrailingWords(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"topic ideas", "PROS:\n- Good pacing\nCONS:\n- Audio is quiet\nNext hot topic ideas:\n- Concurrency patterns\n"},
		{"bold", "**Pros of the video:**\n- Good pacing\n**Cons:**\n- Audio is quiet\n**Next Hot Topics for the channel:**\n- Concurrency patterns\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseResponse(tt.content)
			want := summary{
				Pros:         []string{"Good pacing"},
				Cons:         []string{"Audio is quiet"},
				NextHotTopic: []string{"Concurrency patterns"},
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("parseResponse = %+v, want %+v", got, want)
			}
		})
	}
}

func TestParseResponseNothing(t *testing.T) {
	for _, content := range []string{"I cannot help with that.", `{"answer": "n/a"}`, "{broken"} {
		if got := parseResponse(content); !got.empty() {
			t.Errorf("parseResponse(%q) = %+v, want empty", content, got)
		}
	}
}

func TestWithoutTopicCons(t *testing.T) {
	s := summary{
		Cons:         []string{"More on testing", "Audio is quiet"},
		NextHotTopic: []string{"  more ON testing "},
	}.withoutTopicCons()
	if !reflect.DeepEqual(s.Cons, []string{"Audio is quiet"}) {
		t.Errorf("Cons = %q", s.Cons)
	}
}
