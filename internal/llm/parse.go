package llm

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// summary holds the parsed items of the three sections
type summary struct {
	Pros         []string
	Cons         []string
	NextHotTopic []string
}

func (s summary) empty() bool {
	return len(s.Pros) == 0 && len(s.Cons) == 0 && len(s.NextHotTopic) == 0
}

// withoutTopicCons drops every con that also appears as a next-topic item
func (s summary) withoutTopicCons() summary {
	topics := make(map[string]bool, len(s.NextHotTopic))
	for _, t := range s.NextHotTopic {
		topics[normalizeItem(t)] = true
	}
	cons := make([]string, 0, len(s.Cons))
	for _, c := range s.Cons {
		if !topics[normalizeItem(c)] {
			cons = append(cons, c)
		}
	}
	s.Cons = cons
	return s
}

func normalizeItem(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	// "Pros:" or "Next hot topic ideas:" opening a line, or a bare "## Pros" line
	lineHeader = regexp.MustCompile(`(?im)^(?:[ \t#>]|\*\*)*(pros|cons|next[ _]hot[ _]topics?)\b[^:\n]{0,40}:[ \t*]*|^(?:[ \t#>]|\*\*)*(pros|cons|next[ _]hot[ _]topics?)[ \t*]*$`)
	// "Cons:" later in a line, as in "Pros: fast Cons: none"
	inlineHeader = regexp.MustCompile(`(?i)\b(pros|cons|next[ _]hot[ _]topics?)\b[ \t]*\**[ \t]*:`)
	bulletLine   = regexp.MustCompile(`^[ \t]*(?:[-•]|\*[ \t]|\d+[.)])`)
	bulletPrefix = regexp.MustCompile(`^(?:(?:[-*•]+|\d+[.)])\s*)+`)
)

// parseResponse extracts the sections from model output: a JSON object
// bounded by the first "{" and last "}" when present and valid, otherwise
// PROS / CONS / NEXT HOT TOPIC headed sections.
func parseResponse(content string) summary {
	if s, ok := parseJSON(content); ok && !s.empty() {
		return s
	}
	return parseSections(content)
}

// extractJSONObject returns the text between the first { and the last }
func extractJSONObject(response string) (string, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end < start {
		return "", false
	}
	return response[start : end+1], true
}

func parseJSON(content string) (summary, bool) {
	raw, ok := extractJSONObject(content)
	if !ok {
		return summary{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return summary{}, false
	}

	var s summary
	for key, value := range fields {
		items := decodeItems(value)
		switch strings.ReplaceAll(strings.ToLower(key), " ", "_") {
		case "pros":
			s.Pros = items
		case "cons":
			s.Cons = items
		case "next_hot_topic", "next_hot_topics", "nexthottopic":
			s.NextHotTopic = items
		}
	}
	return s, true
}

// decodeItems accepts a string (one item per line) or a list of strings
func decodeItems(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanItems(list)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return bullets(text)
	}
	return nil
}

// parseSections splits content at section headers. Inline headers inside a
// bulleted line are ignored, so an item that mentions "pros and cons:" stays
// an item.
func parseSections(content string) summary {
	matches := sectionHeaders(content)

	var s summary
	seen := map[string]bool{}
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		name := headerName(content, m)
		if seen[name] {
			continue
		}
		seen[name] = true

		items := bullets(content[m[1]:end])
		switch name {
		case "pros":
			s.Pros = items
		case "cons":
			s.Cons = items
		case "next":
			s.NextHotTopic = items
		}
	}
	return s
}

// sectionHeaders returns the header match indexes in content order
func sectionHeaders(content string) [][]int {
	matches := lineHeader.FindAllStringSubmatchIndex(content, -1)
	lines := len(matches)
	for _, m := range inlineHeader.FindAllStringSubmatchIndex(content, -1) {
		if overlaps(matches[:lines], m) {
			continue
		}
		lineStart := strings.LastIndex(content[:m[0]], "\n") + 1
		if bulletLine.MatchString(content[lineStart:m[0]]) {
			continue
		}
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i][0] < matches[j][0] })
	return matches
}

func overlaps(matches [][]int, m []int) bool {
	for _, o := range matches {
		if m[0] < o[1] && o[0] < m[1] {
			return true
		}
	}
	return false
}

// headerName returns pros, cons or next from the first matched group
func headerName(content string, m []int) string {
	for g := 2; g+1 < len(m); g += 2 {
		if m[g] < 0 {
			continue
		}
		name := strings.ToLower(content[m[g]:m[g+1]])
		if strings.HasPrefix(name, "next") {
			return "next"
		}
		return name
	}
	return ""
}

// bullets splits a section body into items, one per non-empty line, with
// list markers and emphasis removed
func bullets(body string) []string {
	return cleanItems(strings.Split(body, "\n"))
}

func cleanItems(lines []string) []string {
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = bulletPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(strings.Trim(line, "*"))
		if line == "" || line == "..." {
			continue
		}
		items = append(items, line)
	}
	return items
}
