package research

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// charBudget caps the synthesized annotation length.
const charBudget = 600

// signalKeywords are the themes the synthesis scans snippets for, in report
// order. Keyword presence is all this is: no semantic analysis happens here.
var signalKeywords = []struct {
	keyword string
	theme   string
}{
	{"injur", "injury concerns"},
	{"questionable", "questionable status"},
	{"doubtful", "doubtful status"},
	{"ruled out", "player ruled out"},
	{"weather", "weather factor"},
	{"wind", "wind factor"},
	{"snow", "snow expected"},
	{"streak", "active streak"},
	{"line move", "line movement"},
	{"sharp", "sharp action"},
}

// Synthesize condenses a raw search payload into annotation text: flagged
// keyword themes followed by the top result snippets, truncated to a fixed
// character budget.
func Synthesize(resp *SearchResponse) string {
	if resp == nil || len(resp.Organic) == 0 {
		return ""
	}

	var flagged []string
	seen := make(map[string]bool)
	for _, hit := range resp.Organic {
		text := strings.ToLower(hit.Title + " " + hit.Snippet)
		for _, sig := range signalKeywords {
			if strings.Contains(text, sig.keyword) && !seen[sig.theme] {
				seen[sig.theme] = true
				flagged = append(flagged, sig.theme)
			}
		}
	}

	var b strings.Builder
	if len(flagged) > 0 {
		b.WriteString("Signals: ")
		b.WriteString(strings.Join(flagged, ", "))
		b.WriteString(". ")
	}
	for i, hit := range resp.Organic {
		if i >= 3 {
			break
		}
		if hit.Snippet == "" {
			continue
		}
		b.WriteString(hit.Snippet)
		b.WriteString(" ")
	}

	note := strings.TrimSpace(b.String())
	if len(note) > charBudget {
		note = note[:charBudget]
	}
	return note
}

// NormalizeTeam lowercases a team name, strips accents, and collapses
// whitespace, for stable search queries across provider spellings.
func NormalizeTeam(name string) string {
	name = strings.ToLower(name)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	name, _, _ = transform.String(t, name)

	return strings.Join(strings.Fields(name), " ")
}
