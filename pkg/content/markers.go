// Package content parses and corrects the text generator's parlay output.
// The format is line-oriented: numbered leg headers carrying a date marker,
// followed by Game/Bet/Odds/Confidence/Reasoning lines, inside sections
// delimited by a main-parlay and a lock-parlay header. The grammar lives in
// this file; the corrector and validator share it.
package content

import (
	"regexp"
	"strings"
)

const (
	// CombinedOddsPrefix and PayoutPrefix are the literal footer markers the
	// corrector rewrites. Any reimplementation must preserve them exactly.
	CombinedOddsPrefix = "**Combined Odds:**"
	PayoutPrefix       = "**Payout on $100:**"

	// DateMarker introduces the date on a numbered leg header.
	DateMarker = "📅"
)

var (
	// legHeaderRe matches "1. 📅 Jan 15": an integer marker immediately
	// followed by the date marker. This is the canonical leg header the
	// generation loop counts.
	legHeaderRe = regexp.MustCompile(`^\s*(\d+)[.)]\s*` + DateMarker + `\s*(.+?)\s*$`)

	mainHeaderRe = regexp.MustCompile(`(?i)main parlay`)
	lockHeaderRe = regexp.MustCompile(`(?i)(lock parlay|bonus parlay)`)

	gameLineRe       = regexp.MustCompile(`(?i)^\s*(?:\*\*)?game:(?:\*\*)?\s*(.+?)\s*$`)
	betLineRe        = regexp.MustCompile(`(?i)^\s*(?:\*\*)?bet:(?:\*\*)?\s*(.+?)\s*$`)
	oddsLineRe       = regexp.MustCompile(`(?i)^\s*(?:\*\*)?odds:(?:\*\*)?\s*(.+?)\s*$`)
	confidenceLineRe = regexp.MustCompile(`(?i)^\s*(?:\*\*)?confidence:(?:\*\*)?\s*(\d+)`)
	reasoningLineRe  = regexp.MustCompile(`(?i)^\s*(?:\*\*)?reasoning:(?:\*\*)?\s*(.+?)\s*$`)

	// signedLineRe extracts a signed point line from a bet description, for
	// the spread-direction conflict heuristic.
	signedLineRe = regexp.MustCompile(`([+-])\d+(?:\.\d+)?`)
)

// isSectionHeader reports whether a line opens a parlay section.
func isSectionHeader(line string) bool {
	return mainHeaderRe.MatchString(line) || lockHeaderRe.MatchString(line)
}

// isSectionEnd reports whether a line closes the current section: a
// horizontal-rule separator or the locks explanation marker.
func isSectionEnd(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "---" {
		return true
	}
	return strings.Contains(strings.ToLower(trimmed), "why these are locks")
}

// mainSection returns the lines of the main parlay section. The bonus
// section repeats the highest-confidence main legs by design, so anything
// that counts or compares legs must stay inside the main section. Text with
// no main header at all (degraded generator output) is returned whole.
func mainSection(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	sawMain := false
	inMain := false

	for _, line := range lines {
		switch {
		case mainHeaderRe.MatchString(line):
			sawMain, inMain = true, true
			kept = kept[:0]
		case lockHeaderRe.MatchString(line) || isSectionEnd(line):
			inMain = false
		default:
			if inMain || !sawMain {
				kept = append(kept, line)
			}
		}
	}
	if !sawMain {
		return text
	}
	return strings.Join(kept, "\n")
}

// CountLegs counts canonical numbered leg headers in the main parlay
// section. The bonus section restarts its numbering and never counts toward
// the requested leg total.
func CountLegs(text string) int {
	n := 0
	for _, line := range strings.Split(mainSection(text), "\n") {
		if legHeaderRe.MatchString(line) {
			n++
		}
	}
	return n
}
