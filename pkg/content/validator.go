package content

import (
	"strconv"
	"strings"
	"time"
)

// Leg is one parlay selection parsed from corrected generator text.
type Leg struct {
	Date       string `json:"date"`
	Game       string `json:"game"` // free text, "Away @ Home"
	Bet        string `json:"bet"`
	Odds       string `json:"odds"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// ValidationResult reports structural and semantic findings over the parsed
// legs. Derived per request and discarded after use.
type ValidationResult struct {
	ActualLegCount   int      `json:"actual_leg_count"`
	ExpectedLegCount int      `json:"expected_leg_count"`
	Legs             []Leg    `json:"-"`
	Conflicts        [][2]int `json:"conflicts,omitempty"` // leg index pairs
	HasConflicts     bool     `json:"has_conflicts"`
	UniqueGames      int      `json:"unique_games"`
	WrongDates       bool     `json:"wrong_dates"`
}

// Validate parses the main parlay section into legs and flags count
// mismatches, opposing bets in the same game, and date anomalies. The bonus
// section repeats main legs verbatim, so it is excluded from every check.
// Text the parser cannot make sense of degrades to an empty leg list, never
// an error.
func Validate(text string, expectedLegs int) *ValidationResult {
	return validateAt(text, expectedLegs, time.Now())
}

func validateAt(text string, expectedLegs int, now time.Time) *ValidationResult {
	legs := ParseLegs(mainSection(text))

	result := &ValidationResult{
		ActualLegCount:   CountLegs(text),
		ExpectedLegCount: expectedLegs,
		Legs:             legs,
		UniqueGames:      uniqueGames(legs),
		WrongDates:       wrongDates(legs, now),
	}

	for i := 0; i < len(legs); i++ {
		for j := i + 1; j < len(legs); j++ {
			if sameGame(legs[i], legs[j]) && opposing(legs[i], legs[j]) {
				result.Conflicts = append(result.Conflicts, [2]int{i, j})
			}
		}
	}
	result.HasConflicts = len(result.Conflicts) > 0

	return result
}

// ParseLegs extracts ordered legs from generator text by matching numbered
// date headers and the Game:/Bet:/Odds:/Confidence:/Reasoning lines that
// follow each one.
func ParseLegs(text string) []Leg {
	var legs []Leg
	var cur *Leg

	for _, line := range strings.Split(text, "\n") {
		if m := legHeaderRe.FindStringSubmatch(line); m != nil {
			legs = append(legs, Leg{Date: m[2]})
			cur = &legs[len(legs)-1]
			continue
		}
		if cur == nil {
			continue
		}
		switch {
		case gameLineRe.MatchString(line):
			cur.Game = gameLineRe.FindStringSubmatch(line)[1]
		case betLineRe.MatchString(line):
			cur.Bet = betLineRe.FindStringSubmatch(line)[1]
		case oddsLineRe.MatchString(line):
			cur.Odds = oddsLineRe.FindStringSubmatch(line)[1]
		case confidenceLineRe.MatchString(line):
			cur.Confidence, _ = strconv.Atoi(confidenceLineRe.FindStringSubmatch(line)[1])
		case reasoningLineRe.MatchString(line):
			cur.Reasoning = reasoningLineRe.FindStringSubmatch(line)[1]
		}
	}

	return legs
}

// sameGame compares the free-text game references case-insensitively.
func sameGame(a, b Leg) bool {
	ga := strings.ToLower(strings.TrimSpace(a.Game))
	gb := strings.ToLower(strings.TrimSpace(b.Game))
	return ga != "" && ga == gb
}

// opposing reports whether two same-game bets contradict each other.
// Same-game legs that are not opposing (spread plus total, say) are a
// supported product feature, not a conflict.
func opposing(a, b Leg) bool {
	betA := strings.ToLower(strings.TrimSpace(a.Bet))
	betB := strings.ToLower(strings.TrimSpace(b.Bet))
	if betA == "" || betB == "" {
		return false
	}

	// Exact duplicate selection.
	if betA == betB {
		return true
	}

	// Over vs under on the same game.
	if strings.Contains(betA, "over") && strings.Contains(betB, "under") {
		return true
	}
	if strings.Contains(betA, "under") && strings.Contains(betB, "over") {
		return true
	}

	// Opposing spread directions: one negative line, one positive line, on
	// different sides (different leading tokens).
	signA := lineSign(betA)
	signB := lineSign(betB)
	if signA != 0 && signB != 0 && signA != signB && firstToken(betA) != firstToken(betB) {
		return true
	}

	return false
}

// lineSign returns -1/+1 for a signed point in the bet text, 0 when absent.
func lineSign(bet string) int {
	m := signedLineRe.FindStringSubmatch(bet)
	if m == nil {
		return 0
	}
	if m[1] == "-" {
		return -1
	}
	return 1
}

func firstToken(bet string) string {
	fields := strings.Fields(bet)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func uniqueGames(legs []Leg) int {
	seen := make(map[string]bool)
	for _, leg := range legs {
		g := strings.ToLower(strings.TrimSpace(leg.Game))
		if g != "" {
			seen[g] = true
		}
	}
	return len(seen)
}

// legDateLayouts are the date spellings the generator is instructed to use,
// most specific first.
var legDateLayouts = []string{"Jan 2, 2006", "January 2, 2006", "Jan 2", "January 2"}

// wrongDates flags a known generator failure mode: substituting today's date
// for every game date. Diagnostic only; an unparsable date also trips it.
func wrongDates(legs []Leg, now time.Time) bool {
	if len(legs) == 0 {
		return false
	}
	today := now.Format("Jan 2")
	allToday := true
	for _, leg := range legs {
		parsed := false
		for _, layout := range legDateLayouts {
			if d, err := time.Parse(layout, leg.Date); err == nil {
				parsed = true
				if d.Format("Jan 2") != today {
					allToday = false
				}
				break
			}
		}
		if !parsed {
			return true
		}
	}
	return allToday && len(legs) > 1
}
