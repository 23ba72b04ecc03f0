package content

import (
	"strings"
	"testing"
)

const sampleParlay = `🎯 MAIN PARLAY (3 legs)

1. 📅 Jan 15
Game: Philadelphia Eagles @ Dallas Cowboys
Bet: Eagles -7
Odds: -110
Confidence: 8
Reasoning: Short week for Dallas.

2. 📅 Jan 15
Game: Buffalo Bills @ Miami Dolphins
Bet: Over 47.5
Odds: -110
Confidence: 7
Reasoning: Both offenses healthy.

3. 📅 Jan 16
Game: Kansas City Chiefs @ Denver Broncos
Bet: Chiefs ML
Odds: EV
Confidence: 9
Reasoning: Travel advantage.

**Combined Odds:** +999
**Payout on $100:** $9999

---

🔒 BONUS LOCK PARLAY (2 legs)

1. 📅 Jan 15
Game: Boston Celtics @ New York Knicks
Bet: Celtics -4.5
Odds: -120
Confidence: 9
Reasoning: Rest edge.

2. 📅 Jan 15
Game: Golden State Warriors @ Los Angeles Lakers
Bet: Under 228.5
Odds: +100
Confidence: 8
Reasoning: Slow pace matchup.

**Combined Odds:** -500
**Payout on $100:** $1

Why these are locks: strong recent form on both.
`

func TestCorrect_RewritesFooters(t *testing.T) {
	out := Correct(sampleParlay)

	// Main section: -110, -110, EV(+100) -> 1.909^2 * 2 = 7.289 -> +629, $629.
	if !strings.Contains(out, "**Combined Odds:** +629") {
		t.Errorf("main combined odds not corrected:\n%s", out)
	}
	if !strings.Contains(out, "**Payout on $100:** $629") {
		t.Errorf("main payout not corrected:\n%s", out)
	}

	// Lock section: -120, +100 -> 1.8333 * 2 = 3.6667 -> +267, $267.
	if !strings.Contains(out, "**Combined Odds:** +267") {
		t.Errorf("lock combined odds not corrected:\n%s", out)
	}
	if !strings.Contains(out, "**Payout on $100:** $267") {
		t.Errorf("lock payout not corrected:\n%s", out)
	}

	// Generator-authored values are gone.
	for _, stale := range []string{"+999", "$9999", "-500", "$1\n"} {
		if strings.Contains(out, stale) {
			t.Errorf("stale generator value %q survived correction", stale)
		}
	}
}

func TestCorrect_Idempotent(t *testing.T) {
	once := Correct(sampleParlay)
	twice := Correct(once)
	if once != twice {
		t.Error("correcting already-corrected text changed it")
	}
}

func TestCorrect_UnparsableOddsLineLeftAlone(t *testing.T) {
	text := `🎯 MAIN PARLAY (2 legs)

1. 📅 Jan 15
Game: A @ B
Bet: B -3
Odds: not-a-number
Confidence: 6
Reasoning: x

2. 📅 Jan 15
Game: C @ D
Bet: Over 40
Odds: -110
Confidence: 6
Reasoning: y

**Combined Odds:** +111
**Payout on $100:** $111
`
	out := Correct(text)
	if !strings.Contains(out, "Odds: not-a-number") {
		t.Error("unparsable odds line should be left unmodified")
	}
	// Footer computed from the one parsable leg.
	if !strings.Contains(out, "**Combined Odds:** -110") {
		t.Errorf("footer should be computed from remaining legs:\n%s", out)
	}
}

func TestCorrect_NoSectionNoRewrite(t *testing.T) {
	text := "**Combined Odds:** +999\n**Payout on $100:** $9999\n"
	if Correct(text) != text {
		t.Error("footers outside a section must not be rewritten")
	}
}

func TestCountLegs(t *testing.T) {
	// Only main-section legs count; the bonus section restarts numbering.
	if n := CountLegs(sampleParlay); n != 3 {
		t.Errorf("CountLegs = %d, want 3", n)
	}
	if n := CountLegs("no legs here"); n != 0 {
		t.Errorf("CountLegs = %d, want 0", n)
	}
	headerless := "1. 📅 Jan 15\nGame: A @ B\n2. 📅 Jan 15\nGame: C @ D\n"
	if n := CountLegs(headerless); n != 2 {
		t.Errorf("CountLegs headerless = %d, want 2", n)
	}
}
