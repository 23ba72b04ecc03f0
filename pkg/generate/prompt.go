package generate

import (
	"fmt"
	"strings"

	"github.com/vinnybarbs/craycray-parlay/pkg/odds"
)

// Request carries the parameters for one generation attempt. Immutable per
// attempt: a retry produces a new variant via WithFeedback.
type Request struct {
	Sports        []string
	BetTypes      []string
	NumLegs       int
	RiskLevel     string // "safe", "balanced", "degen"
	Bookmaker     string
	Model         string
	DateRangeDays int

	Attempt  int    // 1-based
	Feedback string // accumulated correction instructions from prior attempts
}

// WithFeedback returns the request for the next attempt, carrying the new
// feedback forward.
func (r *Request) WithFeedback(feedback string) *Request {
	next := *r
	next.Attempt = r.Attempt + 1
	if next.Feedback != "" {
		next.Feedback += "\n"
	}
	next.Feedback += feedback
	return &next
}

// confidenceBounds maps risk tiers to the confidence range legs must carry.
func confidenceBounds(riskLevel string) (int, int) {
	switch strings.ToLower(riskLevel) {
	case "safe":
		return 7, 10
	case "degen":
		return 1, 10
	default: // balanced
		return 5, 10
	}
}

// conflictRules is the enumerated rule set the generator must follow. Kept
// in sync with the validator's conflict detection.
var conflictRules = []string{
	"Never combine a moneyline and a spread on the same team.",
	"Never take opposing moneylines or spreads on the two teams in one game.",
	"Never take both the Over and the Under on the same total.",
	"Never take both the Over and the Under on the same player prop.",
	"Never repeat the exact same leg twice.",
}

// BuildPrompt renders the instruction set for one attempt. Pure function of
// its inputs: no network, no I/O, no clock.
func BuildPrompt(req *Request, games []odds.Game) string {
	lo, hi := confidenceBounds(req.RiskLevel)

	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert sports betting analyst building a %d-leg parlay.\n\n", req.NumLegs)
	fmt.Fprintf(&b, "THE MAIN PARLAY MUST CONTAIN EXACTLY %d LEGS. Not %d, not %d, exactly %d.\n\n",
		req.NumLegs, req.NumLegs-1, req.NumLegs+1, req.NumLegs)

	fmt.Fprintf(&b, "Risk profile: %s. Every leg's confidence must be between %d and %d.\n", req.RiskLevel, lo, hi)
	fmt.Fprintf(&b, "Allowed bet types: %s.\n\n", strings.Join(req.BetTypes, ", "))

	b.WriteString("Conflict rules. Violating any of these invalidates the parlay:\n")
	for i, rule := range conflictRules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}
	b.WriteString("Multiple non-opposing bets from the same game are allowed.\n\n")

	b.WriteString("Available games and odds:\n\n")
	writeGameDigest(&b, games)

	b.WriteString("\nOutput format, follow it exactly:\n\n")
	fmt.Fprintf(&b, "🎯 MAIN PARLAY (%d legs)\n\n", req.NumLegs)
	b.WriteString("1. 📅 <game date, e.g. Jan 15>\n")
	b.WriteString("Game: <Away Team> @ <Home Team>\n")
	b.WriteString("Bet: <selection>\n")
	b.WriteString("Odds: <American odds, always signed, e.g. -110 or +145>\n")
	fmt.Fprintf(&b, "Confidence: <%d-%d>\n", lo, hi)
	b.WriteString("Reasoning: <one or two sentences>\n\n")
	fmt.Fprintf(&b, "(continue numbering through %d)\n\n", req.NumLegs)
	b.WriteString("**Combined Odds:** <combined American odds>\n")
	b.WriteString("**Payout on $100:** $<net profit>\n\n")
	b.WriteString("---\n\n")
	b.WriteString("🔒 BONUS LOCK PARLAY (2 legs)\n\n")
	b.WriteString("(two highest-confidence legs in the same per-leg format, then the same two footer lines)\n\n")
	b.WriteString("Why these are locks: <short justification>\n")

	if req.Attempt > 1 && req.Feedback != "" {
		fmt.Fprintf(&b, "\nTHIS IS ATTEMPT %d. Your previous attempt was rejected:\n%s\n", req.Attempt, req.Feedback)
		fmt.Fprintf(&b, "Correct these problems. The main parlay must contain exactly %d legs.\n", req.NumLegs)
	}

	return b.String()
}

// writeGameDigest renders each game's date, matchup, markets, and research
// annotation for the generator to pick from.
func writeGameDigest(b *strings.Builder, games []odds.Game) {
	for i := range games {
		g := &games[i]
		fmt.Fprintf(b, "%s: %s\n", g.CommenceTime.Format("Jan 2"), g.Matchup())

		for _, bk := range g.Bookmakers {
			for _, m := range bk.Markets {
				var parts []string
				for _, o := range m.Outcomes {
					label := o.Name
					if o.Description != "" {
						label = o.Description + " " + o.Name
					}
					if o.Point != nil {
						parts = append(parts, fmt.Sprintf("%s %g %s", label, *o.Point, o.AmericanString()))
					} else {
						parts = append(parts, fmt.Sprintf("%s %s", label, o.AmericanString()))
					}
				}
				fmt.Fprintf(b, "  %s: %s\n", m.Key, strings.Join(parts, " | "))
			}
		}

		if g.Research != nil {
			fmt.Fprintf(b, "  research: %s\n", *g.Research)
		}
		b.WriteString("\n")
	}
}
