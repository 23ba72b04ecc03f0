package content

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vinnybarbs/craycray-parlay/pkg/oddsmath"
)

// footerStake is the fixed stake quoted by the payout footer.
var footerStake = decimal.NewFromInt(100)

// Correct rewrites the "Combined Odds" and "Payout on $100" footer lines of
// each parlay section from the raw leg odds, discarding whatever the
// generator computed. Single forward pass; idempotent.
func Correct(text string) string {
	lines := strings.Split(text, "\n")

	inSection := false
	var accum []string // normalized American odds for the current section

	for i, line := range lines {
		switch {
		case isSectionHeader(line):
			inSection = true
			accum = nil

		case isSectionEnd(line):
			inSection = false

		case !inSection:
			// Footer lines outside a recognized section are left alone.

		case strings.HasPrefix(strings.TrimSpace(line), CombinedOddsPrefix):
			if combined := combine(accum); combined != nil {
				lines[i] = CombinedOddsPrefix + " " + combined.American
			}

		case strings.HasPrefix(strings.TrimSpace(line), PayoutPrefix):
			if combined := combine(accum); combined != nil {
				lines[i] = PayoutPrefix + " $" + combined.Payout.String()
			}

		default:
			if m := oddsLineRe.FindStringSubmatch(line); m != nil {
				norm, err := oddsmath.NormalizeAmerican(m[1])
				if err != nil {
					// Unparsable odds token: leave the line alone and keep going.
					continue
				}
				accum = append(accum, norm)
			}
		}
	}

	return strings.Join(lines, "\n")
}

// combine folds the accumulated leg odds, or returns nil when there is
// nothing to compute from.
func combine(accum []string) *oddsmath.Combined {
	if len(accum) == 0 {
		return nil
	}
	combined, err := oddsmath.CombineParlay(accum, footerStake)
	if err != nil {
		return nil
	}
	return combined
}
