// Package oddsmath provides pure conversion and aggregation functions for
// American and decimal betting odds.
package oddsmath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidOdds is returned when a token cannot be parsed as American odds.
var ErrInvalidOdds = errors.New("invalid american odds")

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// NormalizeAmerican canonicalizes an American odds token: even-money tokens
// ("EV", "EVEN", "PK", "PICK") become "+100", and bare positive numbers gain
// an explicit sign. The returned string is always signed.
func NormalizeAmerican(token string) (string, error) {
	s := strings.TrimSpace(token)
	switch strings.ToUpper(s) {
	case "EV", "EVEN", "PK", "PICK", "PICK'EM", "PICKEM":
		return "+100", nil
	}
	s = strings.TrimPrefix(s, "+")
	n, err := strconv.Atoi(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidOdds, token)
	}
	if n >= 0 {
		return fmt.Sprintf("+%d", n), nil
	}
	return strconv.Itoa(n), nil
}

// AmericanToDecimal converts American odds to decimal odds.
// +150 -> 2.5, -120 -> 1.8333..., even-money tokens -> 2.0.
func AmericanToDecimal(odds string) (decimal.Decimal, error) {
	norm, err := NormalizeAmerican(odds)
	if err != nil {
		return decimal.Zero, err
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(norm, "+"), 10, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidOdds, odds)
	}
	if n == 0 {
		return decimal.Zero, fmt.Errorf("%w: zero odds", ErrInvalidOdds)
	}

	d := decimal.NewFromInt(n)
	if n > 0 {
		// odds/100 + 1
		return d.Div(hundred).Add(one), nil
	}
	// 100/|odds| + 1
	return hundred.Div(d.Abs()).Add(one), nil
}

// DecimalToAmerican converts decimal odds back to a signed American odds
// string. Rounding makes this not a true inverse of AmericanToDecimal:
// round-trips may drift by 1 at small magnitudes.
func DecimalToAmerican(d decimal.Decimal) string {
	if d.LessThanOrEqual(one) {
		// Degenerate input; no meaningful American representation.
		return "+100"
	}
	if d.GreaterThanOrEqual(decimal.NewFromInt(2)) {
		return "+" + d.Sub(one).Mul(hundred).Round(0).String()
	}
	return "-" + hundred.Div(d.Sub(one)).Round(0).String()
}

// Combined holds the result of combining parlay legs.
type Combined struct {
	Decimal  decimal.Decimal
	American string
	Payout   decimal.Decimal // net profit on the stake, rounded to whole dollars
}

// CombineParlay multiplies the decimal odds of each leg, converts the product
// back to American odds, and computes the net profit on the given stake.
// The combined odds are always recomputed from the raw leg odds.
func CombineParlay(oddsList []string, stake decimal.Decimal) (*Combined, error) {
	if len(oddsList) == 0 {
		return nil, fmt.Errorf("%w: empty parlay", ErrInvalidOdds)
	}

	combined := one
	for _, o := range oddsList {
		d, err := AmericanToDecimal(o)
		if err != nil {
			return nil, err
		}
		combined = combined.Mul(d)
	}

	return &Combined{
		Decimal:  combined,
		American: DecimalToAmerican(combined),
		Payout:   combined.Sub(one).Mul(stake).Round(0),
	}, nil
}
