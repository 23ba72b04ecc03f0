package oddsmath

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		odds    string
		want    float64
		wantErr bool
	}{
		{"+150", 2.5, false},
		{"150", 2.5, false},
		{"-120", 1.833333, false},
		{"-110", 1.909090, false},
		{"+100", 2.0, false},
		{"EV", 2.0, false},
		{"PK", 2.0, false},
		{"even", 2.0, false},
		{"abc", 0, true},
		{"", 0, true},
		{"+1.5x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.odds, func(t *testing.T) {
			got, err := AmericanToDecimal(tt.odds)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("AmericanToDecimal(%q) expected error, got %s", tt.odds, got)
				}
				if !errors.Is(err, ErrInvalidOdds) {
					t.Errorf("error = %v, want ErrInvalidOdds", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AmericanToDecimal(%q) error: %v", tt.odds, err)
			}
			if diff := math.Abs(got.InexactFloat64() - tt.want); diff > 0.0001 {
				t.Errorf("AmericanToDecimal(%q) = %s, want ~%v", tt.odds, got, tt.want)
			}
		})
	}
}

func TestDecimalToAmerican(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2.5, "+150"},
		{2.0, "+100"},
		{1.5, "-200"},
		{1.909091, "-110"},
		{3.6446, "+264"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := DecimalToAmerican(decimal.NewFromFloat(tt.in))
			if got != tt.want {
				t.Errorf("DecimalToAmerican(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

// Decimal odds must always exceed 1 over the full American range.
func TestAmericanToDecimal_AlwaysAboveOne(t *testing.T) {
	check := func(o int) {
		d, err := AmericanToDecimal(strconv.Itoa(o))
		if err != nil {
			t.Fatalf("odds %d: %v", o, err)
		}
		if !d.GreaterThan(decimal.NewFromInt(1)) {
			t.Fatalf("odds %d: decimal %s not > 1", o, d)
		}
	}
	for o := -10000; o <= -101; o++ {
		check(o)
	}
	for o := 100; o <= 10000; o++ {
		check(o)
	}
}

// Round odds (multiples of 5) round-trip exactly; arbitrary odds may drift,
// but never by more than 1.
func TestRoundTripDrift(t *testing.T) {
	// -100 is excluded: it is the same price as +100 and canonicalizes there.
	for o := -2000; o <= 2000; o++ {
		if o > -101 && o < 100 {
			continue
		}
		d, err := AmericanToDecimal(strconv.Itoa(o))
		if err != nil {
			t.Fatalf("odds %d: %v", o, err)
		}
		back, err := strconv.Atoi(DecimalToAmerican(d))
		if err != nil {
			t.Fatalf("odds %d: round-trip parse: %v", o, err)
		}
		drift := back - o
		if drift < 0 {
			drift = -drift
		}
		if o%5 == 0 && drift != 0 {
			t.Errorf("round odds %d round-tripped to %d", o, back)
		}
		if drift > 1 {
			t.Errorf("odds %d round-tripped to %d, drift %d > 1", o, back, drift)
		}
	}
}

func TestCombineParlay(t *testing.T) {
	stake := decimal.NewFromInt(100)

	t.Run("two favorites", func(t *testing.T) {
		got, err := CombineParlay([]string{"-110", "-110"}, stake)
		if err != nil {
			t.Fatal(err)
		}
		if diff := math.Abs(got.Decimal.InexactFloat64() - 3.6446); diff > 0.001 {
			t.Errorf("Decimal = %s, want ~3.6446", got.Decimal)
		}
		if got.American != "+264" {
			t.Errorf("American = %s, want +264", got.American)
		}
		if got.Payout.String() != "264" {
			t.Errorf("Payout = %s, want 264", got.Payout)
		}
	})

	t.Run("single leg identity", func(t *testing.T) {
		got, err := CombineParlay([]string{"+150"}, stake)
		if err != nil {
			t.Fatal(err)
		}
		if got.American != "+150" {
			t.Errorf("American = %s, want +150", got.American)
		}
		if got.Payout.String() != "150" {
			t.Errorf("Payout = %s, want 150", got.Payout)
		}
	})

	t.Run("even money legs", func(t *testing.T) {
		got, err := CombineParlay([]string{"EV", "PK"}, stake)
		if err != nil {
			t.Fatal(err)
		}
		if got.American != "+300" {
			t.Errorf("American = %s, want +300", got.American)
		}
	})

	t.Run("bad leg", func(t *testing.T) {
		if _, err := CombineParlay([]string{"-110", "junk"}, stake); err == nil {
			t.Error("expected error for unparsable leg")
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := CombineParlay(nil, stake); err == nil {
			t.Error("expected error for empty parlay")
		}
	})
}

func TestNormalizeAmerican(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"+105", "+105"},
		{"105", "+105"},
		{"-120", "-120"},
		{"EV", "+100"},
		{"pk", "+100"},
		{" +250 ", "+250"},
	}
	for _, tt := range tests {
		got, err := NormalizeAmerican(tt.in)
		if err != nil {
			t.Errorf("NormalizeAmerican(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeAmerican(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
