// Package odds fetches live sportsbook odds with a deterministic bookmaker
// fallback chain and a data-sufficiency policy.
package odds

import (
	"fmt"
	"time"
)

// Game is one upcoming event with its bookmaker odds. Games are ephemeral:
// they exist only for the duration of a single generation request.
type Game struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`

	// Research is a free-text annotation added by the research enricher.
	// Nil when no research was gathered for this game.
	Research *string `json:"research,omitempty"`
}

// Bookmaker is one venue's markets for a game.
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Market is a single bet market (h2h, spreads, totals, player props).
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one side of a market.
type Outcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"` // American odds
	Point *float64 `json:"point,omitempty"`
	// Description carries the player name for prop markets.
	Description string `json:"description,omitempty"`
}

// AmericanString renders the price as a signed American odds token.
func (o Outcome) AmericanString() string {
	if o.Price >= 0 {
		return fmt.Sprintf("+%d", o.Price)
	}
	return fmt.Sprintf("%d", o.Price)
}

// MarketCount returns the number of markets across all bookmaker slots.
func (g *Game) MarketCount() int {
	n := 0
	for _, bk := range g.Bookmakers {
		n += len(bk.Markets)
	}
	return n
}

// HasMarkets reports whether any bookmaker slot carries at least one market.
func (g *Game) HasMarkets() bool {
	return g.MarketCount() > 0
}

// Matchup renders the conventional "Away @ Home" label for the game.
func (g *Game) Matchup() string {
	return g.AwayTeam + " @ " + g.HomeTeam
}

// TimeWindow bounds the game start times a query should return.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ComputeWindow derives the fetch window for a request of the given day span.
// For a 1-day request the end is 05:59:59 on the following calendar day: the
// overrun tolerates timezone skew in provider start times. Known limitation,
// not intentional design; a venue-local date window would replace it.
func ComputeWindow(days int, now time.Time) TimeWindow {
	if days <= 1 {
		next := now.AddDate(0, 0, 1)
		end := time.Date(next.Year(), next.Month(), next.Day(), 5, 59, 59, 0, now.Location())
		return TimeWindow{Start: now, End: end}
	}
	return TimeWindow{Start: now, End: now.Add(time.Duration(days) * 24 * time.Hour)}
}
