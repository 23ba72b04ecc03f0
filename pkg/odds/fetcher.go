package odds

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultFallbackChains maps each primary bookmaker to its ordered alternates.
// Policy data, not control flow: inject a different table via FetcherConfig
// to change fallback behavior.
var DefaultFallbackChains = map[string][]string{
	"draftkings":  {"fanduel", "betmgm", "caesars"},
	"fanduel":     {"draftkings", "betmgm", "caesars"},
	"betmgm":      {"draftkings", "fanduel", "caesars"},
	"caesars":     {"draftkings", "fanduel", "betmgm"},
	"bet365":      {"draftkings", "fanduel", "betmgm"},
	"espnbet":     {"draftkings", "fanduel", "caesars"},
	"betrivers":   {"draftkings", "fanduel", "betmgm"},
	"bovada":      {"draftkings", "fanduel", "betmgm"},
	"pointsbetus": {"draftkings", "fanduel", "betmgm"},
	"williamhill": {"caesars", "draftkings", "fanduel"},
	"betonlineag": {"bovada", "draftkings", "fanduel"},
	"mybookieag":  {"bovada", "draftkings", "fanduel"},
}

// Request describes one odds fetch.
type Request struct {
	Sports        []string // UI sport names, e.g. "NFL"
	BetTypes      []string // "moneyline", "spread", "total", "player_props"
	Bookmaker     string   // primary bookmaker key
	NumLegs       int      // requested parlay legs; drives sufficiency
	DateRangeDays int
}

// FetchResult is the outcome of a fetch, sufficiency resolution included.
type FetchResult struct {
	Games          []Game  `json:"games"`
	Source         string  `json:"source"`
	FallbackUsed   bool    `json:"fallback_used"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
	DataQuality    float64 `json:"data_quality"` // % of games with >=2 markets
	Warning        string  `json:"warning,omitempty"`
}

// FetcherConfig configures the fetcher.
type FetcherConfig struct {
	// FallbackChains overrides DefaultFallbackChains when non-nil.
	FallbackChains map[string][]string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Fetcher resolves a Request against a primary bookmaker and, when the
// primary comes back insufficient or errors, a fixed chain of alternates.
type Fetcher struct {
	provider Provider
	chains   map[string][]string
	now      func() time.Time
}

// NewFetcher creates a fetcher over the given provider.
func NewFetcher(provider Provider, config *FetcherConfig) *Fetcher {
	f := &Fetcher{
		provider: provider,
		chains:   DefaultFallbackChains,
		now:      time.Now,
	}
	if config != nil {
		if config.FallbackChains != nil {
			f.chains = config.FallbackChains
		}
		if config.Now != nil {
			f.now = config.Now
		}
	}
	return f
}

// Fetch queries the primary bookmaker, checks sufficiency, and walks the
// fallback chain if needed. Insufficient data after the full chain is a
// warning, not an error; only total upstream failure is fatal.
func (f *Fetcher) Fetch(ctx context.Context, req *Request) (*FetchResult, error) {
	window := ComputeWindow(req.DateRangeDays, f.now())
	primary := strings.ToLower(req.Bookmaker)

	games, primaryErr := f.queryAll(ctx, primary, req, window)
	if primaryErr == nil && sufficient(games, req.NumLegs) {
		return &FetchResult{
			Games:       games,
			Source:      primary,
			DataQuality: dataQuality(games),
		}, nil
	}

	reason := insufficiencyReason(games, req.NumLegs, primaryErr)

	merged := games
	var lastErr error
	allFailed := primaryErr != nil

	// Bookmakers that actually contributed games, in query order.
	var sources []string
	if primaryErr == nil && len(games) > 0 {
		sources = append(sources, primary)
	}

	for _, alt := range f.chains[primary] {
		altGames, err := f.queryAll(ctx, alt, req, window)
		if err != nil {
			lastErr = err
			continue
		}
		allFailed = false
		before := len(merged)
		merged = mergeGames(merged, altGames)
		if len(merged) > before {
			sources = append(sources, alt)
		}
		if sufficient(merged, req.NumLegs) {
			return &FetchResult{
				Games:          merged,
				Source:         alt,
				FallbackUsed:   true,
				FallbackReason: reason,
				DataQuality:    dataQuality(merged),
			}, nil
		}
	}

	if allFailed {
		return nil, fmt.Errorf("odds unavailable from %s and all fallbacks: %w", primary, firstErr(primaryErr, lastErr))
	}

	// Best effort: the chain was attempted but never reached sufficiency.
	// Source names every bookmaker that contributed, not just the primary,
	// which may have errored or returned nothing.
	source := strings.Join(sources, ",")
	if source == "" {
		source = primary
	}
	return &FetchResult{
		Games:        merged,
		Source:       source,
		FallbackUsed: false,
		DataQuality:  dataQuality(merged),
		Warning: fmt.Sprintf("insufficient data after fallback chain: %d games for %d requested legs",
			len(merged), req.NumLegs),
	}, nil
}

// queryAll fetches every requested sport for one bookmaker and concatenates
// the results. A sport that errors fails the whole bookmaker query.
func (f *Fetcher) queryAll(ctx context.Context, bookmaker string, req *Request, window TimeWindow) ([]Game, error) {
	var all []Game
	for _, sport := range req.Sports {
		slug := SportSlug(sport)
		keys := MarketKeys(req.BetTypes, slug)
		games, err := f.provider.Query(ctx, bookmaker, slug, keys, window)
		if err != nil {
			return nil, fmt.Errorf("query %s/%s: %w", bookmaker, slug, err)
		}
		all = append(all, games...)
	}
	return all, nil
}

// sufficient applies the data-sufficiency policy: enough games overall and
// enough games that actually carry markets to fill the requested legs.
func sufficient(games []Game, numLegs int) bool {
	if len(games) < numLegs {
		return false
	}
	withMarkets := 0
	for i := range games {
		if games[i].HasMarkets() {
			withMarkets++
		}
	}
	return withMarkets >= numLegs
}

// mergeGames merges alternate-bookmaker games into the collected set,
// de-duplicated by game ID. Earlier (primary) data wins on conflict.
func mergeGames(existing, incoming []Game) []Game {
	seen := make(map[string]bool, len(existing))
	for i := range existing {
		seen[existing[i].ID] = true
	}
	merged := existing
	for i := range incoming {
		if !seen[incoming[i].ID] {
			seen[incoming[i].ID] = true
			merged = append(merged, incoming[i])
		}
	}
	return merged
}

// dataQuality is the percentage of games carrying at least 2 markets on
// their first bookmaker slot. Zero for an empty set.
func dataQuality(games []Game) float64 {
	if len(games) == 0 {
		return 0
	}
	rich := 0
	for i := range games {
		if len(games[i].Bookmakers) > 0 && len(games[i].Bookmakers[0].Markets) >= 2 {
			rich++
		}
	}
	return float64(rich) / float64(len(games)) * 100
}

func insufficiencyReason(games []Game, numLegs int, err error) string {
	if err != nil {
		return fmt.Sprintf("primary query failed: %v", err)
	}
	return fmt.Sprintf("primary returned %d games for %d requested legs", len(games), numLegs)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
