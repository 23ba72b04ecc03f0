package research

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vinnybarbs/craycray-parlay/pkg/odds"
)

const (
	defaultMaxTargets = 25
	defaultBatchSize  = 5
)

// target pairs a game index with its computed priority score. The score is
// derived per request and never stored.
type target struct {
	index int
	score int
}

// EnricherConfig configures the enricher.
type EnricherConfig struct {
	MaxTargets int // games researched per request
	BatchSize  int // concurrent search calls per batch
	Now        func() time.Time
}

// Enricher annotates the highest-priority games with research text.
type Enricher struct {
	searcher   Searcher
	maxTargets int
	batchSize  int
	now        func() time.Time
}

// NewEnricher creates an enricher over the given searcher.
func NewEnricher(searcher Searcher, config *EnricherConfig) *Enricher {
	e := &Enricher{
		searcher:   searcher,
		maxTargets: defaultMaxTargets,
		batchSize:  defaultBatchSize,
		now:        time.Now,
	}
	if config != nil {
		if config.MaxTargets > 0 {
			e.maxTargets = config.MaxTargets
		}
		if config.BatchSize > 0 {
			e.batchSize = config.BatchSize
		}
		if config.Now != nil {
			e.now = config.Now
		}
	}
	return e
}

// Enrich returns the same games with Research annotations on the selected
// subset. Games outside the top targets, or without markets, get a nil
// annotation and no network call. A failed lookup degrades that one game to
// nil; it never aborts the batch or the pipeline.
func (e *Enricher) Enrich(ctx context.Context, games []odds.Game) []odds.Game {
	out := make([]odds.Game, len(games))
	copy(out, games)

	targets := e.selectTargets(out)

	for start := 0; start < len(targets); start += e.batchSize {
		end := start + e.batchSize
		if end > len(targets) {
			end = len(targets)
		}
		e.runBatch(ctx, out, targets[start:end])
	}

	return out
}

// selectTargets scores games with markets and returns the top subset,
// highest priority first.
func (e *Enricher) selectTargets(games []odds.Game) []target {
	now := e.now()

	var targets []target
	for i := range games {
		if !games[i].HasMarkets() {
			continue
		}
		targets = append(targets, target{index: i, score: PriorityScore(&games[i], now)})
	}

	sort.SliceStable(targets, func(a, b int) bool {
		return targets[a].score > targets[b].score
	})

	if len(targets) > e.maxTargets {
		targets = targets[:e.maxTargets]
	}
	return targets
}

// PriorityScore ranks a game by start-time urgency plus market richness:
// +50 inside 6h, +30 inside 24h, +10 inside 48h, plus 5 per market.
func PriorityScore(g *odds.Game, now time.Time) int {
	score := 0
	until := g.CommenceTime.Sub(now)
	switch {
	case until < 6*time.Hour:
		score += 50
	case until < 24*time.Hour:
		score += 30
	case until < 48*time.Hour:
		score += 10
	}
	return score + 5*g.MarketCount()
}

// runBatch fans out one search per target and waits for the whole batch.
func (e *Enricher) runBatch(ctx context.Context, games []odds.Game, batch []target) {
	var wg sync.WaitGroup
	for _, tgt := range batch {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			games[idx].Research = e.lookup(ctx, &games[idx])
		}(tgt.index)
	}
	wg.Wait()
}

// lookup runs one search and synthesizes the annotation. Any failure yields
// nil for this game only.
func (e *Enricher) lookup(ctx context.Context, g *odds.Game) *string {
	query := buildQuery(g)
	resp, err := e.searcher.Search(ctx, query)
	if err != nil || resp == nil {
		return nil
	}
	note := Synthesize(resp)
	if note == "" {
		return nil
	}
	return &note
}

// buildQuery forms the search query from normalized team names.
func buildQuery(g *odds.Game) string {
	return fmt.Sprintf("%s vs %s injury report news betting",
		NormalizeTeam(g.AwayTeam), NormalizeTeam(g.HomeTeam))
}
