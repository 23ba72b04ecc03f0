package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vinnybarbs/craycray-parlay/pkg/odds"
)

// fakeSearcher records queries and serves canned or failing responses.
type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	failFor string // substring that triggers a failure
	resp    *SearchResponse

	maxInFlight int
	inFlight    int
}

func (s *fakeSearcher) Search(ctx context.Context, query string) (*SearchResponse, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	time.Sleep(time.Millisecond)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	if s.failFor != "" && strings.Contains(query, s.failFor) {
		return nil, errors.New("search down")
	}
	if s.resp != nil {
		return s.resp, nil
	}
	return &SearchResponse{Organic: []OrganicResult{{Title: "t", Snippet: "key player questionable for sunday"}}}, nil
}

func gameStarting(in time.Duration, markets int, name string) odds.Game {
	ms := make([]odds.Market, markets)
	for i := range ms {
		ms[i] = odds.Market{Key: "h2h"}
	}
	return odds.Game{
		ID:           name,
		HomeTeam:     name + " Home",
		AwayTeam:     name + " Away",
		CommenceTime: time.Now().Add(in),
		Bookmakers:   []odds.Bookmaker{{Key: "draftkings", Markets: ms}},
	}
}

func TestPriorityScore_UrgencyBeatsRichness(t *testing.T) {
	now := time.Now()
	soon := gameStarting(3*time.Hour, 1, "soon")
	late := gameStarting(72*time.Hour, 4, "late")

	soonScore := PriorityScore(&soon, now)
	lateScore := PriorityScore(&late, now)
	if soonScore != 55 {
		t.Errorf("soon score = %d, want 55", soonScore)
	}
	if lateScore != 20 {
		t.Errorf("late score = %d, want 20", lateScore)
	}
	if soonScore <= lateScore {
		t.Error("a game 3h out with 1 market must outrank one 72h out with 4 markets")
	}
}

func TestEnrich_TopTargetsOnly(t *testing.T) {
	s := &fakeSearcher{}
	e := NewEnricher(s, &EnricherConfig{MaxTargets: 3, BatchSize: 2})

	games := []odds.Game{
		gameStarting(3*time.Hour, 2, "a"),
		gameStarting(4*time.Hour, 2, "b"),
		gameStarting(5*time.Hour, 2, "c"),
		gameStarting(70*time.Hour, 1, "d"), // below cutoff
		{ID: "nomarkets", CommenceTime: time.Now().Add(time.Hour)},
	}

	out := e.Enrich(context.Background(), games)

	if len(s.queries) != 3 {
		t.Errorf("made %d search calls, want 3", len(s.queries))
	}
	for _, g := range out {
		switch g.ID {
		case "a", "b", "c":
			if g.Research == nil {
				t.Errorf("game %s should be annotated", g.ID)
			}
		default:
			if g.Research != nil {
				t.Errorf("game %s should not be annotated", g.ID)
			}
		}
	}
}

func TestEnrich_FailureIsolatedToOneGame(t *testing.T) {
	s := &fakeSearcher{failFor: "b away"}
	e := NewEnricher(s, &EnricherConfig{MaxTargets: 5, BatchSize: 2})

	games := []odds.Game{
		gameStarting(3*time.Hour, 2, "a"),
		gameStarting(3*time.Hour, 2, "b"),
		gameStarting(3*time.Hour, 2, "c"),
	}

	out := e.Enrich(context.Background(), games)

	for _, g := range out {
		if g.ID == "b" {
			if g.Research != nil {
				t.Error("failed lookup should degrade to nil annotation")
			}
			continue
		}
		if g.Research == nil {
			t.Errorf("game %s should still be annotated after a sibling failure", g.ID)
		}
	}
}

func TestEnrich_BoundedConcurrency(t *testing.T) {
	s := &fakeSearcher{}
	e := NewEnricher(s, &EnricherConfig{BatchSize: 5})

	games := make([]odds.Game, 20)
	for i := range games {
		games[i] = gameStarting(3*time.Hour, 2, fmt.Sprintf("g%02d", i))
	}

	e.Enrich(context.Background(), games)

	if s.maxInFlight > 5 {
		t.Errorf("max in-flight searches = %d, want <= 5", s.maxInFlight)
	}
	if len(s.queries) != 20 {
		t.Errorf("made %d calls, want 20", len(s.queries))
	}
}

func TestEnrich_DoesNotMutateInput(t *testing.T) {
	s := &fakeSearcher{}
	e := NewEnricher(s, nil)

	games := []odds.Game{gameStarting(3*time.Hour, 2, "a")}
	e.Enrich(context.Background(), games)

	if games[0].Research != nil {
		t.Error("input slice should not be annotated in place")
	}
}

func TestSynthesize(t *testing.T) {
	resp := &SearchResponse{Organic: []OrganicResult{
		{Title: "QB questionable with ankle injury", Snippet: "Starting QB is questionable; wind gusts expected."},
		{Title: "Line movement report", Snippet: "The line moved two points toward the home side."},
	}}

	note := Synthesize(resp)
	for _, want := range []string{"injury concerns", "questionable status", "wind factor", "line movement"} {
		if !strings.Contains(note, want) {
			t.Errorf("note missing %q:\n%s", want, note)
		}
	}
	if !strings.Contains(note, "two points") {
		t.Error("note should carry top snippets")
	}

	if Synthesize(&SearchResponse{}) != "" {
		t.Error("empty payload should synthesize to empty")
	}

	long := &SearchResponse{Organic: []OrganicResult{{Snippet: strings.Repeat("x", 2000)}}}
	if n := Synthesize(long); len(n) > 600 {
		t.Errorf("note length %d exceeds budget", len(n))
	}
}

func TestNormalizeTeam(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Montréal   Canadiens ", "montreal canadiens"},
		{"Atlético Madrid", "atletico madrid"},
		{"Dallas Cowboys", "dallas cowboys"},
	}
	for _, tt := range tests {
		if got := NormalizeTeam(tt.in); got != tt.want {
			t.Errorf("NormalizeTeam(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
