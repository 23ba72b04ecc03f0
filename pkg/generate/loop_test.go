package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// scriptedGenerator replays a fixed sequence of responses and records every
// prompt it was handed.
type scriptedGenerator struct {
	responses []string
	err       error // returned on the attempt matching errAt
	errAt     int
	prompts   []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt, _ string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	n := len(g.prompts)
	if g.err != nil && n == g.errAt {
		return "", g.err
	}
	if n > len(g.responses) {
		return "", fmt.Errorf("unexpected attempt %d", n)
	}
	return g.responses[n-1], nil
}

// parlayText builds canonical generator output with the given main leg count.
func parlayText(legs int) string {
	var b strings.Builder
	b.WriteString("🎯 MAIN PARLAY\n\n")
	for i := 1; i <= legs; i++ {
		fmt.Fprintf(&b, "%d. 📅 Jan 15\n", i)
		b.WriteString("Game: Bills @ Dolphins\n")
		b.WriteString("Bet: Dolphins -3\n")
		b.WriteString("Odds: -110\n")
		b.WriteString("Confidence: 7\n")
		b.WriteString("Reasoning: strong home form\n\n")
	}
	b.WriteString("**Combined Odds:** +100\n")
	b.WriteString("**Payout on $100:** $100\n")
	return b.String()
}

func TestLoop_RetryUntilCountMatches(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		parlayText(4),
		parlayText(5),
		parlayText(5), // must never be reached
	}}
	loop := NewLoop(gen, 3)

	out, err := loop.Run(context.Background(), &Request{NumLegs: 5, RiskLevel: "balanced"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.State != StateSatisfied {
		t.Errorf("State = %q, want %q", out.State, StateSatisfied)
	}
	if out.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", out.Attempts)
	}
	if len(gen.prompts) != 2 {
		t.Fatalf("generator called %d times, want 2", len(gen.prompts))
	}
	if out.LegCount != 5 {
		t.Errorf("LegCount = %d, want 5", out.LegCount)
	}
}

func TestLoop_FirstAttemptSatisfied(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{parlayText(3)}}
	loop := NewLoop(gen, 0) // default budget

	out, err := loop.Run(context.Background(), &Request{NumLegs: 3}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.State != StateSatisfied || out.Attempts != 1 {
		t.Errorf("got state %q after %d attempts, want satisfied after 1", out.State, out.Attempts)
	}
}

func TestLoop_ExhaustedKeepsLastText(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		parlayText(3),
		parlayText(4),
		parlayText(6),
	}}
	loop := NewLoop(gen, 3)

	out, err := loop.Run(context.Background(), &Request{NumLegs: 5}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.State != StateExhausted {
		t.Errorf("State = %q, want %q", out.State, StateExhausted)
	}
	if out.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", out.Attempts)
	}
	// Best effort: the final attempt's text survives even though it is wrong.
	if out.LegCount != 6 {
		t.Errorf("LegCount = %d, want 6", out.LegCount)
	}
	if out.Text != parlayText(6) {
		t.Error("Outcome.Text is not the last attempt's text")
	}
}

func TestLoop_GeneratorErrorNotRetried(t *testing.T) {
	boom := errors.New("model overloaded")
	gen := &scriptedGenerator{err: boom, errAt: 1}
	loop := NewLoop(gen, 3)

	_, err := loop.Run(context.Background(), &Request{NumLegs: 5}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("generator called %d times after a hard error, want 1", len(gen.prompts))
	}
}

func TestLoop_FeedbackReachesNextPrompt(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		parlayText(4),
		parlayText(5),
	}}
	loop := NewLoop(gen, 3)

	if _, err := loop.Run(context.Background(), &Request{NumLegs: 5}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(gen.prompts) != 2 {
		t.Fatalf("generator called %d times, want 2", len(gen.prompts))
	}
	if strings.Contains(gen.prompts[0], "ATTEMPT") {
		t.Error("first prompt should carry no retry feedback")
	}
	second := gen.prompts[1]
	if !strings.Contains(second, "THIS IS ATTEMPT 2") {
		t.Error("second prompt missing the attempt marker")
	}
	if !strings.Contains(second, "contained 4 legs but exactly 5 were requested") {
		t.Errorf("second prompt missing the leg-count defect:\n%s", second)
	}
}
