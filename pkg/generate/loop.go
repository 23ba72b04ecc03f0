package generate

import (
	"context"
	"fmt"

	"github.com/vinnybarbs/craycray-parlay/pkg/content"
	"github.com/vinnybarbs/craycray-parlay/pkg/odds"
)

// DefaultMaxAttempts bounds the retry loop.
const DefaultMaxAttempts = 3

// State is a terminal state of the generation loop.
type State string

const (
	// StateSatisfied means an attempt produced the requested leg count.
	StateSatisfied State = "satisfied"
	// StateExhausted means the retry budget ran out; the last text is kept
	// as best effort.
	StateExhausted State = "exhausted"
)

// Outcome is the result of running the loop to a terminal state.
type Outcome struct {
	Text     string `json:"text"`
	State    State  `json:"state"`
	Attempts int    `json:"attempts"`
	LegCount int    `json:"leg_count"` // legs counted in the final text
}

// Loop drives the text generator until the produced leg count matches the
// request or the attempt budget is exhausted. Attempts are strictly
// sequential: each attempt's prompt depends on the previous attempt's
// observed defect.
type Loop struct {
	generator   TextGenerator
	maxAttempts int
}

// NewLoop creates a generation loop. maxAttempts <= 0 selects the default.
func NewLoop(generator TextGenerator, maxAttempts int) *Loop {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Loop{generator: generator, maxAttempts: maxAttempts}
}

// Run executes attempts until Satisfied or Exhausted. A generator error is a
// different failure class than a count mismatch: it is not retried here and
// propagates to the caller.
func (l *Loop) Run(ctx context.Context, req *Request, games []odds.Game) (*Outcome, error) {
	attempt := req
	if attempt.Attempt == 0 {
		next := *req
		next.Attempt = 1
		attempt = &next
	}

	var lastText string
	var lastCount int

	for n := 1; n <= l.maxAttempts; n++ {
		prompt := BuildPrompt(attempt, games)

		text, err := l.generator.Generate(ctx, prompt, attempt.Model)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: %w", n, err)
		}

		lastText = text
		lastCount = content.CountLegs(text)

		if lastCount == req.NumLegs {
			return &Outcome{Text: text, State: StateSatisfied, Attempts: n, LegCount: lastCount}, nil
		}

		if n < l.maxAttempts {
			attempt = attempt.WithFeedback(fmt.Sprintf(
				"The main parlay contained %d legs but exactly %d were requested.",
				lastCount, req.NumLegs))
		}
	}

	return &Outcome{Text: lastText, State: StateExhausted, Attempts: l.maxAttempts, LegCount: lastCount}, nil
}
