package brainstorm

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/go-go-golems/brainstorm/pkg/completion"
	"github.com/rs/zerolog/log"
)

// StopPolicy decides after each round whether the last reply ended the debate.
type StopPolicy interface {
	ShouldStop(ctx context.Context, reply string) (bool, error)
}

// LengthStopPolicy treats a reply shorter than MinChars characters as a
// concluding remark. It misfires on short critiques and on long-winded
// conclusions.
type LengthStopPolicy struct {
	MinChars int
}

var _ StopPolicy = LengthStopPolicy{}

func (l LengthStopPolicy) ShouldStop(_ context.Context, reply string) (bool, error) {
	return utf8.RuneCountInString(reply) < l.MinChars, nil
}

// ConvergencePolicy asks the model whether a reply is a concluding remark
// when the length heuristic did not already stop the debate.
type ConvergencePolicy struct {
	Client   completion.Client
	Options  completion.Options
	Fallback StopPolicy
}

var _ StopPolicy = (*ConvergencePolicy)(nil)

func NewConvergencePolicy(client completion.Client, opts completion.Options, minChars int) *ConvergencePolicy {
	opts.MaxTokens = 3
	opts.Temperature = completion.GreedyTemperature
	return &ConvergencePolicy{
		Client:   client,
		Options:  opts,
		Fallback: LengthStopPolicy{MinChars: minChars},
	}
}

func (c *ConvergencePolicy) ShouldStop(ctx context.Context, reply string) (bool, error) {
	if c.Fallback != nil {
		stop, err := c.Fallback.ShouldStop(ctx, reply)
		if err != nil || stop {
			return stop, err
		}
	}

	prompt, err := ConvergencePrompt(reply)
	if err != nil {
		return false, err
	}
	answer, err := c.Client.Complete(ctx, prompt, c.Options)
	if err != nil {
		return false, err
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	log.Debug().Str("answer", answer).Msg("convergence check")
	return strings.HasPrefix(answer, "yes"), nil
}
