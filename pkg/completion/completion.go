package completion

import (
	"context"
	"fmt"
	"math"

	"github.com/go-go-golems/brainstorm/pkg/conversation"
)

// GreedyTemperature is the lowest temperature that still reaches the API.
// go-openai drops a zero temperature from the request, which the API then
// reads as its default of 1.
const GreedyTemperature = math.SmallestNonzeroFloat32

// Options are the sampling parameters of a single request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Client is a stateless request/response wrapper around a generation
// endpoint.
type Client interface {
	// Complete sends prompt as a single user message.
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	// Chat sends system followed by history, whose roles alternate
	// beginning with starter, and returns the newest generated text.
	Chat(ctx context.Context, history []string, system string, starter conversation.Role, opts Options) (string, error)
}

// GenerationError wraps any failure of the remote service.
type GenerationError struct {
	Op         string
	Model      string
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation failed (%s, model %s, status %d): %v", e.Op, e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation failed (%s, model %s): %v", e.Op, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
