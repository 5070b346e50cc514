package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/pkg/errors"
)

// EchoClient never leaves the process. It answers completions with the last
// line of the prompt and chat turns with a short acknowledgement, which ends
// a debate after one round. Used for dry runs.
type EchoClient struct{}

var _ Client = EchoClient{}

func (EchoClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &GenerationError{Op: "complete", Model: opts.Model, Err: err}
	}
	if opts.MaxTokens <= 0 {
		return "", nil
	}
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	return "[echo] " + lines[len(lines)-1], nil
}

func (EchoClient) Chat(ctx context.Context, history []string, system string, starter conversation.Role, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &GenerationError{Op: "chat", Model: opts.Model, Err: err}
	}
	if len(history) == 0 {
		return "", &GenerationError{Op: "chat", Model: opts.Model, Err: errors.New("empty history")}
	}
	if opts.MaxTokens <= 0 {
		return "", nil
	}
	return fmt.Sprintf("[echo] %s turn %d", conversation.RoleAt(len(history), starter), len(history)), nil
}
