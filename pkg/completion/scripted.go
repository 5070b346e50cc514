package completion

import (
	"context"
	"sync"

	"github.com/go-go-golems/brainstorm/pkg/conversation"
)

// Call records one request made to a ScriptedClient.
type Call struct {
	Op      string
	Prompt  string
	History []string
	System  string
	Starter conversation.Role
	Options Options
}

// ScriptedClient replays canned responses in order, wrapping around at the
// end. Errors, if set, are returned instead of the response at the same
// position.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []string
	errors    map[int]error
	index     int
	calls     []Call
}

var _ Client = (*ScriptedClient)(nil)

func NewScriptedClient(responses ...string) *ScriptedClient {
	return &ScriptedClient{
		responses: responses,
		errors:    map[int]error{},
	}
}

// FailAt makes the n-th call (0-based) return err.
func (s *ScriptedClient) FailAt(n int, err error) *ScriptedClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[n] = err
	return s
}

func (s *ScriptedClient) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]Call, len(s.calls))
	copy(ret, s.calls)
	return ret
}

func (s *ScriptedClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return s.next(ctx, Call{Op: "complete", Prompt: prompt, Options: opts})
}

func (s *ScriptedClient) Chat(
	ctx context.Context,
	history []string,
	system string,
	starter conversation.Role,
	opts Options,
) (string, error) {
	h := make([]string, len(history))
	copy(h, history)
	return s.next(ctx, Call{Op: "chat", History: h, System: system, Starter: starter, Options: opts})
}

func (s *ScriptedClient) next(ctx context.Context, call Call) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.calls)
	s.calls = append(s.calls, call)

	if err := ctx.Err(); err != nil {
		return "", &GenerationError{Op: call.Op, Model: call.Options.Model, Err: err}
	}
	if err, ok := s.errors[n]; ok {
		return "", &GenerationError{Op: call.Op, Model: call.Options.Model, Err: err}
	}
	if len(s.responses) == 0 {
		return "", nil
	}
	ret := s.responses[s.index%len(s.responses)]
	s.index++
	return ret, nil
}
