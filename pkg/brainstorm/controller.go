package brainstorm

import (
	"context"
	"strings"

	"github.com/go-go-golems/brainstorm/pkg/completion"
	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/go-go-golems/brainstorm/pkg/events"
	"github.com/go-go-golems/brainstorm/pkg/tokens"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type State int

const (
	StateSeeding State = iota
	StateDebating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSeeding:
		return "seeding"
	case StateDebating:
		return "debating"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

const (
	DefaultSeedMaxTokens = 512
	DefaultMinReplyChars = 50
)

// Controller runs the debate between the two agents over a single shared
// transcript.
type Controller struct {
	client  completion.Client
	counter tokens.Counter
	sink    events.EventSink
	stop    StopPolicy

	options       completion.Options
	maxLen        int
	maxRounds     int
	seedMaxTokens int

	sessionID uuid.UUID
	state     State
	rounds    int
}

type ControllerOption func(*Controller)

// WithOptions sets the model and sampling parameters. MaxTokens is ignored,
// the controller sizes every request itself.
func WithOptions(opts completion.Options) ControllerOption {
	return func(c *Controller) {
		c.options = opts
	}
}

func WithSink(sink events.EventSink) ControllerOption {
	return func(c *Controller) {
		c.sink = sink
	}
}

func WithStopPolicy(p StopPolicy) ControllerOption {
	return func(c *Controller) {
		c.stop = p
	}
}

// WithMaxRounds caps the number of debate rounds, 0 means no cap.
func WithMaxRounds(n int) ControllerOption {
	return func(c *Controller) {
		if n >= 0 {
			c.maxRounds = n
		}
	}
}

func WithSessionID(id uuid.UUID) ControllerOption {
	return func(c *Controller) {
		c.sessionID = id
	}
}

// NewController creates a controller with a debate budget of maxLen tokens.
func NewController(client completion.Client, counter tokens.Counter, maxLen int, options ...ControllerOption) *Controller {
	ret := &Controller{
		client:        client,
		counter:       counter,
		sink:          events.NullSink{},
		stop:          LengthStopPolicy{MinChars: DefaultMinReplyChars},
		maxLen:        maxLen,
		seedMaxTokens: DefaultSeedMaxTokens,
		sessionID:     uuid.New(),
		state:         StateSeeding,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (c *Controller) State() State {
	return c.state
}

// Rounds returns the number of completed debate rounds.
func (c *Controller) Rounds() int {
	return c.rounds
}

func (c *Controller) SessionID() uuid.UUID {
	return c.sessionID
}

// Run seeds the transcript if needed and debates until the budget is spent
// or the stop policy ends the conversation. On a generation error during the
// debate the transcript built so far is returned along with the error.
func (c *Controller) Run(ctx context.Context, p conversation.Problem) (*conversation.Transcript, error) {
	seed, err := c.seed(ctx, p)
	if err != nil {
		return nil, err
	}

	t := conversation.NewTranscript(seed)
	defer func() {
		t.Freeze()
		c.setState(StateDone)
	}()

	instruction, err := BrainstormPrompt(p)
	if err != nil {
		return t, err
	}

	c.setState(StateDebating)
	err = c.debate(ctx, t, instruction)
	return t, err
}

func (c *Controller) seed(ctx context.Context, p conversation.Problem) (string, error) {
	if p.Seed != "" {
		return p.Seed, nil
	}

	c.setState(StateSeeding)
	prompt, err := SeedPrompt(p)
	if err != nil {
		return "", err
	}

	opts := c.options
	opts.MaxTokens = c.seedMaxTokens
	seed, err := c.client.Complete(ctx, prompt, opts)
	if err != nil {
		c.publishError(err)
		return "", errors.Wrap(err, "could not generate initial proposal")
	}
	seed = strings.TrimSpace(seed)

	c.publish(events.Event{Type: events.EventTypeSeed, Index: 0, Agent: conversation.AgentLabel(0), Text: seed})
	return seed, nil
}

func (c *Controller) debate(ctx context.Context, t *conversation.Transcript, instruction string) error {
	for {
		used := c.counter.Count(t.Messages())
		if used >= c.maxLen {
			log.Debug().Int("tokens", used).Int("max_len", c.maxLen).Msg("debate budget spent")
			return nil
		}
		if c.maxRounds > 0 && c.rounds >= c.maxRounds {
			log.Debug().Int("rounds", c.rounds).Msg("maximum number of rounds reached")
			return nil
		}

		// both turns of a round share the budget snapshot taken before the first
		remaining := c.maxLen - used

		if _, err := c.turn(ctx, t, instruction, conversation.RoleUser, remaining); err != nil {
			return err
		}
		reply, err := c.turn(ctx, t, instruction, conversation.RoleAssistant, remaining)
		if err != nil {
			return err
		}
		c.rounds++

		stop, err := c.stop.ShouldStop(ctx, reply)
		if err != nil {
			c.publishError(err)
			return errors.Wrap(err, "could not evaluate stop condition")
		}
		if stop {
			log.Debug().Int("rounds", c.rounds).Int("reply_length", len([]rune(reply))).Msg("reply looks like a concluding remark")
			return nil
		}

		if c.counter.Count(t.Messages()) <= used {
			log.Warn().Int("tokens", used).Msg("round did not grow the transcript, stopping")
			return nil
		}
	}
}

func (c *Controller) turn(
	ctx context.Context,
	t *conversation.Transcript,
	instruction string,
	starter conversation.Role,
	remaining int,
) (string, error) {
	index := t.Len()
	agent := actingAgent(starter)

	opts := c.options
	opts.MaxTokens = remaining

	log.Debug().Str("agent", agent).Int("index", index).Int("max_tokens", remaining).Msg("requesting turn")
	reply, err := c.client.Chat(ctx, t.Messages(), instruction, starter, opts)
	if err != nil {
		c.publishError(err)
		return "", errors.Wrapf(err, "%s could not reply", agent)
	}
	reply = strings.TrimSpace(reply)

	if err := t.Append(reply); err != nil {
		return "", err
	}

	c.publish(events.Event{
		Type:   events.EventTypeTurn,
		Index:  index,
		Agent:  agent,
		Text:   reply,
		Tokens: c.counter.Count(t.Messages()),
	})
	return reply, nil
}

// actingAgent names the participant of a turn. Agent 1 replays the history
// starting as user, Agent 2 starting as assistant, so each sees the other's
// turns as its partner's.
func actingAgent(starter conversation.Role) string {
	if starter == conversation.RoleUser {
		return "Agent 1"
	}
	return "Agent 2"
}

func (c *Controller) setState(s State) {
	c.state = s
	c.publish(events.Event{Type: events.EventTypeState, State: s.String()})
}

func (c *Controller) publishError(err error) {
	c.publish(events.Event{Type: events.EventTypeError, Text: err.Error()})
}

func (c *Controller) publish(e events.Event) {
	e.SessionID = c.sessionID
	if err := c.sink.PublishEvent(e); err != nil {
		log.Warn().Err(err).Str("event_type", string(e.Type)).Msg("could not publish event")
	}
}
