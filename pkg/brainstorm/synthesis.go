package brainstorm

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-go-golems/brainstorm/pkg/completion"
	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/go-go-golems/brainstorm/pkg/events"
	"github.com/go-go-golems/brainstorm/pkg/tokens"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrContextExhausted is wrapped into the GenerationError returned when a
// prompt leaves no room for a response within the context length.
var ErrContextExhausted = errors.New("prompt leaves no room in the context")

// ErrTranscriptOpen is returned when synthesis is asked for a transcript the
// controller has not finished.
var ErrTranscriptOpen = errors.New("transcript is still open")

func (s *Synthesizer) checkBudget(op string, maxTokens int) error {
	if maxTokens > 0 {
		return nil
	}
	err := &completion.GenerationError{
		Op:    op,
		Model: s.options.Model,
		Err: errors.Wrapf(ErrContextExhausted,
			"prompt uses %d of %d tokens", s.contextLen-maxTokens, s.contextLen),
	}
	s.publish(events.Event{Type: events.EventTypeError, Text: err.Error()})
	return err
}

// Flatten renders the transcript as one document, each message labeled with
// the agent that wrote it.
func Flatten(t *conversation.Transcript) string {
	b := &strings.Builder{}
	for i, m := range t.Messages() {
		fmt.Fprintf(b, "%s: %s\n\n", conversation.AgentLabel(i), m)
	}
	return strings.TrimSpace(b.String())
}

// Synthesizer condenses a finished transcript into a proposal and renders
// the proposal as a report. Both requests are sized against the model's
// context ceiling rather than the debate budget.
type Synthesizer struct {
	client     completion.Client
	counter    tokens.Counter
	options    completion.Options
	contextLen int
	sink       events.EventSink
	sessionID  uuid.UUID
}

type SynthesizerOption func(*Synthesizer)

func WithSynthesisOptions(opts completion.Options) SynthesizerOption {
	return func(s *Synthesizer) {
		s.options = opts
	}
}

func WithSynthesisSink(sink events.EventSink) SynthesizerOption {
	return func(s *Synthesizer) {
		s.sink = sink
	}
}

func WithSynthesisSessionID(id uuid.UUID) SynthesizerOption {
	return func(s *Synthesizer) {
		s.sessionID = id
	}
}

func NewSynthesizer(client completion.Client, counter tokens.Counter, contextLen int, options ...SynthesizerOption) *Synthesizer {
	ret := &Synthesizer{
		client:     client,
		counter:    counter,
		contextLen: contextLen,
		sink:       events.NullSink{},
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (s *Synthesizer) Synthesize(ctx context.Context, p conversation.Problem, t *conversation.Transcript) (string, error) {
	if !t.Frozen() {
		return "", ErrTranscriptOpen
	}
	s.publish(events.Event{Type: events.EventTypeState, State: "synthesizing"})

	prompt, err := SynthesisPrompt(p, Flatten(t))
	if err != nil {
		return "", err
	}

	opts := s.options
	opts.MaxTokens = s.contextLen - s.counter.Count([]string{prompt})
	log.Debug().Int("max_tokens", opts.MaxTokens).Int("messages", t.Len()).Msg("requesting synthesis")
	if err := s.checkBudget("synthesis", opts.MaxTokens); err != nil {
		return "", err
	}

	synthesis, err := s.client.Complete(ctx, prompt, opts)
	if err != nil {
		s.publish(events.Event{Type: events.EventTypeError, Text: err.Error()})
		return "", errors.Wrap(err, "could not synthesize conversation")
	}
	synthesis = strings.TrimSpace(synthesis)

	s.publish(events.Event{Type: events.EventTypeSynthesis, Text: synthesis})
	return synthesis, nil
}

// Report asks the model for an HTML rendering of the synthesis.
func (s *Synthesizer) Report(ctx context.Context, synthesis string) (string, error) {
	s.publish(events.Event{Type: events.EventTypeState, State: "reporting"})

	prompt, err := ReportPrompt(synthesis)
	if err != nil {
		return "", err
	}

	opts := s.options
	opts.MaxTokens = s.contextLen - s.counter.Count([]string{synthesis})
	log.Debug().Int("max_tokens", opts.MaxTokens).Msg("requesting report")
	if err := s.checkBudget("report", opts.MaxTokens); err != nil {
		return "", err
	}

	report, err := s.client.Complete(ctx, prompt, opts)
	if err != nil {
		s.publish(events.Event{Type: events.EventTypeError, Text: err.Error()})
		return "", errors.Wrap(err, "could not render report")
	}
	return report, nil
}

func (s *Synthesizer) publish(e events.Event) {
	e.SessionID = s.sessionID
	if err := s.sink.PublishEvent(e); err != nil {
		log.Warn().Err(err).Str("event_type", string(e.Type)).Msg("could not publish event")
	}
}
