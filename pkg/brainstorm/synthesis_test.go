package brainstorm

import (
	"context"
	"testing"

	"github.com/go-go-golems/brainstorm/pkg/completion"
	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTranscript(t *testing.T, msgs ...string) *conversation.Transcript {
	tr := conversation.NewTranscript(msgs[0])
	for _, m := range msgs[1:] {
		require.NoError(t, tr.Append(m))
	}
	tr.Freeze()
	return tr
}

func TestFlatten(t *testing.T) {
	tr := newTranscript(t, "seed", "first", "second")
	assert.Equal(t, "Agent 1: seed\n\nAgent 2: first\n\nAgent 1: second", Flatten(tr))
}

func TestSynthesizeSizesRequestAgainstContext(t *testing.T) {
	client := completion.NewScriptedClient("  the plan  ", "<html>report</html>")
	s := NewSynthesizer(client, wordCounter, 4000, WithSynthesisOptions(testOptions))
	p := conversation.Problem{Problem: "reduce server latency", Additional: "budget is tight"}
	tr := newTranscript(t, "seed", "first", "second")

	synthesis, err := s.Synthesize(context.Background(), p, tr)
	require.NoError(t, err)
	assert.Equal(t, "the plan", synthesis)

	report, err := s.Report(context.Background(), synthesis)
	require.NoError(t, err)
	assert.Equal(t, "<html>report</html>", report)

	calls := client.Calls()
	require.Len(t, calls, 2)

	prompt := calls[0].Prompt
	assert.Contains(t, prompt, "Problem: reduce server latency\nAdditional Information: budget is tight")
	assert.Contains(t, prompt, "### CONVERSATION START ###\nAgent 1: seed\n\nAgent 2: first\n\nAgent 1: second\n### CONVERSATION END ###")
	assert.Equal(t, 4000-wordCounter.Count([]string{prompt}), calls[0].Options.MaxTokens)
	assert.Equal(t, "gpt-3.5-turbo", calls[0].Options.Model)

	assert.Contains(t, calls[1].Prompt, "###START REPORT\nthe plan\n###END REPORT")
	assert.Equal(t, 4000-wordCounter.Count([]string{"the plan"}), calls[1].Options.MaxTokens)
}

func TestSynthesisErrorPropagates(t *testing.T) {
	client := completion.NewScriptedClient("x").FailAt(0, errors.New("quota"))
	s := NewSynthesizer(client, wordCounter, 4000)

	_, err := s.Synthesize(context.Background(), conversation.Problem{Problem: "p"}, newTranscript(t, "seed"))
	var genErr *completion.GenerationError
	require.True(t, errors.As(err, &genErr))
}

func TestReportErrorPropagates(t *testing.T) {
	client := completion.NewScriptedClient("x").FailAt(0, errors.New("quota"))
	s := NewSynthesizer(client, wordCounter, 4000)

	_, err := s.Report(context.Background(), "synthesis")
	var genErr *completion.GenerationError
	require.True(t, errors.As(err, &genErr))
}

func TestSynthesisOverContextLengthFails(t *testing.T) {
	client := completion.NewScriptedClient("never sent")
	s := NewSynthesizer(client, wordCounter, 50, WithSynthesisOptions(testOptions))
	tr := newTranscript(t, words(100, "idea"))

	_, err := s.Synthesize(context.Background(), conversation.Problem{Problem: "p"}, tr)
	var genErr *completion.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "synthesis", genErr.Op)
	assert.True(t, errors.Is(err, ErrContextExhausted))
	assert.Empty(t, client.Calls())
}

func TestReportOverContextLengthFails(t *testing.T) {
	client := completion.NewScriptedClient("never sent")
	s := NewSynthesizer(client, wordCounter, 50)

	_, err := s.Report(context.Background(), words(50, "plan"))
	var genErr *completion.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "report", genErr.Op)
	assert.Empty(t, client.Calls())

	// one token of room is enough
	_, err = s.Report(context.Background(), words(49, "plan"))
	require.NoError(t, err)
	assert.Len(t, client.Calls(), 1)
}

func TestSynthesizeRequiresFinishedTranscript(t *testing.T) {
	client := completion.NewScriptedClient("plan")
	s := NewSynthesizer(client, wordCounter, 4000)

	_, err := s.Synthesize(context.Background(), conversation.Problem{Problem: "p"}, conversation.NewTranscript("seed"))
	assert.ErrorIs(t, err, ErrTranscriptOpen)
	assert.Empty(t, client.Calls())
}
