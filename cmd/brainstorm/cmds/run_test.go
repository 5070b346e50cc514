package cmds

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-go-golems/brainstorm/pkg/completion"
	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/go-go-golems/brainstorm/pkg/export"
	"github.com/go-go-golems/brainstorm/pkg/settings"
	"github.com/go-go-golems/brainstorm/pkg/tokens"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	problem conversation.Problem
}

func (s staticSource) ReadProblem() (conversation.Problem, error) {
	return s.problem, nil
}

var wordCounter = tokens.CounterFunc(func(texts []string) int {
	return len(strings.Fields(strings.Join(texts, "\n")))
})

const longReply = "this reply is long enough to keep the debate going for a while"

func newTestSession(t *testing.T, client completion.Client) (*Session, *bytes.Buffer) {
	s := settings.NewBrainstormSettings()
	s.MaxLen = 10
	s.ContextLen = 100000
	s.OutputDir = t.TempDir()
	s.Report = settings.ReportLocal

	out := &bytes.Buffer{}
	return &Session{
		Settings: s,
		Client:   client,
		Counter:  wordCounter,
		Source: staticSource{problem: conversation.Problem{
			Problem: "How do we reduce our build times?",
			Seed:    "cache everything",
		}},
		Out: out,
	}, out
}

func readArtifact(t *testing.T, dir string, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(b)
}

func TestSessionWritesArtifacts(t *testing.T) {
	client := completion.NewScriptedClient(longReply+" one", longReply+" two", "# Plan\n\nCache the build.")
	session, out := newTestSession(t, client)

	require.NoError(t, session.Run(context.Background()))

	dir := session.Settings.OutputDir
	conv := readArtifact(t, dir, export.ConversationFile)
	assert.Contains(t, conv, "Proposed Solution: cache everything")
	assert.Contains(t, conv, "Agent 2: "+longReply+" one")
	assert.Contains(t, conv, "Agent 1: "+longReply+" two")

	assert.Contains(t, readArtifact(t, dir, export.SynthesisFile), "Cache the build.")
	assert.Contains(t, readArtifact(t, dir, export.ReportFile), "<h1>Plan</h1>")

	printed := out.String()
	assert.Contains(t, printed, "Starting brainstorming session...")
	assert.Contains(t, printed, "Agent 1: "+longReply+" one")
	assert.Contains(t, printed, "Agent 2: "+longReply+" two")
	assert.Contains(t, printed, "Cache the build.")

	// two debate turns and one synthesis, the local report makes no call
	assert.Len(t, client.Calls(), 3)
}

func TestSessionKeepsConversationOnGenerationError(t *testing.T) {
	client := completion.NewScriptedClient(longReply).FailAt(1, errors.New("quota exceeded"))
	session, _ := newTestSession(t, client)

	err := session.Run(context.Background())
	require.Error(t, err)
	var genErr *completion.GenerationError
	assert.True(t, errors.As(err, &genErr))

	dir := session.Settings.OutputDir
	conv := readArtifact(t, dir, export.ConversationFile)
	assert.Contains(t, conv, "Agent 2: "+longReply)
	_, statErr := os.Stat(filepath.Join(dir, export.SynthesisFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSessionDryRun(t *testing.T) {
	session, _ := newTestSession(t, completion.EchoClient{})
	session.Settings.ContextLen = 0
	require.NoError(t, session.Run(context.Background()))

	conv := readArtifact(t, session.Settings.OutputDir, export.ConversationFile)
	assert.Contains(t, conv, "[echo]")
	assert.Equal(t, 0, session.Settings.ContextLen, "the engine ceiling is resolved on a copy")
}

func TestSessionFailsWhenSynthesisExceedsContext(t *testing.T) {
	client := completion.NewScriptedClient(longReply+" one", longReply+" two", "never sent")
	session, _ := newTestSession(t, client)
	session.Settings.ContextLen = 20

	err := session.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ExitGeneration, ExitCode(err))

	dir := session.Settings.OutputDir
	assert.FileExists(t, filepath.Join(dir, export.ConversationFile))
	assert.NoFileExists(t, filepath.Join(dir, export.SynthesisFile))
	assert.Len(t, client.Calls(), 2)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitGeneration, ExitCode(errors.Wrap(&completion.GenerationError{Op: "chat"}, "debate")))

	s := settings.NewBrainstormSettings()
	s.Chat.Engine = "mystery-model"
	assert.Equal(t, ExitConfiguration, ExitCode(s.Validate()))
}

func TestConfigMapper(t *testing.T) {
	mapped, err := configMapper(map[string]interface{}{
		"engine":  "gpt-4",
		"max_len": 100,
		"profiles": map[string]interface{}{
			"fast": "ignored",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]interface{}{
		"default": {"engine": "gpt-4", "max_len": 100},
	}, mapped)

	_, err = configMapper([]interface{}{"engine"})
	assert.Error(t, err)
}
