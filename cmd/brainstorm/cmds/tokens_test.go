package cmds

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	out := &bytes.Buffer{}
	err := countTokens(out, strings.NewReader("one two three"), "gpt-4", wordCounter, false)
	require.NoError(t, err)
	assert.Equal(t, "Model: gpt-4\nCodec: cl100k_base\nTotal tokens: 3\n", out.String())
}

func TestCountTokensConversation(t *testing.T) {
	conv := "Problem: p\n\nAdditional Information: a\n\nProposed Solution: s\n\n" +
		"Agent 1: s\n\nAgent 2: two words\n\nAgent 1: three more words\n\n"

	out := &bytes.Buffer{}
	err := countTokens(out, strings.NewReader(conv), "gpt-4", wordCounter, true)
	require.NoError(t, err)
	assert.Equal(t,
		"Model: gpt-4\nCodec: cl100k_base\nAgent 1: 1\nAgent 2: 3\nAgent 1: 6\nTotal tokens: 6\n",
		out.String())
}
