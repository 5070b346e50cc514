package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAtAlternates(t *testing.T) {
	for _, starter := range []Role{RoleUser, RoleAssistant} {
		for i := 0; i < 10; i++ {
			r := RoleAt(i, starter)
			if i%2 == 0 {
				assert.Equal(t, starter, r)
			} else {
				assert.Equal(t, starter.Other(), r)
			}
			assert.NotEqual(t, r, RoleAt(i+1, starter))
		}
	}

	assert.Equal(t, RoleUser, RoleAt(0, RoleUser))
	assert.Equal(t, RoleAssistant, RoleAt(1, RoleUser))
	assert.Equal(t, RoleUser, RoleAt(2, RoleUser))
	assert.Equal(t, RoleAssistant, RoleAt(0, RoleAssistant))
}

func TestAgentLabel(t *testing.T) {
	assert.Equal(t, "Agent 1", AgentLabel(0))
	assert.Equal(t, "Agent 2", AgentLabel(1))
	assert.Equal(t, "Agent 1", AgentLabel(2))
}

func TestTranscript(t *testing.T) {
	tr := NewTranscript("seed")
	assert.Equal(t, 1, tr.Len())
	require.NoError(t, tr.Append("one"))
	require.NoError(t, tr.Append("two"))
	assert.Equal(t, []string{"seed", "one", "two"}, tr.Messages())
	assert.Equal(t, "two", tr.At(2).Content)

	msgs := tr.Messages()
	msgs[0] = "mutated"
	assert.Equal(t, "seed", tr.At(0).Content)

	tr.Freeze()
	assert.True(t, tr.Frozen())
	assert.ErrorIs(t, tr.Append("three"), ErrTranscriptFrozen)
	assert.Equal(t, 3, tr.Len())
}
