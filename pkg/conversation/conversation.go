package conversation

import (
	"fmt"

	"github.com/pkg/errors"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Other returns the opposite conversational role.
func (r Role) Other() Role {
	if r == RoleUser {
		return RoleAssistant
	}
	return RoleUser
}

// RoleAt returns the role of the message at index i when the history is
// replayed starting with the given role. Roles strictly alternate.
func RoleAt(i int, starter Role) Role {
	if i%2 == 0 {
		return starter
	}
	return starter.Other()
}

// AgentLabel returns the participant that produced message i. The seed
// counts as the first turn of Agent 1.
func AgentLabel(i int) string {
	return fmt.Sprintf("Agent %d", AgentNumber(i))
}

func AgentNumber(i int) int {
	return i%2 + 1
}

// Problem is fixed before the debate starts and rendered into every prompt.
type Problem struct {
	Problem    string `yaml:"problem"`
	Additional string `yaml:"additional,omitempty"`
	Seed       string `yaml:"seed,omitempty"`
}

func (p Problem) HasAdditional() bool {
	return p.Additional != ""
}

type Message struct {
	Content string
}

var ErrTranscriptFrozen = errors.New("transcript is frozen")

// Transcript is the append-only message log shared by both agents.
type Transcript struct {
	messages []Message
	frozen   bool
}

func NewTranscript(seed string) *Transcript {
	return &Transcript{
		messages: []Message{{Content: seed}},
	}
}

func (t *Transcript) Append(content string) error {
	if t.frozen {
		return ErrTranscriptFrozen
	}
	t.messages = append(t.messages, Message{Content: content})
	return nil
}

func (t *Transcript) Freeze() {
	t.frozen = true
}

func (t *Transcript) Frozen() bool {
	return t.frozen
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

func (t *Transcript) At(i int) Message {
	return t.messages[i]
}

// Messages returns a copy of the message contents in order.
func (t *Transcript) Messages() []string {
	ret := make([]string, len(t.messages))
	for i, m := range t.messages {
		ret[i] = m.Content
	}
	return ret
}
