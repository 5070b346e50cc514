package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/pkg/errors"
)

const (
	problemPrefix    = "Problem: "
	additionalPrefix = "Additional Information: "
	seedPrefix       = "Proposed Solution: "
	synthesisPrefix  = "Synthesis: "
)

func writeHeader(w io.Writer, p conversation.Problem, seed string) error {
	_, err := fmt.Fprintf(w, "%s%s\n\n%s%s\n\n%s%s\n\n",
		problemPrefix, p.Problem,
		additionalPrefix, p.Additional,
		seedPrefix, seed)
	return err
}

// WriteConversation writes the problem header followed by every message
// labeled with its agent.
func WriteConversation(w io.Writer, p conversation.Problem, t *conversation.Transcript) error {
	msgs := t.Messages()
	if err := writeHeader(w, p, msgs[0]); err != nil {
		return err
	}
	for i, m := range msgs {
		if _, err := fmt.Fprintf(w, "%s: %s\n\n", conversation.AgentLabel(i), m); err != nil {
			return err
		}
	}
	return nil
}

func WriteSynthesis(w io.Writer, p conversation.Problem, seed string, synthesis string) error {
	if err := writeHeader(w, p, seed); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s%s\n\n", synthesisPrefix, synthesis)
	return err
}

// ParsedConversation is the content recovered from a conversation file.
type ParsedConversation struct {
	Problem  conversation.Problem
	Messages []string
}

type section struct {
	prefix string
	lines  []string
}

// value drops the blank separator line that follows every section.
func (s *section) value() string {
	return strings.TrimSuffix(strings.Join(s.lines, "\n"), "\n")
}

// scanLines splits on \n only so that a \r inside a message survives.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// nextPrefix is the label that starts the section after the given number of
// sections: the three header fields, then alternating agent labels.
func nextPrefix(n int) string {
	headers := []string{problemPrefix, additionalPrefix, seedPrefix}
	if n < len(headers) {
		return headers[n]
	}
	return conversation.AgentLabel(n-len(headers)) + ": "
}

// ParseConversation reads a file written by WriteConversation. A section
// starts on a line that follows a blank line and carries the next expected
// label. Any other line, including a quoted label, belongs to the current
// section.
func ParseConversation(r io.Reader) (*ParsedConversation, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Split(scanLines)

	var sections []*section
	var current *section
	afterBlank := true

	for scanner.Scan() {
		line := scanner.Text()

		prefix := nextPrefix(len(sections))
		if afterBlank && strings.HasPrefix(line, prefix) {
			current = &section{prefix: prefix, lines: []string{strings.TrimPrefix(line, prefix)}}
			sections = append(sections, current)
			afterBlank = false
			continue
		}
		if current == nil {
			return nil, errors.Errorf("unexpected line before the problem header: %q", line)
		}
		current.lines = append(current.lines, line)
		afterBlank = line == ""
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "could not read conversation")
	}

	ret := &ParsedConversation{}
	for _, s := range sections {
		switch s.prefix {
		case problemPrefix:
			ret.Problem.Problem = s.value()
		case additionalPrefix:
			ret.Problem.Additional = s.value()
		case seedPrefix:
			ret.Problem.Seed = s.value()
		default:
			ret.Messages = append(ret.Messages, s.value())
		}
	}

	if len(ret.Messages) == 0 {
		return nil, errors.New("conversation contains no messages")
	}
	if ret.Messages[0] != ret.Problem.Seed {
		return nil, errors.Errorf("first message does not match the proposed solution %q", ret.Problem.Seed)
	}
	return ret, nil
}
