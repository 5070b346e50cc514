package events

import (
	"fmt"
	"io"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

const separator = "-----------------------------"

// NewPrinterHandler writes a human readable progress log of the session to w.
func NewPrinterHandler(w io.Writer) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		defer msg.Ack()

		e, err := NewEventFromJson(msg.Payload)
		if err != nil {
			log.Error().Err(err).Str("payload", string(msg.Payload)).Msg("Failed to parse session event")
			return nil
		}

		switch e.Type {
		case EventTypeState:
			switch e.State {
			case "seeding":
				_, err = fmt.Fprintf(w, "%s\nGenerating initial proposal...\n%s\n", separator, separator)
			case "debating":
				_, err = fmt.Fprintf(w, "Starting brainstorming session...\n%s\n", separator)
			case "synthesizing":
				_, err = fmt.Fprintf(w, "%s\nSynthesizing information...\n%s\n", separator, separator)
			case "reporting":
				_, err = fmt.Fprintf(w, "Writing report...\n%s\n", separator)
			}
		case EventTypeSeed:
			_, err = fmt.Fprintf(w, "\n%s\nInitial proposal: %s\n%s\n\n", separator, e.Text, separator)
		case EventTypeTurn:
			_, err = fmt.Fprintf(w, "%s: %s\n%s\n\n", e.Agent, e.Text, separator)
		case EventTypeError:
			_, err = fmt.Fprintf(w, "\n[error] %s\n", e.Text)
		case EventTypeSynthesis:
			// rendered by the caller, which knows whether the output is a terminal
		}

		return err
	}
}
