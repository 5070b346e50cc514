package cmds

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/go-go-golems/brainstorm/pkg/export"
	"github.com/go-go-golems/brainstorm/pkg/settings"
	"github.com/go-go-golems/brainstorm/pkg/tokens"
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type CountCommand struct {
	*cmds.CommandDescription
}

type CountSettings struct {
	Engine       string `glazed.parameter:"engine"`
	Tokenizer    string `glazed.parameter:"tokenizer"`
	Conversation bool   `glazed.parameter:"conversation"`
	Input        string `glazed.parameter:"input"`
}

func NewCountCommand() (*CountCommand, error) {
	return &CountCommand{
		CommandDescription: cmds.NewCommandDescription(
			"count",
			cmds.WithShort("Count the tokens of a file with the configured counter"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"engine",
					parameters.ParameterTypeString,
					parameters.WithHelp("Model used for encoding"),
					parameters.WithDefault(settings.DefaultEngine),
				),
				parameters.NewParameterDefinition(
					"tokenizer",
					parameters.ParameterTypeChoice,
					parameters.WithHelp("Token counting backend"),
					parameters.WithChoices(string(tokens.BackendTokenizer), string(tokens.BackendTiktoken)),
					parameters.WithDefault(string(tokens.BackendTokenizer)),
				),
				parameters.NewParameterDefinition(
					"conversation",
					parameters.ParameterTypeBool,
					parameters.WithHelp("Input is a conversation.txt, print the running count per message"),
					parameters.WithDefault(false),
				),
			),
			cmds.WithArguments(
				parameters.NewParameterDefinition(
					"input",
					parameters.ParameterTypeStringFromFiles,
					parameters.WithHelp("Input file"),
					parameters.WithRequired(true),
				),
			),
		),
	}, nil
}

var _ cmds.WriterCommand = (*CountCommand)(nil)

func (cc *CountCommand) RunIntoWriter(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
	w io.Writer,
) error {
	s := &CountSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "failed to initialize count settings")
	}

	counter, err := tokens.NewCounter(tokens.Backend(s.Tokenizer), s.Engine)
	if err != nil {
		return err
	}

	return countTokens(w, strings.NewReader(s.Input), s.Engine, counter, s.Conversation)
}

func RegisterTokenCommands(rootCmd *cobra.Command) {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Token counting helpers",
	}

	countCmdInstance, err := NewCountCommand()
	cobra.CheckErr(err)
	countCommand, err := cli.BuildCobraCommandFromWriterCommand(countCmdInstance)
	cobra.CheckErr(err)
	tokensCmd.AddCommand(countCommand)

	rootCmd.AddCommand(tokensCmd)
}

type encoder interface {
	Encoding() string
}

func countTokens(w io.Writer, r io.Reader, engine string, counter tokens.Counter, isTranscript bool) error {
	codec := tokens.DefaultEncoding(engine)
	if e, ok := counter.(encoder); ok {
		codec = e.Encoding()
	}

	if _, err := fmt.Fprintf(w, "Model: %s\nCodec: %s\n", engine, codec); err != nil {
		return err
	}

	if !isTranscript {
		b, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "Total tokens: %d\n", counter.Count([]string{string(b)}))
		return err
	}

	parsed, err := export.ParseConversation(r)
	if err != nil {
		return err
	}
	for i := range parsed.Messages {
		total := counter.Count(parsed.Messages[:i+1])
		if _, err := fmt.Fprintf(w, "%s: %d\n", conversation.AgentLabel(i), total); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "Total tokens: %d\n", counter.Count(parsed.Messages))
	return err
}
