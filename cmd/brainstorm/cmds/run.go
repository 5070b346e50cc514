package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/brainstorm/pkg/brainstorm"
	"github.com/go-go-golems/brainstorm/pkg/completion"
	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/go-go-golems/brainstorm/pkg/events"
	"github.com/go-go-golems/brainstorm/pkg/export"
	"github.com/go-go-golems/brainstorm/pkg/input"
	"github.com/go-go-golems/brainstorm/pkg/settings"
	"github.com/go-go-golems/brainstorm/pkg/tokens"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const banner = `Welcome to brainstorm.
Two agents will debate your problem, then their conversation is synthesized
into a single proposal.
`

type RunCommand struct {
	*cmds.CommandDescription
}

var _ cmds.WriterCommand = (*RunCommand)(nil)

type RunSettings struct {
	ProblemFile   string `glazed.parameter:"problem-file"`
	Verbose       bool   `glazed.parameter:"verbose"`
	PrintSettings bool   `glazed.parameter:"print-settings"`
}

func NewRunCommand() (*RunCommand, error) {
	description := cmds.NewCommandDescription(
		"run",
		cmds.WithShort("Run a brainstorming session"),
		cmds.WithFlags(
			parameters.NewParameterDefinition("temp",
				parameters.ParameterTypeFloat,
				parameters.WithHelp("Sampling temperature"),
				parameters.WithDefault(settings.DefaultTemperature),
			),
			parameters.NewParameterDefinition("top_p",
				parameters.ParameterTypeFloat,
				parameters.WithHelp("Nucleus sampling probability mass"),
				parameters.WithDefault(settings.DefaultTopP),
			),
			parameters.NewParameterDefinition("engine",
				parameters.ParameterTypeString,
				parameters.WithHelp("Model used for every generation"),
				parameters.WithDefault(settings.DefaultEngine),
			),
			parameters.NewParameterDefinition("max_len",
				parameters.ParameterTypeInteger,
				parameters.WithHelp("Token budget of the debate"),
				parameters.WithDefault(settings.DefaultMaxLen),
			),
			parameters.NewParameterDefinition("context-len",
				parameters.ParameterTypeInteger,
				parameters.WithHelp("Override the context length of the engine"),
				parameters.WithDefault(0),
			),
			parameters.NewParameterDefinition("max-rounds",
				parameters.ParameterTypeInteger,
				parameters.WithHelp("Stop the debate after this many rounds (0 = unlimited)"),
				parameters.WithDefault(0),
			),
			parameters.NewParameterDefinition("min-reply-chars",
				parameters.ParameterTypeInteger,
				parameters.WithHelp("Replies shorter than this end the debate"),
				parameters.WithDefault(settings.DefaultMinReplyChars),
			),
			parameters.NewParameterDefinition("convergence-check",
				parameters.ParameterTypeBool,
				parameters.WithHelp("Ask the model whether each round reached agreement"),
				parameters.WithDefault(false),
			),
			parameters.NewParameterDefinition("tokenizer",
				parameters.ParameterTypeChoice,
				parameters.WithHelp("Token counting backend"),
				parameters.WithChoices(string(tokens.BackendTokenizer), string(tokens.BackendTiktoken)),
				parameters.WithDefault(string(tokens.BackendTokenizer)),
			),
			parameters.NewParameterDefinition("output-dir",
				parameters.ParameterTypeString,
				parameters.WithHelp("Directory the session artifacts are written to"),
				parameters.WithDefault("."),
			),
			parameters.NewParameterDefinition("problem-file",
				parameters.ParameterTypeString,
				parameters.WithHelp("Read the problem from a YAML file instead of the terminal"),
				parameters.WithDefault(""),
			),
			parameters.NewParameterDefinition("report",
				parameters.ParameterTypeChoice,
				parameters.WithHelp("How report.html is produced"),
				parameters.WithChoices(string(settings.ReportRemote), string(settings.ReportLocal)),
				parameters.WithDefault(string(settings.ReportRemote)),
			),
			parameters.NewParameterDefinition("openai-api-key",
				parameters.ParameterTypeString,
				parameters.WithHelp("OpenAI API key, falls back to OPENAI_API_KEY"),
				parameters.WithDefault(""),
			),
			parameters.NewParameterDefinition("openai-base-url",
				parameters.ParameterTypeString,
				parameters.WithHelp("OpenAI compatible API base URL"),
				parameters.WithDefault(""),
			),
			parameters.NewParameterDefinition("openai-organization",
				parameters.ParameterTypeString,
				parameters.WithHelp("OpenAI organization"),
				parameters.WithDefault(""),
			),
			parameters.NewParameterDefinition("openai-timeout",
				parameters.ParameterTypeInteger,
				parameters.WithHelp("Timeout of a single API request in seconds"),
				parameters.WithDefault(int(settings.DefaultTimeout.Seconds())),
			),
			parameters.NewParameterDefinition("dry-run",
				parameters.ParameterTypeBool,
				parameters.WithHelp("Replace the model with a local echo client"),
				parameters.WithDefault(false),
			),
			parameters.NewParameterDefinition("verbose",
				parameters.ParameterTypeBool,
				parameters.WithHelp("Verbose event router logging"),
				parameters.WithDefault(false),
			),
			parameters.NewParameterDefinition("print-settings",
				parameters.ParameterTypeBool,
				parameters.WithHelp("Print the resolved settings and exit"),
				parameters.WithDefault(false),
			),
		),
	)

	return &RunCommand{
		CommandDescription: description,
	}, nil
}

// RunIntoWriter exits with the status of ExitCode on failure, the cobra
// wrapper would otherwise exit with 1 for every error.
func (c *RunCommand) RunIntoWriter(ctx context.Context, parsedLayers *layers.ParsedLayers, w io.Writer) error {
	err := c.run(ctx, parsedLayers, w)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCode(err))
	}
	return nil
}

func (c *RunCommand) run(ctx context.Context, parsedLayers *layers.ParsedLayers, w io.Writer) error {
	rs := &RunSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, rs); err != nil {
		return errors.Wrap(err, "failed to initialize run settings")
	}
	s, err := settings.NewBrainstormSettingsFromParsedLayers(parsedLayers)
	if err != nil {
		return err
	}
	if s.Client.APIKey == "" {
		s.Client.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	if rs.PrintSettings {
		b, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}

	if err := s.Validate(); err != nil {
		return err
	}

	client, err := newClient(s)
	if err != nil {
		return err
	}
	counter, err := tokens.NewCounter(tokens.Backend(s.Tokenizer), s.Chat.Engine)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprint(w, banner)

	var source input.Source
	if rs.ProblemFile != "" {
		source = &input.File{Path: rs.ProblemFile}
	} else {
		source = input.NewTerminal(w, os.Stdin)
	}

	session := &Session{
		Settings:   s,
		Client:     client,
		Counter:    counter,
		Source:     source,
		Out:        w,
		IsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
		Verbose:    rs.Verbose,
	}
	return session.Run(ctx)
}

func newClient(s *settings.BrainstormSettings) (completion.Client, error) {
	if s.DryRun {
		log.Info().Msg("dry run, no remote calls will be made")
		return completion.EchoClient{}, nil
	}
	return completion.NewOpenAIClient(s.Client)
}

// Session wires one brainstorming run: problem intake, debate, synthesis
// and report, with progress printed through the event router.
type Session struct {
	Settings   *settings.BrainstormSettings
	Client     completion.Client
	Counter    tokens.Counter
	Source     input.Source
	Out        io.Writer
	IsTerminal bool
	Verbose    bool
}

func (s *Session) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	problem, err := s.Source.ReadProblem()
	if err != nil {
		return errors.Wrap(err, "could not read problem")
	}

	router, err := events.NewEventRouter(events.WithVerbose(s.Verbose))
	if err != nil {
		return err
	}
	router.AddHandler("printer", events.TopicSession, events.NewPrinterHandler(s.Out))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		defer func() {
			_ = router.Close()
		}()
		select {
		case <-router.Running():
		case <-ctx.Done():
			return ctx.Err()
		}
		return s.run(ctx, problem, router.Sink(events.TopicSession))
	})

	return eg.Wait()
}

func (s *Session) run(ctx context.Context, problem conversation.Problem, sink events.EventSink) error {
	// resolved on a copy, the caller's settings stay as configured
	cfg := s.Settings.Clone()
	contextLen, err := cfg.ContextLength()
	if err != nil {
		return err
	}
	cfg.ContextLen = contextLen
	log.Debug().Str("engine", cfg.Chat.Engine).Int("context_len", cfg.ContextLen).Msg("resolved session settings")

	exporter, err := export.NewExporter(cfg.OutputDir)
	if err != nil {
		return err
	}

	opts := completion.Options{
		Model:       cfg.Chat.Engine,
		Temperature: cfg.Chat.Temperature,
		TopP:        cfg.Chat.TopP,
	}
	sessionID := uuid.New()

	var policy brainstorm.StopPolicy = brainstorm.LengthStopPolicy{MinChars: cfg.MinReplyChars}
	if cfg.ConvergenceCheck {
		policy = brainstorm.NewConvergencePolicy(s.Client, opts, cfg.MinReplyChars)
	}

	controller := brainstorm.NewController(s.Client, s.Counter, cfg.MaxLen,
		brainstorm.WithOptions(opts),
		brainstorm.WithSink(sink),
		brainstorm.WithStopPolicy(policy),
		brainstorm.WithMaxRounds(cfg.MaxRounds),
		brainstorm.WithSessionID(sessionID),
	)

	transcript, runErr := controller.Run(ctx, problem)
	if transcript == nil {
		return runErr
	}
	path, err := exporter.WriteConversation(problem, transcript)
	if err != nil {
		return err
	}
	log.Info().Str("path", path).Int("messages", transcript.Len()).Msg("wrote conversation")
	if runErr != nil {
		return runErr
	}

	synth := brainstorm.NewSynthesizer(s.Client, s.Counter, contextLen,
		brainstorm.WithSynthesisOptions(opts),
		brainstorm.WithSynthesisSink(sink),
		brainstorm.WithSynthesisSessionID(sessionID),
	)
	synthesis, err := synth.Synthesize(ctx, problem, transcript)
	if err != nil {
		return err
	}
	if _, err = exporter.WriteSynthesis(problem, transcript.At(0).Content, synthesis); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(s.Out)
	if err = export.RenderTerminal(s.Out, synthesis, s.IsTerminal); err != nil {
		return err
	}

	var report string
	switch cfg.Report {
	case settings.ReportLocal:
		report, err = export.RenderMarkdownReport(problem.Problem, synthesis)
	default:
		report, err = synth.Report(ctx, synthesis)
	}
	if err != nil {
		return err
	}
	path, err = exporter.WriteReport(report)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.Out, "\nReport written to %s\n", path)

	return nil
}
