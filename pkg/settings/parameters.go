package settings

import (
	"strings"
	"time"

	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Parameters is the flat view of the settings as parsed from flags,
// environment and config file.
type Parameters struct {
	Engine             string  `glazed.parameter:"engine"`
	Temperature        float64 `glazed.parameter:"temp"`
	TopP               float64 `glazed.parameter:"top_p"`
	MaxLen             int     `glazed.parameter:"max_len"`
	ContextLen         int     `glazed.parameter:"context-len"`
	MaxRounds          int     `glazed.parameter:"max-rounds"`
	MinReplyChars      int     `glazed.parameter:"min-reply-chars"`
	ConvergenceCheck   bool    `glazed.parameter:"convergence-check"`
	Tokenizer          string  `glazed.parameter:"tokenizer"`
	OutputDir          string  `glazed.parameter:"output-dir"`
	Report             string  `glazed.parameter:"report"`
	DryRun             bool    `glazed.parameter:"dry-run"`
	OpenAIAPIKey       string  `glazed.parameter:"openai-api-key"`
	OpenAIBaseURL      string  `glazed.parameter:"openai-base-url"`
	OpenAIOrganization string  `glazed.parameter:"openai-organization"`
	OpenAITimeout      int     `glazed.parameter:"openai-timeout"`
}

// Apply copies every parameter onto s. Zero values keep the default of s
// where a zero would not be a valid setting.
func (p *Parameters) Apply(s *BrainstormSettings) {
	if p.Engine != "" {
		s.Chat.Engine = p.Engine
	}
	s.Chat.Temperature = p.Temperature
	s.Chat.TopP = p.TopP
	s.MaxLen = p.MaxLen
	s.ContextLen = p.ContextLen
	s.MaxRounds = p.MaxRounds
	if p.MinReplyChars > 0 {
		s.MinReplyChars = p.MinReplyChars
	}
	s.ConvergenceCheck = p.ConvergenceCheck
	if p.Tokenizer != "" {
		s.Tokenizer = p.Tokenizer
	}
	if p.OutputDir != "" {
		s.OutputDir = p.OutputDir
	}
	if p.Report != "" {
		s.Report = ReportMode(p.Report)
	}
	s.DryRun = p.DryRun

	s.Client.APIKey = strings.TrimSpace(p.OpenAIAPIKey)
	s.Client.BaseURL = p.OpenAIBaseURL
	s.Client.Organization = p.OpenAIOrganization
	if p.OpenAITimeout > 0 {
		s.Client.Timeout = time.Duration(p.OpenAITimeout) * time.Second
	}
}

// NewBrainstormSettingsFromParsedLayers reads the default layer on top of
// the defaults.
func NewBrainstormSettingsFromParsedLayers(parsedLayers *layers.ParsedLayers) (*BrainstormSettings, error) {
	p := &Parameters{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, p); err != nil {
		return nil, errors.Wrap(err, "could not initialize brainstorm settings")
	}

	s := NewBrainstormSettings()
	p.Apply(s)

	log.Debug().
		Str("engine", s.Chat.Engine).
		Float64("temperature", s.Chat.Temperature).
		Float64("top_p", s.Chat.TopP).
		Int("max_len", s.MaxLen).
		Int("context_len", s.ContextLen).
		Bool("has_api_key", s.Client.APIKey != "").
		Msg("loaded brainstorm settings")

	return s, nil
}
