package settings

import (
	"time"

	"github.com/huandu/go-clone"
)

const (
	DefaultEngine        = "gpt-3.5-turbo"
	DefaultTemperature   = 0.8
	DefaultTopP          = 0.95
	DefaultMaxLen        = 2048
	DefaultMinReplyChars = 50
	DefaultTimeout       = 60 * time.Second
)

// contextLengths maps engines to the context ceiling used to size the
// synthesis and report requests.
var contextLengths = map[string]int{
	"gpt-3.5-turbo": 4000,
	"gpt-4":         8000,
}

type ClientSettings struct {
	APIKey       string        `yaml:"-"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	Organization string        `yaml:"organization,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

type ChatSettings struct {
	Engine      string  `yaml:"engine,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	TopP        float64 `yaml:"top_p,omitempty"`
}

type ReportMode string

const (
	ReportRemote ReportMode = "remote"
	ReportLocal  ReportMode = "local"
)

type BrainstormSettings struct {
	Client *ClientSettings `yaml:"client,omitempty"`
	Chat   *ChatSettings   `yaml:"chat,omitempty"`

	// MaxLen is the token budget of the debate phase.
	MaxLen int `yaml:"max_len,omitempty"`
	// ContextLen overrides the engine's context ceiling when > 0.
	ContextLen       int        `yaml:"context_len,omitempty"`
	MaxRounds        int        `yaml:"max_rounds,omitempty"`
	MinReplyChars    int        `yaml:"min_reply_chars,omitempty"`
	ConvergenceCheck bool       `yaml:"convergence_check,omitempty"`
	Tokenizer        string     `yaml:"tokenizer,omitempty"`
	OutputDir        string     `yaml:"output_dir,omitempty"`
	Report           ReportMode `yaml:"report,omitempty"`
	DryRun           bool       `yaml:"dry_run,omitempty"`
}

func NewBrainstormSettings() *BrainstormSettings {
	return &BrainstormSettings{
		Client: &ClientSettings{
			Timeout: DefaultTimeout,
		},
		Chat: &ChatSettings{
			Engine:      DefaultEngine,
			Temperature: DefaultTemperature,
			TopP:        DefaultTopP,
		},
		MaxLen:        DefaultMaxLen,
		MinReplyChars: DefaultMinReplyChars,
		Tokenizer:     "tokenizer",
		OutputDir:     ".",
		Report:        ReportRemote,
	}
}

func (s *BrainstormSettings) Clone() *BrainstormSettings {
	return clone.Clone(s).(*BrainstormSettings)
}

// ContextLength returns the context ceiling of the configured engine.
func (s *BrainstormSettings) ContextLength() (int, error) {
	if s.ContextLen > 0 {
		return s.ContextLen, nil
	}
	if l, ok := contextLengths[s.Chat.Engine]; ok {
		return l, nil
	}
	return 0, newConfigurationError("engine",
		"no known context length for engine %q, set --context-len", s.Chat.Engine)
}

// Validate checks the settings needed before any remote call is made.
func (s *BrainstormSettings) Validate() error {
	if s.Chat == nil || s.Chat.Engine == "" {
		return newConfigurationError("engine", "no engine specified")
	}
	if _, err := s.ContextLength(); err != nil {
		return err
	}
	if s.MaxLen <= 0 {
		return newConfigurationError("max_len", "must be positive, got %d", s.MaxLen)
	}
	if contextLen, _ := s.ContextLength(); s.MaxLen >= contextLen {
		return newConfigurationError("max_len",
			"must be smaller than the context length %d of %s, got %d", contextLen, s.Chat.Engine, s.MaxLen)
	}
	if s.Chat.Temperature < 0 || s.Chat.Temperature > 2 {
		return newConfigurationError("temp", "must be between 0 and 2, got %v", s.Chat.Temperature)
	}
	if s.Chat.TopP <= 0 || s.Chat.TopP > 1 {
		return newConfigurationError("top_p", "must be in (0, 1], got %v", s.Chat.TopP)
	}
	switch s.Report {
	case ReportRemote, ReportLocal:
	default:
		return newConfigurationError("report", "unknown report mode %q", s.Report)
	}
	if !s.DryRun && (s.Client == nil || s.Client.APIKey == "") {
		return newConfigurationError("openai-api-key",
			"missing credential, set BRAINSTORM_OPENAI_API_KEY or openai-api-key in the config file")
	}
	return nil
}
