package completion

import (
	"context"
	"net/http"

	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/go-go-golems/brainstorm/pkg/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

var ErrNoChoices = errors.New("no choices returned from OpenAI")

type OpenAIClient struct {
	client *go_openai.Client
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client from the explicit client settings.
func NewOpenAIClient(s *settings.ClientSettings) (*OpenAIClient, error) {
	if s == nil {
		return nil, errors.New("missing client settings")
	}
	if s.APIKey == "" {
		return nil, errors.New("missing client settings api key")
	}

	config := go_openai.DefaultConfig(s.APIKey)
	if s.BaseURL != "" {
		config.BaseURL = s.BaseURL
	}
	if s.Organization != "" {
		config.OrgID = s.Organization
	}
	if s.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: s.Timeout}
	}

	log.Debug().
		Str("base_url", config.BaseURL).
		Str("organization", s.Organization).
		Dur("timeout", s.Timeout).
		Msg("creating openai client")

	return &OpenAIClient{client: go_openai.NewClientWithConfig(config)}, nil
}

func (o *OpenAIClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	msgs := []go_openai.ChatCompletionMessage{
		{Role: go_openai.ChatMessageRoleUser, Content: prompt},
	}
	return o.send(ctx, "complete", msgs, opts)
}

func (o *OpenAIClient) Chat(
	ctx context.Context,
	history []string,
	system string,
	starter conversation.Role,
	opts Options,
) (string, error) {
	return o.send(ctx, "chat", MakeChatMessages(history, system, starter), opts)
}

// MakeChatMessages renders the history into role-tagged messages behind a
// system message.
func MakeChatMessages(history []string, system string, starter conversation.Role) []go_openai.ChatCompletionMessage {
	msgs := make([]go_openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, go_openai.ChatCompletionMessage{
		Role:    go_openai.ChatMessageRoleSystem,
		Content: system,
	})
	for i, m := range history {
		msgs = append(msgs, go_openai.ChatCompletionMessage{
			Role:    string(conversation.RoleAt(i, starter)),
			Content: m,
		})
	}
	return msgs
}

func (o *OpenAIClient) send(
	ctx context.Context,
	op string,
	msgs []go_openai.ChatCompletionMessage,
	opts Options,
) (string, error) {
	if opts.MaxTokens <= 0 {
		// the API treats 0 as "no limit", so an exhausted budget never goes out
		log.Warn().Str("op", op).Int("max_tokens", opts.MaxTokens).Msg("no token budget left, skipping request")
		return "", nil
	}
	if opts.Model == "" {
		return "", &GenerationError{Op: op, Err: errors.New("no engine specified")}
	}

	req := go_openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    msgs,
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
		TopP:        float32(opts.TopP),
	}

	log.Debug().
		Str("op", op).
		Str("engine", opts.Model).
		Int("max_response_tokens", opts.MaxTokens).
		Float64("temperature", opts.Temperature).
		Float64("top_p", opts.TopP).
		Int("messages", len(msgs)).
		Msg("sending completion request")

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", wrapError(op, opts.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Op: op, Model: opts.Model, Err: ErrNoChoices}
	}

	log.Debug().
		Str("op", op).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("received completion")

	return resp.Choices[0].Message.Content, nil
}

func wrapError(op string, model string, err error) error {
	ret := &GenerationError{Op: op, Model: model, Err: err}

	var apiErr *go_openai.APIError
	var reqErr *go_openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		ret.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		ret.StatusCode = reqErr.HTTPStatusCode
	}
	return ret
}
