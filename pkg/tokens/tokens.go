package tokens

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"
	"github.com/weaviate/tiktoken-go"
)

// Counter returns the number of model tokens for a sequence of text blocks.
// Blocks are joined with a newline before being encoded, so the count for
// a transcript is the count of its flat rendering.
type Counter interface {
	Count(texts []string) int
}

type Backend string

const (
	BackendTokenizer Backend = "tokenizer"
	BackendTiktoken  Backend = "tiktoken"
)

const DefaultEncodingName = "cl100k_base"

// DefaultEncoding returns the BPE encoding used by the given model family.
func DefaultEncoding(model string) string {
	switch {
	case strings.HasPrefix(model, "gpt-4"),
		strings.HasPrefix(model, "gpt-3.5-turbo"),
		strings.HasPrefix(model, "text-embedding-ada-002"):
		return "cl100k_base"
	case strings.HasPrefix(model, "text-davinci-002"),
		strings.HasPrefix(model, "text-davinci-003"):
		return "p50k_base"
	case model == "":
		return DefaultEncodingName
	default:
		return "r50k_base"
	}
}

func join(texts []string) string {
	return strings.Join(texts, "\n")
}

// CodecCounter counts tokens with a tiktoken-go/tokenizer codec.
type CodecCounter struct {
	codec    tokenizer.Codec
	encoding string
}

var _ Counter = (*CodecCounter)(nil)

func NewCodecCounter(encoding string) (*CodecCounter, error) {
	if encoding == "" {
		encoding = DefaultEncodingName
	}
	c, err := tokenizer.Get(tokenizer.Encoding(encoding))
	if err != nil {
		return nil, errors.Wrapf(err, "could not load tokenizer codec %s", encoding)
	}
	return &CodecCounter{codec: c, encoding: encoding}, nil
}

func (c *CodecCounter) Encoding() string {
	return c.encoding
}

func (c *CodecCounter) Count(texts []string) int {
	ids, _, err := c.codec.Encode(join(texts))
	if err != nil {
		// the codecs only fail on invalid utf-8, fall back to a rune estimate
		log.Warn().Err(err).Str("encoding", c.encoding).Msg("could not encode text, estimating token count")
		return estimate(join(texts))
	}
	return len(ids)
}

// TiktokenCounter counts tokens with weaviate/tiktoken-go.
type TiktokenCounter struct {
	tke      *tiktoken.Tiktoken
	encoding string
}

var _ Counter = (*TiktokenCounter)(nil)

func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncodingName
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load tiktoken encoding %s", encoding)
	}
	return &TiktokenCounter{tke: tke, encoding: encoding}, nil
}

func (t *TiktokenCounter) Encoding() string {
	return t.encoding
}

func (t *TiktokenCounter) Count(texts []string) int {
	return len(t.tke.Encode(join(texts), nil, nil))
}

// NewCounter builds the counter for the given backend and model.
func NewCounter(backend Backend, model string) (Counter, error) {
	encoding := DefaultEncoding(model)
	switch backend {
	case BackendTokenizer, "":
		return NewCodecCounter(encoding)
	case BackendTiktoken:
		return NewTiktokenCounter(encoding)
	default:
		return nil, errors.Errorf("unknown tokenizer backend %q", backend)
	}
}

// CounterFunc adapts a plain function to the Counter interface.
type CounterFunc func(texts []string) int

func (f CounterFunc) Count(texts []string) int {
	return f(texts)
}

// estimate is roughly four characters per token.
func estimate(s string) int {
	n := len([]rune(s))
	return (n + 3) / 4
}
