package llm

import (
	"context"
	"errors"
	"fmt"
)

// Media is an inline binary attachment sent alongside a prompt.
type Media struct {
	MIMEType string
	Data     []byte
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateJSON generates JSON content using the specified model tier.
	// Media parts are attached after the prompt; not every provider accepts them.
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier, media ...Media) (string, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// AudioTranscriber is implemented by providers with a dedicated speech-to-text endpoint.
type AudioTranscriber interface {
	TranscribeAudio(ctx context.Context, audio Media) (string, error)
}

var (
	_ Client           = (*GeminiClient)(nil)
	_ Client           = (*VertexClient)(nil)
	_ Client           = (*OpenAIClient)(nil)
	_ AudioTranscriber = (*OpenAIClient)(nil)
)

// ErrMediaUnsupported is returned by clients that cannot take inline media in a prompt.
var ErrMediaUnsupported = errors.New("provider does not accept inline media")

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderVertex:
		return NewVertexClient(ctx, config)
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}
