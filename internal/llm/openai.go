package llm

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client and AudioTranscriber for the OpenAI API
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), config: config}, nil
}

// GenerateJSON generates JSON content in JSON-object mode. Inline media are not supported;
// audio goes through TranscribeAudio instead.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier, media ...Media) (string, error) {
	if len(media) > 0 {
		return "", ErrMediaUnsupported
	}

	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return CleanJSONBlock(resp.Choices[0].Message.Content), nil
}

// TranscribeAudio sends the recording to the speech-to-text endpoint.
func (c *OpenAIClient) TranscribeAudio(ctx context.Context, audio Media) (string, error) {
	model := c.config.TranscriptionModel
	if model == "" {
		model = openai.Whisper1
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    model,
		FilePath: audioFileName(audio.MIMEType),
		Reader:   bytes.NewReader(audio.Data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return resp.Text, nil
}

// GetModel returns the model name for a tier
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op for the HTTP based client
func (c *OpenAIClient) Close() error {
	return nil
}

// audioFileName picks a file name whose extension tells the API the container format.
func audioFileName(mimeType string) string {
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		base = mimeType
	}
	switch strings.ToLower(base) {
	case "audio/mpeg", "audio/mp3":
		return "answer.mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "answer.wav"
	case "audio/ogg":
		return "answer.ogg"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "answer.m4a"
	case "audio/flac":
		return "answer.flac"
	default:
		return "answer.webm"
	}
}
