// Package gateway exposes the three AI operations used by an interview: question generation,
// answer transcription and answer analysis. Each call renders a prompt, asks the model for JSON,
// and validates the result against a declared output schema before decoding it.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/hired/internal/llm"
	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/prompts"
	"github.com/jonathan/hired/internal/schemas"
	"github.com/jonathan/hired/internal/types"
)

// Operation names, used in errors and logs
const (
	OpGenerateQuestions = "generate_questions"
	OpTranscribe        = "transcribe"
	OpAnalyzeAnswer     = "analyze_answer"
)

// render is swapped in tests.
var render = prompts.Render

// GenerateQuestionsInput is the request for GenerateQuestions
type GenerateQuestionsInput struct {
	JobCategory       string `json:"jobCategory" validate:"required"`
	NumberOfQuestions int    `json:"numberOfQuestions" validate:"min=1,max=20"`
}

// AnalyzeAnswerInput is the request for AnalyzeAnswer
type AnalyzeAnswerInput struct {
	Question    string `json:"question" validate:"required"`
	Answer      string `json:"answer"`
	JobCategory string `json:"jobCategory" validate:"required"`
}

// Gateway calls the model provider. It performs no retries and no caching.
type Gateway struct {
	client   llm.Client
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a Gateway over client.
func New(client llm.Client) *Gateway {
	return &Gateway{
		client:   client,
		validate: validator.New(),
		logger:   observability.WithFields("component", "gateway"),
	}
}

// GenerateQuestions asks the model for count interview questions for jobCategory.
// A count of zero means the default. The number returned is whatever the model produced.
func (g *Gateway) GenerateQuestions(ctx context.Context, jobCategory string, count int) ([]string, error) {
	if count == 0 {
		count = types.DefaultNumberOfQuestions
	}
	in := GenerateQuestionsInput{JobCategory: strings.TrimSpace(jobCategory), NumberOfQuestions: count}
	if err := g.validate.Struct(in); err != nil {
		return nil, &ValidationError{Operation: OpGenerateQuestions, Message: "invalid input", Cause: err}
	}

	prompt, err := render(prompts.Interview, prompts.GenerateQuestions, in)
	if err != nil {
		return nil, &UpstreamError{Operation: OpGenerateQuestions, Cause: err}
	}

	var out struct {
		Questions []string `json:"questions"`
	}
	if err := g.call(ctx, OpGenerateQuestions, prompt, llm.TierStandard, schemas.Questions, &out); err != nil {
		return nil, err
	}

	questions := make([]string, 0, len(out.Questions))
	for _, q := range out.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// Transcribe converts a recorded answer to text.
func (g *Gateway) Transcribe(ctx context.Context, rec types.AnswerRecording) (string, error) {
	if rec.Empty() {
		return "", &ValidationError{Operation: OpTranscribe, Message: "recording is empty"}
	}
	mimeType := rec.MIMEType
	if mimeType == "" {
		mimeType = types.DefaultAudioMIMEType
	}
	audio := llm.Media{MIMEType: mimeType, Data: rec.Data}

	if t, ok := g.client.(llm.AudioTranscriber); ok {
		text, err := t.TranscribeAudio(ctx, audio)
		if err != nil {
			return "", &UpstreamError{Operation: OpTranscribe, Cause: err}
		}
		return strings.TrimSpace(text), nil
	}

	prompt, err := render(prompts.Interview, prompts.TranscribeResponse, nil)
	if err != nil {
		return "", &UpstreamError{Operation: OpTranscribe, Cause: err}
	}

	var out struct {
		Transcription string `json:"transcription"`
	}
	if err := g.call(ctx, OpTranscribe, prompt, llm.TierLite, schemas.Transcription, &out, audio); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Transcription), nil
}

// AnalyzeAnswer scores an answer and returns feedback plus an example of a strong response.
// Fractional scores are rounded; scores outside 0-100 are rejected.
func (g *Gateway) AnalyzeAnswer(ctx context.Context, question, answer, jobCategory string) (types.Analysis, error) {
	in := AnalyzeAnswerInput{Question: question, Answer: answer, JobCategory: jobCategory}
	if err := g.validate.Struct(in); err != nil {
		return types.Analysis{}, &ValidationError{Operation: OpAnalyzeAnswer, Message: "invalid input", Cause: err}
	}

	prompt, err := render(prompts.Interview, prompts.AnalyzeAnswer, in)
	if err != nil {
		return types.Analysis{}, &UpstreamError{Operation: OpAnalyzeAnswer, Cause: err}
	}

	var out struct {
		Feedback      string  `json:"feedback"`
		Score         float64 `json:"score"`
		GreatResponse string  `json:"greatResponse"`
	}
	if err := g.call(ctx, OpAnalyzeAnswer, prompt, llm.TierAdvanced, schemas.Analysis, &out); err != nil {
		return types.Analysis{}, err
	}

	analysis := types.Analysis{
		Feedback:      strings.TrimSpace(out.Feedback),
		Score:         int(math.Round(out.Score)),
		GreatResponse: strings.TrimSpace(out.GreatResponse),
	}
	if err := g.validate.Struct(analysis); err != nil {
		return types.Analysis{}, &ValidationError{Operation: OpAnalyzeAnswer, Message: "model output out of range", Cause: err, Output: true}
	}
	return analysis, nil
}

// call runs one JSON-mode model request and decodes the validated result into out.
func (g *Gateway) call(ctx context.Context, op, prompt string, tier llm.ModelTier, schema string, out any, media ...llm.Media) error {
	log := g.logger.With("operation", op, "model", g.client.GetModel(tier))
	log.DebugContext(ctx, "calling model")

	raw, err := g.client.GenerateJSON(ctx, prompt, tier, media...)
	if err != nil {
		log.WarnContext(ctx, "model call failed", "error", err)
		return &UpstreamError{Operation: op, Cause: err}
	}

	fixed, err := llm.RepairJSON(llm.CleanJSONBlock(raw))
	if err != nil {
		return &ValidationError{Operation: op, Message: "model returned malformed JSON", Cause: err, Output: true}
	}

	if err := schemas.ValidateOutput(schema, fixed); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			log.WarnContext(ctx, "model output failed schema validation", "error", err)
			return &ValidationError{Operation: op, Message: "model output does not match schema", Cause: err, Output: true}
		}
		log.ErrorContext(ctx, "output schema could not be applied", "schema", schema, "error", err)
		return &ValidationError{Operation: op, Message: "model output could not be validated", Cause: err, Output: true}
	}

	if err := json.Unmarshal([]byte(fixed), out); err != nil {
		return &ValidationError{Operation: op, Message: "failed to decode model output", Cause: err, Output: true}
	}
	return nil
}
