// Package types provides type definitions for structured data used throughout the interview service.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"math"
	"time"
)

// DefaultNumberOfQuestions is how many questions an interview asks when none is configured
const DefaultNumberOfQuestions = 3

// ErrStoreUnavailable is returned by every session store operation when the backing
// database is unreachable or was never configured.
var ErrStoreUnavailable = errors.New("session store unavailable")

// AnalysisResult is the record of one answered question.
// Nil fields mean "not yet computed" or "computation failed", never "computed as empty".
type AnalysisResult struct {
	Question      string  `json:"question" firestore:"question" msgpack:"question"`
	Transcription *string `json:"transcription" firestore:"transcription" msgpack:"transcription"`
	Feedback      *string `json:"feedback" firestore:"feedback" msgpack:"feedback"`
	Score         *int    `json:"score" firestore:"score" msgpack:"score"`
	GreatResponse *string `json:"greatResponse" firestore:"greatResponse" msgpack:"greatResponse"`
}

// Analysis is what the model returns when scoring a single answer
type Analysis struct {
	Feedback      string `json:"feedback"`
	Score         int    `json:"score" validate:"min=0,max=100"`
	GreatResponse string `json:"greatResponse"`
}

// InterviewSession is a completed, persisted interview.
// It is created only after every question was answered and the store accepted it.
type InterviewSession struct {
	ID                   string           `json:"id"`
	UserID               string           `json:"-"`
	JobCategory          string           `json:"jobCategory"`
	FormattedJobCategory string           `json:"formattedJobCategory"`
	Date                 time.Time        `json:"date"`
	Results              []AnalysisResult `json:"results"`
}

// NewAnalysisResult builds a fully computed result for question.
func NewAnalysisResult(question, transcription string, analysis Analysis) AnalysisResult {
	score := analysis.Score
	return AnalysisResult{
		Question:      question,
		Transcription: &transcription,
		Feedback:      &analysis.Feedback,
		Score:         &score,
		GreatResponse: &analysis.GreatResponse,
	}
}

// AverageScore returns the rounded mean of all non-nil scores, or 0 when nothing was scored.
func AverageScore(results []AnalysisResult) int {
	total, n := 0, 0
	for _, r := range results {
		if r.Score == nil {
			continue
		}
		total += *r.Score
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(n)))
}

// CloneResults returns a deep copy so callers cannot mutate the owner's records.
func CloneResults(results []AnalysisResult) []AnalysisResult {
	if results == nil {
		return nil
	}
	out := make([]AnalysisResult, len(results))
	for i, r := range results {
		out[i] = AnalysisResult{
			Question:      r.Question,
			Transcription: cloneString(r.Transcription),
			Feedback:      cloneString(r.Feedback),
			Score:         cloneInt(r.Score),
			GreatResponse: cloneString(r.GreatResponse),
		}
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
