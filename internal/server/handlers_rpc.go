package server

import (
	"net/http"

	"github.com/jonathan/hired/internal/types"
)

type generateQuestionsRequest struct {
	JobCategory       string `json:"jobCategory" validate:"required"`
	NumberOfQuestions int    `json:"numberOfQuestions" validate:"min=0,max=20"`
}

type transcribeRequest struct {
	AudioDataURI string `json:"audioDataUri" validate:"required"`
}

type analyzeAnswerRequest struct {
	Question    string `json:"question" validate:"required"`
	Answer      string `json:"answer"`
	JobCategory string `json:"jobCategory" validate:"required"`
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req generateQuestionsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.NumberOfQuestions == 0 {
		req.NumberOfQuestions = s.cfg.Interview.NumberOfQuestions
	}

	questions, err := s.ai.GenerateQuestions(r.Context(), req.JobCategory, req.NumberOfQuestions)
	if err != nil {
		failure(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	rec, err := types.ParseDataURI(req.AudioDataURI)
	if err != nil {
		failure(w, r, &ErrValidation{Field: "audioDataUri", Message: err.Error()})
		return
	}

	text, err := s.ai.Transcribe(r.Context(), rec)
	if err != nil {
		failure(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"transcription": text})
}

func (s *Server) handleAnalyzeAnswer(w http.ResponseWriter, r *http.Request) {
	var req analyzeAnswerRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	analysis, err := s.ai.AnalyzeAnswer(r.Context(), req.Question, req.Answer, req.JobCategory)
	if err != nil {
		failure(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, analysis)
}
