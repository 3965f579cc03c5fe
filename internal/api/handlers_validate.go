package api

import (
	"net/http"
	"time"

	"github.com/dgallion1/quotecheck/internal/confidence"
	"github.com/dgallion1/quotecheck/internal/fuzzy"
	"github.com/dgallion1/quotecheck/internal/quote"
)

const defaultBestMatchThreshold = 0.90

type validateRequest struct {
	Quote        string   `json:"quote"`
	DocumentText string   `json:"document_text"`
	Threshold    *float64 `json:"threshold"`
	WindowSize   *int     `json:"window_size"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !s.decode(w, r, &req) {
		return
	}

	v := s.validator
	if req.Threshold != nil || req.WindowSize != nil {
		opts := v.Options()
		if req.Threshold != nil {
			opts.Threshold = *req.Threshold
		}
		if req.WindowSize != nil {
			opts.WindowSize = *req.WindowSize
		}
		var err error
		if v, err = quote.NewValidator(v.Scorer(), opts); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	start := time.Now()
	res, err := v.Validate(r.Context(), req.Quote, req.DocumentText)
	if err != nil {
		jsonError(w, "validation cancelled", http.StatusServiceUnavailable)
		return
	}
	if s.latency != nil {
		s.latency.Record(time.Since(start))
	}
	writeJSON(w, http.StatusOK, res)
}

type similarityRequest struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Method string `json:"method"`
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := fuzzy.ParseMethod(req.Method)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	score, err := s.validator.Scorer().Score(req.A, req.B, m)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"score":    score,
		"method":   m,
		"degraded": s.validator.Scorer().Degraded(),
	})
}

type bestMatchRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	Threshold  *float64 `json:"threshold"`
}

func (s *Server) handleBestMatch(w http.ResponseWriter, r *http.Request) {
	var req bestMatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	threshold := defaultBestMatchThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 1 {
		jsonError(w, "threshold must be within [0, 1]", http.StatusBadRequest)
		return
	}
	match, score, idx := s.validator.Scorer().BestMatch(req.Query, req.Candidates, threshold)
	writeJSON(w, http.StatusOK, map[string]any{
		"match": match,
		"score": score,
		"index": idx,
	})
}

type confidenceRequest struct {
	Scores     []float64 `json:"scores"`
	TotalItems int       `json:"total_items"`
	Threshold  *float64  `json:"threshold"`
}

func (s *Server) handleConfidence(w http.ResponseWriter, r *http.Request) {
	var req confidenceRequest
	if !s.decode(w, r, &req) {
		return
	}
	threshold := s.validator.Options().Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if req.TotalItems < 0 {
		jsonError(w, "total_items must not be negative", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, confidence.Aggregate(req.Scores, req.TotalItems, threshold))
}
