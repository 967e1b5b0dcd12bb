package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/viaantech/resume-ranking/internal/types"
)

// handleListSubmissions lists all submissions, newest first.
func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.submissions.List(r.Context())
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "failed to list submissions")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"count":       len(subs),
	})
}

// handleGetSubmission retrieves one submission by id. The response carries the
// current status and, for failed submissions, the human-readable reason; retry
// internals are never exposed.
func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	sub, err := s.submissions.Get(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "submission not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, sub)
}

// handleListParsedResumes lists all parsed resume records.
func (s *Server) handleListParsedResumes(w http.ResponseWriter, r *http.Request) {
	records, err := s.parsed.List(r.Context())
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "failed to list parsed resumes")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"parsed_resumes": records,
		"count":          len(records),
	})
}

// handleListAnalyses lists all analysis results.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	records, err := s.analyses.List(r.Context())
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "failed to list analyses")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"analyses": records,
		"count":    len(records),
	})
}

// handleGetAnalysis retrieves one analysis result by id.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid analysis id")
		return
	}

	ar, err := s.analyses.Get(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "analysis not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, ar)
}

// handleListRanked serves the ranked-candidate view: every submission joined
// with its analysis, score-ordered with rank numbers assigned. sort selects
// score (default), experience, skills, or newest; filter narrows to
// high_score, senior, or recent.
func (s *Server) handleListRanked(w http.ResponseWriter, r *http.Request) {
	sortBy, ok := types.ParseRankSort(r.URL.Query().Get("sort"))
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "unrecognized sort")
		return
	}
	filter, ok := types.ParseRankFilter(r.URL.Query().Get("filter"))
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "unrecognized filter")
		return
	}

	rows, err := s.ranked.ListRanked(r.Context())
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "failed to list ranked resumes")
		return
	}

	ranked := types.RankResumes(rows, sortBy, filter, time.Now())
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"resumes": ranked,
		"count":   len(ranked),
	})
}

// handleHealth returns the aggregate pipeline health projection.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.health.Health(r.Context())
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "failed to compute health")
		return
	}
	s.jsonResponse(w, http.StatusOK, health)
}
