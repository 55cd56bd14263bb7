package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	reviewengine "arbiter/contexts/event-review/review-engine"
	reviewerrors "arbiter/contexts/event-review/review-engine/domain/errors"
	reviewhttp "arbiter/contexts/event-review/review-engine/transport/http"
	authorization "arbiter/contexts/identity-access/authorization-service"
	authzerrors "arbiter/contexts/identity-access/authorization-service/domain/errors"
	authzhttp "arbiter/contexts/identity-access/authorization-service/transport/http"
	"arbiter/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "arbiter/internal/platform/httpserver/docs"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	metrics       *metrics.Metrics
	review        reviewengine.Module
	authorization authorization.Module
}

func New(
	review reviewengine.Module,
	authorizationModule authorization.Module,
	m *metrics.Metrics,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		metrics:       m,
		review:        review,
		authorization: authorizationModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routing table for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.handleFunc("POST /api/review/v1/evaluations", s.handleStartEvaluation)
	s.handleFunc("POST /api/review/v1/evaluations/{evaluation_id}/scores", s.handleSubmitScore)
	s.handleFunc("POST /api/review/v1/evaluations/{evaluation_id}/complete", s.handleCompleteEvaluation)
	s.handleFunc("POST /api/review/v1/evaluations/{evaluation_id}/reopen", s.handleReopenEvaluation)
	s.handleFunc("GET /api/review/v1/applications/{application_id}/consensus", s.handleConsensusData)
	s.handleFunc("POST /api/review/v1/applications/{application_id}/consensus/decide", s.handleDecideConsensus)
	s.handleFunc("POST /api/review/v1/applications/{application_id}/stage/advance", s.handleAdvanceStage)
	s.handleFunc("POST /api/review/v1/applications/{application_id}/stage/reopen", s.handleReopenStage)

	s.handleFunc("POST /api/authz/v1/roles/grant", s.handleGrantRole)
	s.handleFunc("POST /api/authz/v1/roles/revoke", s.handleRevokeRole)
	s.handleFunc("GET /api/authz/v1/users/{user_id}/roles", s.handleListUserRoles)
}

func (s *Server) handleFunc(pattern string, handler http.HandlerFunc) {
	if s.metrics != nil {
		handler = s.metrics.Instrument(pattern, handler)
	}
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) handleStartEvaluation(w http.ResponseWriter, r *http.Request) {
	reviewerID := callerID(r)
	if reviewerID == "" {
		writeReviewError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req reviewhttp.StartEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReviewError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.StartEvaluationHandler(r.Context(), reviewerID, req)
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	reviewerID := callerID(r)
	if reviewerID == "" {
		writeReviewError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req reviewhttp.SubmitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReviewError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.SubmitScoreHandler(r.Context(), reviewerID, r.PathValue("evaluation_id"), req)
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteEvaluation(w http.ResponseWriter, r *http.Request) {
	reviewerID := callerID(r)
	if reviewerID == "" {
		writeReviewError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req reviewhttp.CompleteEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReviewError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.CompleteEvaluationHandler(r.Context(), reviewerID, r.PathValue("evaluation_id"), req)
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.EvaluationsDone.Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReopenEvaluation(w http.ResponseWriter, r *http.Request) {
	actorID := callerID(r)
	if actorID == "" {
		writeReviewError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req reviewhttp.ReopenEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReviewError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.ReopenEvaluationHandler(r.Context(), actorID, r.PathValue("evaluation_id"), req)
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConsensusData(w http.ResponseWriter, r *http.Request) {
	resp, err := s.review.Handler.ConsensusDataHandler(
		r.Context(),
		r.PathValue("application_id"),
		r.URL.Query().Get("stage"),
	)
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecideConsensus(w http.ResponseWriter, r *http.Request) {
	actorID := callerID(r)
	if actorID == "" {
		writeReviewError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req reviewhttp.DecideConsensusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReviewError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.DecideConsensusHandler(r.Context(), actorID, r.PathValue("application_id"), req)
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ConsensusDecided.Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdvanceStage(w http.ResponseWriter, r *http.Request) {
	actorID := callerID(r)
	if actorID == "" {
		writeReviewError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req reviewhttp.AdvanceStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReviewError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.AdvanceStageHandler(r.Context(), actorID, r.PathValue("application_id"), req)
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReopenStage(w http.ResponseWriter, r *http.Request) {
	actorID := callerID(r)
	if actorID == "" {
		writeReviewError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req reviewhttp.ReopenStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReviewError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.review.Handler.ReopenStageHandler(r.Context(), actorID, r.PathValue("application_id"), req)
	if err != nil {
		writeReviewDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	adminID := callerID(r)
	if adminID == "" {
		writeAuthzError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req authzhttp.GrantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.authorization.Handler.GrantRoleHandler(r.Context(), adminID, req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	adminID := callerID(r)
	if adminID == "" {
		writeAuthzError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req authzhttp.RevokeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthzError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.authorization.Handler.RevokeRoleHandler(r.Context(), adminID, req)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListUserRoles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.authorization.Handler.UserRolesHandler(
		r.Context(),
		r.PathValue("user_id"),
		r.URL.Query().Get("event_id"),
	)
	if err != nil {
		writeAuthzDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeReviewDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reviewerrors.ErrInvalidInput):
		writeReviewError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, reviewerrors.ErrScoreOutOfRange),
		errors.Is(err, reviewerrors.ErrInvalidConfidence),
		errors.Is(err, reviewerrors.ErrInvalidDecision),
		errors.Is(err, reviewerrors.ErrMissingRequiredCriterion),
		errors.Is(err, reviewerrors.ErrNoCriteriaConfigured),
		errors.Is(err, reviewerrors.ErrDiscussionNotesRequired),
		errors.Is(err, reviewerrors.ErrOverrideReasonRequired):
		writeReviewError(w, http.StatusUnprocessableEntity, "unprocessable", err.Error())
	case errors.Is(err, reviewerrors.ErrApplicationNotFound),
		errors.Is(err, reviewerrors.ErrEvaluationNotFound),
		errors.Is(err, reviewerrors.ErrCriterionNotFound),
		errors.Is(err, reviewerrors.ErrConsensusNotFound):
		writeReviewError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, reviewerrors.ErrNotAssignedReviewer),
		errors.Is(err, reviewerrors.ErrNotDecisionMaker):
		writeReviewError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, reviewerrors.ErrVersionConflict),
		errors.Is(err, reviewerrors.ErrAlreadyDecided),
		errors.Is(err, reviewerrors.ErrEvaluationCompleted),
		errors.Is(err, reviewerrors.ErrEvaluationNotCompleted),
		errors.Is(err, reviewerrors.ErrConsensusNotDecided),
		errors.Is(err, reviewerrors.ErrInsufficientQuorum),
		errors.Is(err, reviewerrors.ErrReviewClosed),
		errors.Is(err, reviewerrors.ErrStageTerminal),
		errors.Is(err, reviewerrors.ErrInvalidReopenTarget):
		writeReviewError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeReviewError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAuthzDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authzerrors.ErrInvalidInput):
		writeAuthzError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, authzerrors.ErrInvalidRole):
		writeAuthzError(w, http.StatusUnprocessableEntity, "invalid_role", err.Error())
	case errors.Is(err, authzerrors.ErrGrantNotFound):
		writeAuthzError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeAuthzError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeReviewError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, reviewhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeAuthzError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, authzhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func callerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}
