package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	reviewengine "arbiter/contexts/event-review/review-engine"
	"arbiter/contexts/event-review/review-engine/domain/entities"
	reviewhttp "arbiter/contexts/event-review/review-engine/transport/http"
	authorization "arbiter/contexts/identity-access/authorization-service"
	"arbiter/internal/platform/metrics"
)

func newTestServer(t *testing.T) (*Server, reviewengine.Module) {
	t.Helper()
	review := reviewengine.NewInMemoryModule(nil)
	review.Store.SetApplication(entities.Application{
		ApplicationID: "app-1",
		EventID:       "event-1",
		ApplicantID:   "applicant-1",
		Stage:         entities.StageScreening,
		Status:        entities.StatusUnderReview,
	})
	review.Store.SetCriteria("event-1", entities.StageScreening, []entities.Criterion{
		{CriterionID: "crit-1", EventID: "event-1", Stage: entities.StageScreening, Name: "Feasibility", Category: "technical", Weight: 1, Order: 1},
	})
	review.Store.SetAssignment(entities.ReviewerAssignment{
		ApplicationID: "app-1",
		Stage:         entities.StageScreening,
		ReviewerID:    "reviewer-1",
	})
	authz := authorization.NewInMemoryModule(nil)
	return New(review, authz, metrics.New("arbiter-test"), nil, ":0"), review
}

func doJSON(t *testing.T, handler http.Handler, method string, target string, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServerRequiresCallerIdentity(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodPost, "/api/review/v1/evaluations", "", reviewhttp.StartEvaluationRequest{
		ApplicationID: "app-1",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestServerEvaluationRoutes(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/review/v1/evaluations", "reviewer-1", reviewhttp.StartEvaluationRequest{
		ApplicationID: "app-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var evaluation reviewhttp.EvaluationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &evaluation); err != nil {
		t.Fatalf("decode evaluation failed: %v", err)
	}
	if evaluation.Version != 1 {
		t.Fatalf("expected version 1, got %d", evaluation.Version)
	}

	// Unassigned caller is forbidden.
	rec = doJSON(t, handler, http.MethodPost, "/api/review/v1/evaluations", "reviewer-9", reviewhttp.StartEvaluationRequest{
		ApplicationID: "app-1",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/review/v1/evaluations/"+evaluation.EvaluationID+"/scores", "reviewer-1", reviewhttp.SubmitScoreRequest{
		CriterionID:     "crit-1",
		Value:           8,
		ExpectedVersion: evaluation.Version,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Stale version maps to 409.
	rec = doJSON(t, handler, http.MethodPost, "/api/review/v1/evaluations/"+evaluation.EvaluationID+"/scores", "reviewer-1", reviewhttp.SubmitScoreRequest{
		CriterionID:     "crit-1",
		Value:           9,
		ExpectedVersion: 1,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// Out-of-range score maps to 422.
	rec = doJSON(t, handler, http.MethodPost, "/api/review/v1/evaluations/"+evaluation.EvaluationID+"/scores", "reviewer-1", reviewhttp.SubmitScoreRequest{
		CriterionID:     "crit-1",
		Value:           42,
		ExpectedVersion: 2,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/review/v1/applications/app-1/consensus", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var data reviewhttp.ConsensusDataResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("decode consensus data failed: %v", err)
	}
	if data.QuorumMet {
		t.Fatalf("expected quorum not met before completion")
	}

	// Unknown application maps to 404.
	rec = doJSON(t, handler, http.MethodGet, "/api/review/v1/applications/app-404/consensus", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestServerAuthzRoutes(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/authz/v1/roles/grant", "admin-1", map[string]string{
		"user_id":  "chair-1",
		"event_id": "event-1",
		"role":     "DECISION_MAKER",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/authz/v1/roles/grant", "admin-1", map[string]string{
		"user_id":  "chair-1",
		"event_id": "event-1",
		"role":     "SUPERUSER",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for invalid role, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/authz/v1/users/chair-1/roles?event_id=event-1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
}
