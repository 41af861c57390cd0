package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurodir/neurodir/internal/directory/handler"
	"github.com/neurodir/neurodir/internal/directory/model"
	"github.com/neurodir/neurodir/internal/directory/service"
	"github.com/neurodir/neurodir/internal/identity"
)

type stubRecSvc struct {
	createErr error
	sample    []*model.Recommendation

	gotProfileID uuid.UUID
	gotInput     service.RecommendationInput
	gotReviewer  *uuid.UUID
}

func (s *stubRecSvc) Create(_ context.Context, profileID uuid.UUID, in service.RecommendationInput, reviewerUserID *uuid.UUID) (*model.Recommendation, error) {
	s.gotProfileID = profileID
	s.gotInput = in
	s.gotReviewer = reviewerUserID
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &model.Recommendation{ID: uuid.New(), ProfileID: profileID, ReviewerName: in.ReviewerName, Comment: in.Comment}, nil
}

func (s *stubRecSvc) Sample(_ context.Context) ([]*model.Recommendation, error) {
	if s.sample == nil {
		return []*model.Recommendation{}, nil
	}
	return s.sample, nil
}

func setupRecommendationRouter(t *testing.T, svc *stubRecSvc) (*gin.Engine, *identity.SessionIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	sessions := identity.NewSessionIssuer([]byte("test-secret"), "https://directory.test", time.Hour)
	handler.NewRecommendationHandler(svc, sessions, zap.NewNop()).Register(r.Group("/api/v1"))
	return r, sessions
}

func TestCreateRecommendation_201_anonymous(t *testing.T) {
	svc := &stubRecSvc{}
	router, _ := setupRecommendationRouter(t, svc)

	profileID := uuid.New()
	body := `{"reviewer_name":"Bob Brainstem","comment":"Excellent collaborator."}`
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/profiles/"+profileID.String()+"/recommendations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotProfileID != profileID {
		t.Error("profile ID not forwarded")
	}
	if svc.gotReviewer != nil {
		t.Error("anonymous submission must not carry a reviewer user")
	}
}

func TestCreateRecommendation_201_recordsSessionUser(t *testing.T) {
	svc := &stubRecSvc{}
	router, sessions := setupRecommendationRouter(t, svc)

	userID := uuid.New()
	token, err := sessions.Issue(userID.String(), "bob@example.org", "bob")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	body := `{"reviewer_name":"Bob","comment":"Great."}`
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/profiles/"+uuid.New().String()+"/recommendations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotReviewer == nil || *svc.gotReviewer != userID {
		t.Error("session user not recorded as reviewer")
	}
}

func TestCreateRecommendation_403_self(t *testing.T) {
	svc := &stubRecSvc{createErr: service.ErrSelfRecommendation}
	router, _ := setupRecommendationRouter(t, svc)

	body := `{"reviewer_name":"Alice","comment":"I am great."}`
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/profiles/"+uuid.New().String()+"/recommendations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestCreateRecommendation_400_missingFields(t *testing.T) {
	router, _ := setupRecommendationRouter(t, &stubRecSvc{})

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/profiles/"+uuid.New().String()+"/recommendations",
		strings.NewReader(`{"reviewer_name":"Bob"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSampleRecommendations_200(t *testing.T) {
	svc := &stubRecSvc{sample: []*model.Recommendation{
		{ID: uuid.New(), ReviewerName: "Bob", Comment: "Great."},
		{ID: uuid.New(), ReviewerName: "Carol", Comment: "Brilliant."},
	}}
	router, _ := setupRecommendationRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/sample", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp["recommendations"].([]any)) != 2 {
		t.Errorf("expected 2 recommendations, got %v", resp["recommendations"])
	}
}
