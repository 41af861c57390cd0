package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurodir/neurodir/internal/directory/handler"
	"github.com/neurodir/neurodir/internal/directory/model"
	"github.com/neurodir/neurodir/internal/directory/repository"
	"github.com/neurodir/neurodir/internal/directory/search"
	"github.com/neurodir/neurodir/internal/directory/service"
)

type stubDirectorySvc struct {
	result  *service.SearchResult
	profile *model.Profile

	gotQuery   string
	gotFilters search.Filters
	gotPage    int
}

func (s *stubDirectorySvc) Search(_ context.Context, query string, filters search.Filters, page int) (*service.SearchResult, error) {
	s.gotQuery = query
	s.gotFilters = filters
	s.gotPage = page
	if s.result == nil {
		return &service.SearchResult{Profiles: []*model.Profile{}, Page: page, TotalPages: 1}, nil
	}
	return s.result, nil
}

func (s *stubDirectorySvc) GetProfile(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	if s.profile != nil && s.profile.ID == id {
		return s.profile, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubDirectorySvc) Countries(_ context.Context) ([]model.CountrySummary, error) {
	return []model.CountrySummary{{Code: "KE", Name: "Kenya"}}, nil
}

func (s *stubDirectorySvc) Positions(_ context.Context) ([]model.PositionCount, error) {
	return []model.PositionCount{{Position: "Professor", Count: 3}}, nil
}

type stubRecLister struct {
	recs []*model.Recommendation
}

func (s *stubRecLister) ListForProfile(_ context.Context, _ uuid.UUID) ([]*model.Recommendation, error) {
	if s.recs == nil {
		return []*model.Recommendation{}, nil
	}
	return s.recs, nil
}

func setupDirectoryRouter(t *testing.T, svc *stubDirectorySvc, recs *stubRecLister) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/api/v1")
	handler.NewDirectoryHandler(svc, recs, zap.NewNop()).Register(v1)
	handler.NewAggregateHandler(svc, zap.NewNop()).Register(v1)
	return r
}

func TestListProfiles_200(t *testing.T) {
	svc := &stubDirectorySvc{result: &service.SearchResult{
		Profiles:   []*model.Profile{{ID: uuid.New(), Name: "Alice Cortex", IsPublic: true}},
		Total:      1,
		Page:       1,
		TotalPages: 1,
	}}
	router := setupDirectoryRouter(t, svc, &stubRecLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles?s=cortex&ur=1&senior=true&page=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotQuery != "cortex" || svc.gotPage != 2 {
		t.Errorf("query/page not forwarded: %q page %d", svc.gotQuery, svc.gotPage)
	}
	if !svc.gotFilters.UnderRepresentedOnly || !svc.gotFilters.SeniorOnly {
		t.Errorf("filters not forwarded: %+v", svc.gotFilters)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if int(resp["total"].(float64)) != 1 {
		t.Errorf("total = %v", resp["total"])
	}
}

func TestGetProfile_200_withRecommendations(t *testing.T) {
	p := &model.Profile{ID: uuid.New(), Name: "Alice Cortex", IsPublic: true}
	recs := &stubRecLister{recs: []*model.Recommendation{
		{ID: uuid.New(), ProfileID: p.ID, ReviewerName: "Bob", Comment: "Great."},
	}}
	router := setupDirectoryRouter(t, &stubDirectorySvc{profile: p}, recs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/"+p.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp["recommendations"].([]any)) != 1 {
		t.Errorf("expected 1 recommendation, got %v", resp["recommendations"])
	}
}

func TestGetProfile_404(t *testing.T) {
	router := setupDirectoryRouter(t, &stubDirectorySvc{}, &stubRecLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetProfile_400_invalidID(t *testing.T) {
	router := setupDirectoryRouter(t, &stubDirectorySvc{}, &stubRecLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCountries_200(t *testing.T) {
	router := setupDirectoryRouter(t, &stubDirectorySvc{}, &stubRecLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/countries", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	countries := resp["countries"].([]any)
	if len(countries) != 1 {
		t.Fatalf("expected 1 country, got %d", len(countries))
	}
	first := countries[0].(map[string]any)
	if first["code"] != "KE" || first["name"] != "Kenya" {
		t.Errorf("unexpected country %v", first)
	}
}

func TestPositions_200(t *testing.T) {
	router := setupDirectoryRouter(t, &stubDirectorySvc{}, &stubRecLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	positions := resp["positions"].([]any)
	if len(positions) != 1 {
		t.Fatalf("expected 1 position bucket, got %d", len(positions))
	}
}
