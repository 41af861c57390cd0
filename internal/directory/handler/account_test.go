package handler_test

import (
	"context"
	"errors"
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
	"github.com/neurodir/neurodir/internal/directory/repository"
	"github.com/neurodir/neurodir/internal/identity"
	"github.com/neurodir/neurodir/internal/users"
)

type stubAccountSvc struct {
	user    *users.User
	profile *model.Profile

	claimErr        error
	passwordErr     error
	deletionCalled  bool
	profileDeleted  bool
	savedInput      *users.ProfileInput
	suggestionsText string
}

func (s *stubAccountSvc) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, users.ErrNotFound
}

func (s *stubAccountSvc) UpdateAccount(_ context.Context, _ uuid.UUID, _, displayName, email string) (*users.User, bool, error) {
	u := *s.user
	if displayName != "" {
		u.DisplayName = displayName
	}
	emailChanged := email != "" && email != u.Email
	if emailChanged {
		u.Email = email
		u.IsActive = false
	}
	return &u, emailChanged, nil
}

func (s *stubAccountSvc) ChangePassword(_ context.Context, _ uuid.UUID, current, _ string) error {
	if s.passwordErr != nil {
		return s.passwordErr
	}
	if current != "correct horse" {
		return users.ErrInvalidCredentials
	}
	return nil
}

func (s *stubAccountSvc) DeleteAccount(_ context.Context, _ uuid.UUID) error {
	s.deletionCalled = true
	s.user = nil
	return nil
}

func (s *stubAccountSvc) GetOwnProfile(_ context.Context, _ uuid.UUID) (*model.Profile, error) {
	if s.profile == nil {
		return nil, repository.ErrNotFound
	}
	return s.profile, nil
}

func (s *stubAccountSvc) SaveOwnProfile(_ context.Context, userID uuid.UUID, in users.ProfileInput) (*model.Profile, bool, error) {
	s.savedInput = &in
	created := s.profile == nil
	p := &model.Profile{ID: uuid.New(), Name: in.Name, UserID: &userID}
	s.profile = p
	return p, created, nil
}

func (s *stubAccountSvc) DeleteOwnProfile(_ context.Context, _ uuid.UUID) error {
	s.profileDeleted = true
	return nil
}

func (s *stubAccountSvc) ClaimProfile(_ context.Context, userID, profileID uuid.UUID) (*model.Profile, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	return &model.Profile{ID: profileID, UserID: &userID}, nil
}

func (s *stubAccountSvc) ClaimSuggestions(_ context.Context, _ uuid.UUID, searchText string) ([]*model.Profile, error) {
	s.suggestionsText = searchText
	return []*model.Profile{{ID: uuid.New(), Name: "Alice Cortex"}}, nil
}

func setupAccountRouter(t *testing.T, svc *stubAccountSvc) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	sessions := identity.NewSessionIssuer([]byte("test-secret"), "https://directory.test", time.Hour)
	handler.NewAccountHandler(svc, sessions, zap.NewNop()).Register(r.Group("/api/v1"))

	token, err := sessions.Issue(svc.user.ID.String(), svc.user.Email, svc.user.Username)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return r, token
}

func activeUser() *users.User {
	return &users.User{
		ID:          uuid.New(),
		Username:    "alice",
		DisplayName: "Alice",
		Email:       "alice@example.org",
		IsActive:    true,
	}
}

func doAuthed(router *gin.Engine, token, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMe_200(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodGet, "/api/v1/users/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMe_401_withoutToken(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, _ := setupAccountRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMe_401_garbageToken(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, _ := setupAccountRouter(t, svc)

	w := doAuthed(router, "not-a-jwt", http.MethodGet, "/api/v1/users/me", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMe_401_deactivatedAccount(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	// The token is still valid, but the account behind it is not.
	svc.user.IsActive = false

	w := doAuthed(router, token, http.MethodGet, "/api/v1/users/me", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a deactivated account, got %d", w.Code)
	}
}

func TestClaim_401_deactivatedAccount(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	svc.user.IsActive = false

	w := doAuthed(router, token, http.MethodPost, "/api/v1/profiles/"+uuid.New().String()+"/claim", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a deactivated account, got %d", w.Code)
	}
}

func TestUpdateAccount_emailChangeNote(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodPatch, "/api/v1/users/me",
		`{"email":"alice@new.org"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Confirm your new email") {
		t.Error("expected the reconfirmation note on an email change")
	}
}

func TestChangePassword_400_wrongCurrent(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodPost, "/api/v1/users/me/password",
		`{"current_password":"wrong","new_password":"longenough"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChangePassword_500_storageError(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser(), passwordErr: errors.New("update users: connection reset")}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodPost, "/api/v1/users/me/password",
		`{"current_password":"correct horse","new_password":"longenough"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection reset") {
		t.Error("internal error detail must not reach the client")
	}
}

func TestDeleteAccount_200(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodDelete, "/api/v1/users/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !svc.deletionCalled {
		t.Error("deletion not forwarded to the service")
	}

	// The session is useless once the account is gone.
	w = doAuthed(router, token, http.MethodGet, "/api/v1/users/me", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after deletion, got %d", w.Code)
	}
}

func TestGetOwnProfile_404_whenNone(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodGet, "/api/v1/users/me/profile", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSaveOwnProfile_201_created(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	body := `{"name":"Alice Cortex","brain_structure":["CORT"],"is_public":true}`
	w := doAuthed(router, token, http.MethodPut, "/api/v1/users/me/profile", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if svc.savedInput == nil || svc.savedInput.Name != "Alice Cortex" {
		t.Errorf("input not forwarded: %+v", svc.savedInput)
	}

	// Second save updates.
	w = doAuthed(router, token, http.MethodPut, "/api/v1/users/me/profile", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", w.Code)
	}
}

func TestSaveOwnProfile_400_badCountryID(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	body := `{"name":"Alice","country_id":"not-a-uuid"}`
	w := doAuthed(router, token, http.MethodPut, "/api/v1/users/me/profile", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDeleteOwnProfile_200(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser(), profile: &model.Profile{ID: uuid.New()}}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodDelete, "/api/v1/users/me/profile", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !svc.profileDeleted {
		t.Error("profile deletion not forwarded")
	}
}

func TestClaim_200(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodPost, "/api/v1/profiles/"+uuid.New().String()+"/claim", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestClaim_409_alreadyClaimed(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser(), claimErr: repository.ErrAlreadyClaimed}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodPost, "/api/v1/profiles/"+uuid.New().String()+"/claim", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestClaim_409_alreadyHasProfile(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser(), claimErr: users.ErrAlreadyHasProfile}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodPost, "/api/v1/profiles/"+uuid.New().String()+"/claim", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestClaimSuggestions_200(t *testing.T) {
	svc := &stubAccountSvc{user: activeUser()}
	router, token := setupAccountRouter(t, svc)

	w := doAuthed(router, token, http.MethodGet, "/api/v1/users/me/profile/claim-suggestions?s=alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.suggestionsText != "alice" {
		t.Errorf("search text not forwarded: %q", svc.suggestionsText)
	}
}
