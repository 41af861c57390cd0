package handler_test

import (
	"context"
	"encoding/json"
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
	"github.com/neurodir/neurodir/internal/identity"
	"github.com/neurodir/neurodir/internal/users"
)

type stubAuthSvc struct {
	user       *users.User
	signupErr  error
	loginErr   error
	confirmErr error

	resetErr error

	gotUID      string
	gotToken    string
	gotSession  string
	resetCalled bool
}

func (s *stubAuthSvc) Signup(_ context.Context, email, _, username, _ string) (*users.SignupResult, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	u := &users.User{ID: uuid.New(), Email: email, Username: username}
	return &users.SignupResult{User: u, SignupSession: "marker"}, nil
}

func (s *stubAuthSvc) Login(_ context.Context, _, _ string) (*users.User, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.user, nil
}

func (s *stubAuthSvc) Confirm(_ context.Context, uid, token, signupSession string) (*users.ConfirmResult, error) {
	s.gotUID, s.gotToken, s.gotSession = uid, token, signupSession
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	return &users.ConfirmResult{User: s.user, FirstLogin: true, SessionToken: "session-token"}, nil
}

func (s *stubAuthSvc) ForgotPassword(_ context.Context, _ string) error { return nil }

func (s *stubAuthSvc) ResetPassword(_ context.Context, _, _, _ string) error {
	s.resetCalled = true
	return s.resetErr
}

func (s *stubAuthSvc) ReactivateFromLink(_ context.Context, _, _ string) error {
	return s.confirmErr
}

func setupAuthRouter(t *testing.T, svc *stubAuthSvc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	sessions := identity.NewSessionIssuer([]byte("test-secret"), "https://directory.test", time.Hour)
	handler.NewAuthHandler(svc, sessions, zap.NewNop()).Register(r.Group("/api/v1"))
	return r
}

func TestSignup_201(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{})

	body := `{"email":"alice@example.org","password":"correct horse"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["signup_session"] != "marker" {
		t.Errorf("expected the signup-session marker in the response")
	}
}

func TestSignup_409_duplicateEmail(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{signupErr: users.ErrDuplicateEmail})

	body := `{"email":"alice@example.org","password":"correct horse"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestSignup_400_missingEmail(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(`{"password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestLogin_200_issuesSession(t *testing.T) {
	u := &users.User{ID: uuid.New(), Email: "alice@example.org", Username: "alice", IsActive: true}
	router := setupAuthRouter(t, &stubAuthSvc{user: u})

	body := `{"email":"alice@example.org","password":"correct horse"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["token"] == nil || resp["token"] == "" {
		t.Error("expected a session token")
	}
}

func TestLogin_401(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{loginErr: users.ErrInvalidCredentials})

	body := `{"email":"alice@example.org","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestConfirm_GET_queryParams(t *testing.T) {
	svc := &stubAuthSvc{user: &users.User{ID: uuid.New(), IsActive: true}}
	router := setupAuthRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/auth/confirm?uid=abc&token=def&signup_session=marker", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotUID != "abc" || svc.gotToken != "def" || svc.gotSession != "marker" {
		t.Errorf("query params not forwarded: %q %q %q", svc.gotUID, svc.gotToken, svc.gotSession)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["token"] != "session-token" || resp["first_login"] != true {
		t.Errorf("expected auto-login payload, got %v", resp)
	}
}

func TestConfirm_400_invalidToken(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{confirmErr: users.ErrInvalidToken})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/confirm?uid=abc&token=def", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestConfirm_400_missingParams(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/confirm", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestForgotPassword_200_always(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{})

	body := `{"email":"nobody@example.org"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/forgot-password", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestResetPassword_200(t *testing.T) {
	svc := &stubAuthSvc{}
	router := setupAuthRouter(t, svc)

	body := `{"uid":"abc","token":"def","password":"new password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/reset-password", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !svc.resetCalled {
		t.Error("reset not forwarded to the service")
	}
}

func TestResetPassword_400_weakPassword(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{resetErr: users.ErrWeakPassword})

	body := `{"uid":"abc","token":"def","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/reset-password", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestResetPassword_500_storageError(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{resetErr: errors.New("set password: connection reset")})

	body := `{"uid":"abc","token":"def","password":"new password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/reset-password", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection reset") {
		t.Error("internal error detail must not reach the client")
	}
}

func TestReactivate_400_invalidToken(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{confirmErr: users.ErrInvalidToken})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/reactivate?uid=abc&token=def", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReactivate_200(t *testing.T) {
	router := setupAuthRouter(t, &stubAuthSvc{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/reactivate?uid=abc&token=def", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "reactivated") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}
