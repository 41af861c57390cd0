package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neurodir/neurodir/internal/identity"
	"github.com/neurodir/neurodir/internal/users"
)

// accountAuthSvc is the subset of users.UserService used by AuthHandler.
type accountAuthSvc interface {
	Signup(ctx context.Context, email, password, username, displayName string) (*users.SignupResult, error)
	Login(ctx context.Context, email, password string) (*users.User, error)
	Confirm(ctx context.Context, uid, code, signupSession string) (*users.ConfirmResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, uid, code, newPassword string) error
	ReactivateFromLink(ctx context.Context, uid, code string) error
}

// AuthHandler handles account authentication and every emailed-link route.
type AuthHandler struct {
	users    accountAuthSvc
	sessions *identity.SessionIssuer
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(userSvc accountAuthSvc, sessions *identity.SessionIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: userSvc, sessions: sessions, logger: logger}
}

// Register mounts all auth routes on the provided router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.GET("/confirm", h.Confirm)
		auth.POST("/confirm", h.Confirm)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.GET("/reactivate", h.Reactivate)
	}
}

// ─── Request types ───────────────────────────────────────────────────────────

type signupRequest struct {
	Email       string `json:"email"        binding:"required,email"`
	Password    string `json:"password"     binding:"required"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type confirmRequest struct {
	UID           string `json:"uid"`
	Token         string `json:"token"`
	SignupSession string `json:"signup_session"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	UID      string `json:"uid"      binding:"required"`
	Token    string `json:"token"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ─── Handlers ────────────────────────────────────────────────────────────────

// Signup handles POST /auth/signup — creates a new inactive account and
// sends the confirmation email.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.users.Signup(c.Request.Context(), req.Email, req.Password, req.Username, req.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateEmail):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, users.ErrDuplicateUsername):
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		default:
			h.logger.Error("signup", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":           res.User,
		"signup_session": res.SignupSession,
		"note":           "A confirmation email has been sent. Follow the link to activate your account.",
	})
}

// Login handles POST /auth/login — authenticates with email/password and
// issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	tok, err := h.sessions.Issue(u.ID.String(), u.Email, u.Username)
	if err != nil {
		h.logger.Error("issue session after login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u, "token": tok})
}

// Confirm handles GET and POST /auth/confirm — consumes the emailed
// confirmation link. GET takes uid/token/signup_session as query
// parameters (the emailed link itself); POST takes a JSON body.
func (h *AuthHandler) Confirm(c *gin.Context) {
	req := confirmRequest{
		UID:           c.Query("uid"),
		Token:         c.Query("token"),
		SignupSession: c.Query("signup_session"),
	}
	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.UID == "" || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid and token are required"})
		return
	}

	res, err := h.users.Confirm(c.Request.Context(), req.UID, req.Token, req.SignupSession)
	if err != nil {
		if errors.Is(err, users.ErrInvalidToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("confirm account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation failed"})
		return
	}

	body := gin.H{"user": res.User, "first_login": res.FirstLogin}
	if res.SessionToken != "" {
		body["token"] = res.SessionToken
	}
	c.JSON(http.StatusOK, body)
}

// ForgotPassword handles POST /auth/forgot-password. The response never
// reveals whether the address is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.logger.Error("forgot password", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"note": "If the address is registered, a reset email has been sent.",
	})
}

// ResetPassword handles POST /auth/reset-password — consumes the emailed
// reset link and sets a new password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), req.UID, req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidToken), errors.Is(err, users.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("reset password", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"note": "Password updated. You can now log in."})
}

// Reactivate handles GET /auth/reactivate — the emailed link that brings a
// deactivated account back and re-links its directory entry.
func (h *AuthHandler) Reactivate(c *gin.Context) {
	uid, token := c.Query("uid"), c.Query("token")
	if uid == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid and token are required"})
		return
	}

	if err := h.users.ReactivateFromLink(c.Request.Context(), uid, token); err != nil {
		if errors.Is(err, users.ErrInvalidToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("reactivate account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reactivation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"note": "Your account has been reactivated."})
}
