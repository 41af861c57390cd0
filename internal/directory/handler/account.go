package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurodir/neurodir/internal/directory/model"
	"github.com/neurodir/neurodir/internal/directory/repository"
	"github.com/neurodir/neurodir/internal/identity"
	"github.com/neurodir/neurodir/internal/users"
)

// accountSvc is the subset of users.UserService used by AccountHandler.
type accountSvc interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	UpdateAccount(ctx context.Context, userID uuid.UUID, username, displayName, email string) (*users.User, bool, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	GetOwnProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	SaveOwnProfile(ctx context.Context, userID uuid.UUID, in users.ProfileInput) (*model.Profile, bool, error)
	DeleteOwnProfile(ctx context.Context, userID uuid.UUID) error
	ClaimProfile(ctx context.Context, userID, profileID uuid.UUID) (*model.Profile, error)
	ClaimSuggestions(ctx context.Context, userID uuid.UUID, searchText string) ([]*model.Profile, error)
}

// AccountHandler handles the authenticated account and own-profile routes.
type AccountHandler struct {
	svc      accountSvc
	sessions *identity.SessionIssuer
	logger   *zap.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(svc accountSvc, sessions *identity.SessionIssuer, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, sessions: sessions, logger: logger}
}

// Register mounts the account routes on the provided router group. All of
// them require a valid session backed by a live, active account.
func (h *AccountHandler) Register(rg *gin.RouterGroup) {
	me := rg.Group("/users/me", identity.RequireSession(h.sessions), h.requireActiveAccount)
	{
		me.GET("", h.Me)
		me.PATCH("", h.Update)
		me.POST("/password", h.ChangePassword)
		me.DELETE("", h.Delete)
		me.GET("/profile", h.GetProfile)
		me.PUT("/profile", h.SaveProfile)
		me.DELETE("/profile", h.DeleteProfile)
		me.GET("/profile/claim-suggestions", h.ClaimSuggestions)
	}
	rg.POST("/profiles/:id/claim", identity.RequireSession(h.sessions), h.requireActiveAccount, h.Claim)
}

// requireActiveAccount re-checks the account behind the session on every
// request. Session tokens outlive deactivation (email change, deletion), so
// a valid signature alone is not proof of an active account.
func (h *AccountHandler) requireActiveAccount(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.Abort()
		return
	}

	u, err := h.svc.GetByID(c.Request.Context(), uid)
	switch {
	case err == nil && u.IsActive:
		c.Next()
	case err == nil || errors.Is(err, users.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	default:
		h.logger.Error("load account for session check", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
	}
}

// currentUserID extracts the authenticated user's UUID from the session
// claims injected by RequireSession.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	claims := identity.SessionClaimsFromCtx(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, false
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID in token"})
		return uuid.Nil, false
	}
	return uid, true
}

// ─── Account ─────────────────────────────────────────────────────────────────

// Me handles GET /users/me — the authenticated account.
func (h *AccountHandler) Me(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	u, err := h.svc.GetByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		h.logger.Error("get account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type updateAccountRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Update handles PATCH /users/me — edits account fields. Changing the
// email deactivates the account until the new address is confirmed, which
// also ends the current session's usefulness for login-gated flows.
func (h *AccountHandler) Update(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, emailChanged, err := h.svc.UpdateAccount(c.Request.Context(), uid, req.Username, req.DisplayName, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateEmail):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, users.ErrDuplicateUsername):
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		case errors.Is(err, users.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		default:
			h.logger.Error("update account", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update account"})
		}
		return
	}

	body := gin.H{"user": u}
	if emailChanged {
		body["note"] = "Confirm your new email address to reactivate your account."
	}
	c.JSON(http.StatusOK, body)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password"     binding:"required"`
}

// ChangePassword handles POST /users/me/password.
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "current password is incorrect"})
		case errors.Is(err, users.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("change password", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change password"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": "Password updated."})
}

// Delete handles DELETE /users/me — removes the account and hides its
// profile. The notification email carries a reactivation link in case the
// deletion was not the owner's doing.
func (h *AccountHandler) Delete(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), uid); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		h.logger.Error("delete account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"note": "Your account has been deleted. If this wasn't you, use the link in the email we just sent.",
	})
}

// ─── Own profile ─────────────────────────────────────────────────────────────

// GetProfile handles GET /users/me/profile.
func (h *AccountHandler) GetProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	p, err := h.svc.GetOwnProfile(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no linked profile"})
			return
		}
		h.logger.Error("get own profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

type saveProfileRequest struct {
	Name           string   `json:"name" binding:"required"`
	ContactEmail   string   `json:"contact_email"`
	Institution    string   `json:"institution"`
	Position       string   `json:"position"`
	BrainStructure []string `json:"brain_structure"`
	Modalities     []string `json:"modalities"`
	Methods        []string `json:"methods"`
	Domains        []string `json:"domains"`
	Keywords       string   `json:"keywords"`
	CountryID      *string  `json:"country_id"`
	IsPublic       bool     `json:"is_public"`
}

// SaveProfile handles PUT /users/me/profile — creates the user's profile
// on first save, updates it afterwards.
func (h *AccountHandler) SaveProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req saveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := users.ProfileInput{
		Name:           req.Name,
		ContactEmail:   req.ContactEmail,
		Institution:    req.Institution,
		Position:       req.Position,
		BrainStructure: req.BrainStructure,
		Modalities:     req.Modalities,
		Methods:        req.Methods,
		Domains:        req.Domains,
		Keywords:       req.Keywords,
		IsPublic:       req.IsPublic,
	}
	if req.CountryID != nil && *req.CountryID != "" {
		cid, err := uuid.Parse(*req.CountryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid country_id"})
			return
		}
		in.CountryID = &cid
	}

	p, created, err := h.svc.SaveOwnProfile(c.Request.Context(), uid, in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"profile": p})
}

// DeleteProfile handles DELETE /users/me/profile — soft-deletes the linked
// profile while keeping the account.
func (h *AccountHandler) DeleteProfile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteOwnProfile(c.Request.Context(), uid); err != nil {
		h.logger.Error("delete own profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": "Your profile has been removed from the directory."})
}

// ─── Claiming ────────────────────────────────────────────────────────────────

// Claim handles POST /profiles/:id/claim — links an unclaimed directory
// entry to the authenticated account.
func (h *AccountHandler) Claim(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	p, err := h.svc.ClaimProfile(c.Request.Context(), uid, profileID)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrAlreadyHasProfile):
			c.JSON(http.StatusConflict, gin.H{"error": "account already has a linked profile"})
		case errors.Is(err, repository.ErrAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "profile already claimed"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		default:
			h.logger.Error("claim profile", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim profile"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// ClaimSuggestions handles GET /users/me/profile/claim-suggestions —
// unclaimed profiles whose names match the search text (default: the
// account's display name).
func (h *AccountHandler) ClaimSuggestions(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	suggestions, err := h.svc.ClaimSuggestions(c.Request.Context(), uid, c.Query("s"))
	if err != nil {
		h.logger.Error("claim suggestions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load suggestions"})
		return
	}
	if suggestions == nil {
		suggestions = []*model.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{"profiles": suggestions})
}
