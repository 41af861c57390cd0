package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/neurodir/neurodir/internal/directory/model"
	"github.com/neurodir/neurodir/internal/directory/repository"
	"github.com/neurodir/neurodir/internal/email"
	"github.com/neurodir/neurodir/internal/identity"
)

var signupsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "directory_signups_total",
	Help: "Total number of accounts created, pending confirmation.",
})

// ErrInvalidToken is the single error every token failure collapses to.
// Decode failures, unknown identities, and verification mismatches must be
// indistinguishable to callers; the true cause is logged.
var ErrInvalidToken = errors.New("there was a problem with your link; please try again")

// ErrInvalidCredentials is returned for any login failure: unknown email,
// wrong password, or an account still pending confirmation.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAlreadyHasProfile is returned when a user with a linked profile
// attempts to claim another one.
var ErrAlreadyHasProfile = errors.New("account already has a linked profile")

// ErrWeakPassword is returned when a new password fails the length check,
// on signup, change, and reset alike.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

// userRepo is the storage interface consumed by UserService.
type userRepo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateAccount(ctx context.Context, u *User) error
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
	SetPasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// profileStore is the slice of the directory storage the account lifecycle
// touches. Satisfied by *repository.ProfileRepository.
type profileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	GetByContactEmail(ctx context.Context, contactEmail string) (*model.Profile, error)
	Create(ctx context.Context, p *model.Profile) error
	Update(ctx context.Context, p *model.Profile) error
	Claim(ctx context.Context, profileID, userID uuid.UUID) error
	LinkUser(ctx context.Context, profileID, userID uuid.UUID) error
	UnlinkAndSoftDelete(ctx context.Context, userID uuid.UUID) error
	SearchUnclaimed(ctx context.Context, terms []string, limit int) ([]*model.Profile, error)
}

// countryStore resolves country references on profile input. Satisfied by
// *repository.CountryRepository.
type countryStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Country, error)
}

// UserService implements the account lifecycle:
// signup → pending confirmation → active → (profile claimed | self-deleted).
// Every transition out of pending is gated by the stateless verification
// codec; codes die the moment the bound account state changes.
type UserService struct {
	repo        userRepo
	profiles    profileStore
	countries   countryStore
	codec       *identity.Codec
	sessions    *identity.SessionIssuer
	mailer      email.Sender
	frontendURL string
	logger      *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(
	repo userRepo,
	profiles profileStore,
	countries countryStore,
	codec *identity.Codec,
	sessions *identity.SessionIssuer,
	mailer email.Sender,
	frontendURL string,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		repo:        repo,
		profiles:    profiles,
		countries:   countries,
		codec:       codec,
		sessions:    sessions,
		mailer:      mailer,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// SignupResult carries the created user and the signup-session marker the
// client presents at confirmation to prove same-browser continuity.
type SignupResult struct {
	User          *User
	SignupSession string
}

// Signup creates a new inactive user and emails the confirmation link.
// A failed email send is logged but does not fail the signup.
func (s *UserService) Signup(ctx context.Context, emailAddr, password, username, displayName string) (*SignupResult, error) {
	if emailAddr == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if username == "" {
		username, err = s.generateUniqueUsername(ctx, emailAddr)
		if err != nil {
			return nil, fmt.Errorf("generate username: %w", err)
		}
	}
	if displayName == "" {
		displayName = username
	}

	u := &User{
		Username:     username,
		DisplayName:  displayName,
		Email:        emailAddr,
		PasswordHash: string(hash),
		IsActive:     false,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.sendConfirmation(ctx, u)

	marker, err := s.sessions.IssueSignupSession(u.ID.String())
	if err != nil {
		s.logger.Warn("issue signup-session marker", zap.Error(err))
	}

	signupsTotal.Inc()
	s.logger.Info("user signed up, pending confirmation",
		zap.String("user_id", u.ID.String()))
	return &SignupResult{User: u, SignupSession: marker}, nil
}

// sendConfirmation emails the confirm link for the user's current bound state.
func (s *UserService) sendConfirmation(ctx context.Context, u *User) {
	uid := identity.EncodeAddress(u.Email)
	code := s.codec.Make(u.BoundState())
	link := fmt.Sprintf("%s/signup/confirm?uid=%s&token=%s", s.frontendURL, uid, code)

	msg := email.SignupConfirm(u.DisplayName, link)
	if err := s.mailer.Send(ctx, u.Email, msg.Subject, msg.Body); err != nil {
		s.logger.Warn("send confirmation email",
			zap.String("user_id", u.ID.String()), zap.Error(err))
	}
}

// ConfirmResult reports a successful confirmation. SessionToken is set only
// for same-session confirmations, which auto-login and steer the client to
// profile setup.
type ConfirmResult struct {
	User         *User
	SameSession  bool
	FirstLogin   bool
	SessionToken string
}

// Confirm consumes a confirmation link. On success the account becomes
// active and any profile whose contact email matches is auto-linked.
// All failure modes return ErrInvalidToken; the underlying cause is logged.
func (s *UserService) Confirm(ctx context.Context, uid, code, signupSession string) (*ConfirmResult, error) {
	emailAddr, err := identity.DecodeAddress(uid)
	if err != nil {
		s.logger.Warn("confirm: malformed address token")
		return nil, ErrInvalidToken
	}

	u, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("confirm: unknown identity")
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.codec.Check(u.BoundState(), code) {
		s.logger.Warn("confirm: verification code mismatch",
			zap.String("user_id", u.ID.String()))
		return nil, ErrInvalidToken
	}

	sameSession := false
	if signupSession != "" {
		if sid, err := s.sessions.VerifySignupSession(signupSession); err == nil && sid == u.ID.String() {
			sameSession = !u.IsActive
		}
	}

	if !u.IsActive {
		if err := s.repo.SetActive(ctx, u.ID, true); err != nil {
			return nil, fmt.Errorf("activate user: %w", err)
		}
		u.IsActive = true
	}

	// Auto-link a pre-existing directory entry with a matching contact email.
	if p, err := s.profiles.GetByContactEmail(ctx, u.Email); err == nil && p.UserID == nil {
		if err := s.profiles.LinkUser(ctx, p.ID, u.ID); err != nil {
			s.logger.Warn("confirm: auto-link profile",
				zap.String("user_id", u.ID.String()), zap.Error(err))
		}
	}

	res := &ConfirmResult{User: u, SameSession: sameSession}
	if sameSession {
		token, err := s.sessions.Issue(u.ID.String(), u.Email, u.Username)
		if err != nil {
			s.logger.Warn("confirm: issue session", zap.Error(err))
		} else {
			res.SessionToken = token
			res.FirstLogin = true
		}
	}

	s.logger.Info("account confirmed",
		zap.String("user_id", u.ID.String()),
		zap.Bool("same_session", sameSession))
	return res, nil
}

// Login verifies credentials. Unknown email, wrong password, and a
// still-pending account all yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, emailAddr, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.logger.Info("login rejected for inactive account",
			zap.String("user_id", u.ID.String()))
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateAccount applies username/display-name/email edits. An email change
// is the re-confirmation trigger: the account is deactivated and a
// confirmation link is sent to the NEW address; until it is followed the
// user cannot log in again. Other edits only produce the account-updated
// notice.
func (s *UserService) UpdateAccount(ctx context.Context, userID uuid.UUID, username, displayName, emailAddr string) (*User, bool, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	changed := false
	if username != "" && username != u.Username {
		u.Username = username
		changed = true
	}
	if displayName != "" && displayName != u.DisplayName {
		u.DisplayName = displayName
		changed = true
	}

	emailChanged := emailAddr != "" && emailAddr != u.Email
	if emailChanged {
		u.Email = emailAddr
		u.IsActive = false
		changed = true
	}

	if !changed {
		return u, false, nil
	}

	if err := s.repo.UpdateAccount(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrDuplicateUsername) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("update account: %w", err)
	}

	if emailChanged {
		// Code bound to the new (inactive) state; old codes are now dead.
		uid := identity.EncodeAddress(u.Email)
		code := s.codec.Make(u.BoundState())
		link := fmt.Sprintf("%s/signup/confirm?uid=%s&token=%s", s.frontendURL, uid, code)
		msg := email.AccountUpdated(u.DisplayName, link)
		if err := s.mailer.Send(ctx, u.Email, msg.Subject, msg.Body); err != nil {
			s.logger.Warn("send email-change confirmation",
				zap.String("user_id", u.ID.String()), zap.Error(err))
		}
	} else {
		msg := email.AccountUpdated(u.DisplayName, "")
		if err := s.mailer.Send(ctx, u.Email, msg.Subject, msg.Body); err != nil {
			s.logger.Warn("send account-updated notice",
				zap.String("user_id", u.ID.String()), zap.Error(err))
		}
	}

	return u, emailChanged, nil
}

// ChangePassword verifies the current password and sets a new one.
// Outstanding verification codes are invalidated by the hash change.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	s.logger.Info("password changed", zap.String("user_id", userID.String()))
	return nil
}

// ForgotPassword emails a reset link when the address is registered.
// Always returns nil: callers must not reveal whether the email exists.
func (s *UserService) ForgotPassword(ctx context.Context, emailAddr string) error {
	u, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		s.logger.Info("password reset requested for unknown email")
		return nil
	}

	uid := identity.EncodeAddress(u.Email)
	code := s.codec.Make(u.BoundState())
	link := fmt.Sprintf("%s/reset-password?uid=%s&token=%s", s.frontendURL, uid, code)
	msg := email.ResetPassword(u.DisplayName, link)
	if err := s.mailer.Send(ctx, u.Email, msg.Subject, msg.Body); err != nil {
		s.logger.Warn("send password reset email",
			zap.String("user_id", u.ID.String()), zap.Error(err))
	}
	return nil
}

// ResetPassword consumes a reset link and sets the new password. A
// successful reset also reactivates the account.
func (s *UserService) ResetPassword(ctx context.Context, uid, code, newPassword string) error {
	emailAddr, err := identity.DecodeAddress(uid)
	if err != nil {
		s.logger.Warn("reset: malformed address token")
		return ErrInvalidToken
	}
	u, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("reset: unknown identity")
			return ErrInvalidToken
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !s.codec.Check(u.BoundState(), code) {
		s.logger.Warn("reset: verification code mismatch",
			zap.String("user_id", u.ID.String()))
		return ErrInvalidToken
	}

	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, u.ID, string(hash)); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if !u.IsActive {
		if err := s.repo.SetActive(ctx, u.ID, true); err != nil {
			return fmt.Errorf("reactivate user: %w", err)
		}
	}
	s.logger.Info("password reset", zap.String("user_id", u.ID.String()))
	return nil
}

// DeleteAccount removes the account immediately: the linked profile (if
// any) is unlinked and soft-deleted, the recovery notice goes out, and the
// user row is deleted. The notice carries a reactivation link bound to the
// pre-deletion state; following it only works while the identity can still
// be found, so a hijacked session cannot be un-deleted by an attacker who
// never saw the email.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	uid := identity.EncodeAddress(u.Email)
	code := s.codec.Make(u.BoundState())
	link := fmt.Sprintf("%s/account/reactivate?uid=%s&token=%s", s.frontendURL, uid, code)
	msg := email.AccountDeleted(u.DisplayName, link)
	if err := s.mailer.Send(ctx, u.Email, msg.Subject, msg.Body); err != nil {
		s.logger.Warn("send deletion notice",
			zap.String("user_id", u.ID.String()), zap.Error(err))
	}

	return s.ConfirmDeletion(ctx, userID)
}

// ConfirmDeletion is the purge itself: the linked profile (if any) is
// unlinked and soft-deleted, then the user row is removed. Existing
// recommendations keep referencing the soft-deleted profile. Shared by
// DeleteAccount and the admin CLI.
func (s *UserService) ConfirmDeletion(ctx context.Context, userID uuid.UUID) error {
	if err := s.profiles.UnlinkAndSoftDelete(ctx, userID); err != nil {
		return fmt.Errorf("soft-delete profile: %w", err)
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("account deleted", zap.String("user_id", userID.String()))
	return nil
}

// ReactivateFromLink is the emailed-link path: a valid token reactivates
// the account and re-links a non-deleted profile whose contact email
// matches. Soft-deleted profiles stay deleted. Failures collapse to
// ErrInvalidToken like every token flow.
func (s *UserService) ReactivateFromLink(ctx context.Context, uid, code string) error {
	emailAddr, err := identity.DecodeAddress(uid)
	if err != nil {
		s.logger.Warn("reactivate: malformed address token")
		return ErrInvalidToken
	}
	u, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("reactivate: unknown identity")
			return ErrInvalidToken
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !s.codec.Check(u.BoundState(), code) {
		s.logger.Warn("reactivate: verification code mismatch",
			zap.String("user_id", u.ID.String()))
		return ErrInvalidToken
	}

	if err := s.repo.SetActive(ctx, u.ID, true); err != nil {
		return fmt.Errorf("reactivate user: %w", err)
	}
	if p, err := s.profiles.GetByContactEmail(ctx, u.Email); err == nil && p.UserID == nil {
		if err := s.profiles.LinkUser(ctx, p.ID, u.ID); err != nil {
			s.logger.Warn("reactivate: re-link profile", zap.Error(err))
		}
	}
	s.logger.Info("account reactivated", zap.String("user_id", u.ID.String()))
	return nil
}

// ClaimProfile links an unclaimed directory entry to the user. The one
// claim per account guard runs first; the storage layer then enforces the
// unclaimed condition atomically.
func (s *UserService) ClaimProfile(ctx context.Context, userID, profileID uuid.UUID) (*model.Profile, error) {
	if _, err := s.profiles.GetByUserID(ctx, userID); err == nil {
		return nil, ErrAlreadyHasProfile
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing profile: %w", err)
	}

	if err := s.profiles.Claim(ctx, profileID, userID); err != nil {
		return nil, err
	}
	s.logger.Info("profile claimed",
		zap.String("user_id", userID.String()),
		zap.String("profile_id", profileID.String()))
	return s.profiles.GetByID(ctx, profileID)
}

// ClaimSuggestions returns up to five unclaimed profiles whose names
// contain every term of the search text (defaulting to the user's display
// name).
func (s *UserService) ClaimSuggestions(ctx context.Context, userID uuid.UUID, searchText string) ([]*model.Profile, error) {
	if searchText == "" {
		if u, err := s.repo.GetByID(ctx, userID); err == nil {
			searchText = u.DisplayName
		}
	}
	return s.profiles.SearchUnclaimed(ctx, strings.Fields(searchText), 5)
}

// ProfileInput is the editable surface of an own profile.
type ProfileInput struct {
	Name           string
	ContactEmail   string
	Institution    string
	Position       string
	BrainStructure []string
	Modalities     []string
	Methods        []string
	Domains        []string
	Keywords       string
	CountryID      *uuid.UUID
	IsPublic       bool
}

func (in *ProfileInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	checks := []struct {
		facet model.Facet
		codes []string
	}{
		{model.FacetStructure, in.BrainStructure},
		{model.FacetModality, in.Modalities},
		{model.FacetMethod, in.Methods},
		{model.FacetDomain, in.Domains},
	}
	for _, c := range checks {
		for _, code := range c.codes {
			if !model.ValidCode(c.facet, code) {
				return fmt.Errorf("unknown %s code %q", c.facet, code)
			}
		}
	}
	return nil
}

// validateCountry rejects input that names a country not in the seed table.
func (s *UserService) validateCountry(ctx context.Context, in *ProfileInput) error {
	if in.CountryID == nil {
		return nil
	}
	if _, err := s.countries.GetByID(ctx, *in.CountryID); err != nil {
		if errors.Is(err, repository.ErrCountryNotFound) {
			return fmt.Errorf("unknown country %s", in.CountryID)
		}
		return fmt.Errorf("lookup country: %w", err)
	}
	return nil
}

func (in *ProfileInput) apply(p *model.Profile) {
	p.Name = in.Name
	p.ContactEmail = in.ContactEmail
	p.Institution = in.Institution
	p.Position = in.Position
	p.BrainStructure = model.JoinCodes(in.BrainStructure)
	p.Modalities = model.JoinCodes(in.Modalities)
	p.Methods = model.JoinCodes(in.Methods)
	p.Domains = model.JoinCodes(in.Domains)
	p.Keywords = in.Keywords
	p.CountryID = in.CountryID
	p.IsPublic = in.IsPublic
}

// GetOwnProfile returns the profile linked to the user.
func (s *UserService) GetOwnProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// SaveOwnProfile creates or updates the user's own profile. Updates to an
// existing profile produce the profile-updated notice.
func (s *UserService) SaveOwnProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*model.Profile, bool, error) {
	if err := in.validate(); err != nil {
		return nil, false, err
	}
	if err := s.validateCountry(ctx, &in); err != nil {
		return nil, false, err
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		in.apply(p)
		if err := s.profiles.Update(ctx, p); err != nil {
			return nil, false, fmt.Errorf("update profile: %w", err)
		}
		if u, uerr := s.repo.GetByID(ctx, userID); uerr == nil {
			msg := email.ProfileUpdated(u.DisplayName, p.Name)
			if serr := s.mailer.Send(ctx, u.Email, msg.Subject, msg.Body); serr != nil {
				s.logger.Warn("send profile-updated notice",
					zap.String("user_id", userID.String()), zap.Error(serr))
			}
		}
		return p, false, nil

	case errors.Is(err, repository.ErrNotFound):
		now := time.Now().UTC()
		p = &model.Profile{UserID: &userID, ClaimedAt: &now}
		in.apply(p)
		if err := s.profiles.Create(ctx, p); err != nil {
			return nil, false, fmt.Errorf("create profile: %w", err)
		}
		return p, true, nil

	default:
		return nil, false, fmt.Errorf("lookup profile: %w", err)
	}
}

// DeleteOwnProfile soft-deletes and unlinks the user's profile, keeping the
// row for recommendation integrity.
func (s *UserService) DeleteOwnProfile(ctx context.Context, userID uuid.UUID) error {
	return s.profiles.UnlinkAndSoftDelete(ctx, userID)
}

// generateUniqueUsername derives a slug from email and appends a suffix if taken.
func (s *UserService) generateUniqueUsername(ctx context.Context, emailAddr string) (string, error) {
	base := slugifyEmail(emailAddr)
	if base == "" {
		base = "member"
	}

	if _, err := s.repo.GetByUsername(ctx, base); errors.Is(err, ErrNotFound) {
		return base, nil
	}
	for i := 2; i <= 9999; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if _, err := s.repo.GetByUsername(ctx, candidate); errors.Is(err, ErrNotFound) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not generate unique username for %q", emailAddr)
}

// slugifyEmail converts "alice@example.com" → "alice".
func slugifyEmail(emailAddr string) string {
	local := emailAddr
	if at := strings.Index(emailAddr, "@"); at > 0 {
		local = emailAddr[:at]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	result := strings.Trim(b.String(), "-")
	if len(result) > 32 {
		result = result[:32]
	}
	return result
}
