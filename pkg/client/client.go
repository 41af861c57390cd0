// Package client provides the neurodir Go SDK for searching the membership
// directory and managing accounts, profiles, and recommendations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// ErrNotFound is returned when the requested resource does not exist or is
// not visible to the caller.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned when the call requires a session the client
// does not hold, or the session has expired.
var ErrUnauthorized = errors.New("unauthorized")

// ErrConflict is returned on duplicate signups and contested claims.
var ErrConflict = errors.New("conflict")

// Profile is a directory entry as returned by the API. Facet fields hold
// comma-joined codes, e.g. "CORT,SUBC".
type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Institution    string    `json:"institution"`
	Position       string    `json:"position"`
	BrainStructure string    `json:"brain_structure"`
	Modalities     string    `json:"modalities"`
	Methods        string    `json:"methods"`
	Domains        string    `json:"domains"`
	Keywords       string    `json:"keywords"`
	CountryID      *string   `json:"country_id"`
	Country        string    `json:"country,omitempty"`
	IsPublic       bool      `json:"is_public"`
	PublishedAt    time.Time `json:"published_at"`
}

// Recommendation is a public endorsement attached to a profile.
type Recommendation struct {
	ID                  string    `json:"id"`
	ProfileID           string    `json:"profile_id"`
	ReviewerName        string    `json:"reviewer_name"`
	ReviewerPosition    string    `json:"reviewer_position"`
	ReviewerInstitution string    `json:"reviewer_institution"`
	Comment             string    `json:"comment"`
	SeenAtConference    bool      `json:"seen_at_conference"`
	CreatedAt           time.Time `json:"created_at"`
}

// User is the account record returned by the auth and account endpoints.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
}

// CountrySummary is one row of the represented-countries aggregate.
type CountrySummary struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// PositionCount is one row of the positions histogram.
type PositionCount struct {
	Position string `json:"position"`
	Count    int    `json:"count"`
}

// SearchOptions narrows a directory search.
type SearchOptions struct {
	UnderRepresentedOnly bool
	SeniorOnly           bool
	Page                 int // 1-indexed; 0 means first page
}

// SearchResult is one page of directory search results.
type SearchResult struct {
	Profiles   []Profile `json:"profiles"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
}

// ProfileDetail is a profile together with its recommendations.
type ProfileDetail struct {
	Profile         Profile          `json:"profile"`
	Recommendations []Recommendation `json:"recommendations"`
}

// RecommendationRequest is the payload for CreateRecommendation.
type RecommendationRequest struct {
	ReviewerName        string `json:"reviewer_name"`
	ReviewerEmail       string `json:"reviewer_email,omitempty"`
	ReviewerPosition    string `json:"reviewer_position,omitempty"`
	ReviewerInstitution string `json:"reviewer_institution,omitempty"`
	Comment             string `json:"comment"`
	SeenAtConference    bool   `json:"seen_at_conference,omitempty"`
}

// SignupRequest is the payload for Signup. Username is optional; when empty
// the server derives one from the email address.
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// SignupResult holds the new account and the short-lived signup session used
// for auto-login on email confirmation.
type SignupResult struct {
	User          User   `json:"user"`
	SignupSession string `json:"signup_session"`
}

// LoginResult holds the account and its session token.
type LoginResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// ConfirmResult is the outcome of confirming a verification link.
type ConfirmResult struct {
	User       User   `json:"user"`
	FirstLogin bool   `json:"first_login"`
	Token      string `json:"token,omitempty"`
}

// ProfileRequest is the payload for SaveProfile. Facet fields take code
// lists, e.g. BrainStructure: []string{"CORT", "SUBC"}.
type ProfileRequest struct {
	Name           string   `json:"name"`
	ContactEmail   string   `json:"contact_email,omitempty"`
	Institution    string   `json:"institution,omitempty"`
	Position       string   `json:"position,omitempty"`
	BrainStructure []string `json:"brain_structure,omitempty"`
	Modalities     []string `json:"modalities,omitempty"`
	Methods        []string `json:"methods,omitempty"`
	Domains        []string `json:"domains,omitempty"`
	Keywords       string   `json:"keywords,omitempty"`
	CountryID      string   `json:"country_id,omitempty"`
	IsPublic       bool     `json:"is_public"`
}

// Client is the neurodir SDK entry point.
type Client struct {
	base       string
	httpClient *http.Client

	mu          sync.Mutex
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithBearerToken attaches a pre-obtained session token to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		return nil
	}
}

// New creates a Client connected to base, e.g. "https://api.neurodir.org".
func New(base string, opts ...Option) (*Client, error) {
	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(base string, opts ...Option) *Client {
	c, err := New(base, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Token returns the session token currently held by the client, if any.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearerToken
}

// SetToken replaces the session token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.bearerToken = token
	c.mu.Unlock()
}

// ── Public directory surface ─────────────────────────────────────────────────

// SearchProfiles runs a faceted directory search. An empty query returns all
// visible profiles, newest first.
func (c *Client) SearchProfiles(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	q := url.Values{}
	if query != "" {
		q.Set("s", query)
	}
	if opts.UnderRepresentedOnly {
		q.Set("ur", "1")
	}
	if opts.SeniorOnly {
		q.Set("senior", "1")
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}

	var result SearchResult
	if err := c.get(ctx, "/api/v1/profiles?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProfile fetches a single visible profile with its recommendations.
func (c *Client) GetProfile(ctx context.Context, id string) (*ProfileDetail, error) {
	var detail ProfileDetail
	if err := c.get(ctx, "/api/v1/profiles/"+id, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Countries lists countries with at least one visible profile.
func (c *Client) Countries(ctx context.Context) ([]CountrySummary, error) {
	var wrapper struct {
		Countries []CountrySummary `json:"countries"`
	}
	if err := c.get(ctx, "/api/v1/countries", &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Countries, nil
}

// Positions returns the histogram of positions across visible profiles.
func (c *Client) Positions(ctx context.Context) ([]PositionCount, error) {
	var wrapper struct {
		Positions []PositionCount `json:"positions"`
	}
	if err := c.get(ctx, "/api/v1/positions", &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Positions, nil
}

// SampleRecommendations returns a random sample of recent recommendations,
// suitable for a landing page.
func (c *Client) SampleRecommendations(ctx context.Context) ([]Recommendation, error) {
	var wrapper struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := c.get(ctx, "/api/v1/recommendations/sample", &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Recommendations, nil
}

// CreateRecommendation submits an endorsement for a profile. No session is
// required; when the client holds one the server records the submitter.
func (c *Client) CreateRecommendation(ctx context.Context, profileID string, in RecommendationRequest) (*Recommendation, error) {
	var wrapper struct {
		Recommendation Recommendation `json:"recommendation"`
	}
	if err := c.post(ctx, "/api/v1/profiles/"+profileID+"/recommendations", in, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Recommendation, nil
}

// ── Auth ─────────────────────────────────────────────────────────────────────

// Signup creates an inactive account and triggers the confirmation email.
func (c *Client) Signup(ctx context.Context, in SignupRequest) (*SignupResult, error) {
	var result SignupResult
	if err := c.post(ctx, "/api/v1/auth/signup", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login authenticates and stores the session token on the client, so
// subsequent calls are authenticated automatically.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload := map[string]string{"email": email, "password": password}
	var result LoginResult
	if err := c.post(ctx, "/api/v1/auth/login", payload, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	return &result, nil
}

// Confirm redeems an email verification link. When the signup session from
// Signup is still valid the result carries a session token (auto-login),
// which is stored on the client.
func (c *Client) Confirm(ctx context.Context, uid, token, signupSession string) (*ConfirmResult, error) {
	q := url.Values{}
	q.Set("uid", uid)
	q.Set("token", token)
	if signupSession != "" {
		q.Set("signup_session", signupSession)
	}
	var result ConfirmResult
	if err := c.get(ctx, "/api/v1/auth/confirm?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	if result.Token != "" {
		c.SetToken(result.Token)
	}
	return &result, nil
}

// ForgotPassword requests a password-reset email. Always succeeds, whether
// or not the address has an account.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.post(ctx, "/api/v1/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword redeems a reset link and sets a new password.
func (c *Client) ResetPassword(ctx context.Context, uid, token, password string) error {
	payload := map[string]string{"uid": uid, "token": token, "password": password}
	return c.post(ctx, "/api/v1/auth/reset-password", payload, nil)
}

// ── Account surface (requires a session) ─────────────────────────────────────

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var wrapper struct {
		User User `json:"user"`
	}
	if err := c.get(ctx, "/api/v1/users/me", &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.User, nil
}

// GetOwnProfile returns the profile linked to the authenticated account.
func (c *Client) GetOwnProfile(ctx context.Context) (*Profile, error) {
	var wrapper struct {
		Profile Profile `json:"profile"`
	}
	if err := c.get(ctx, "/api/v1/users/me/profile", &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Profile, nil
}

// SaveProfile creates or replaces the authenticated account's profile.
func (c *Client) SaveProfile(ctx context.Context, in ProfileRequest) (*Profile, error) {
	var wrapper struct {
		Profile Profile `json:"profile"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v1/users/me/profile", in, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Profile, nil
}

// DeleteOwnProfile unlists and unlinks the account's profile.
func (c *Client) DeleteOwnProfile(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/users/me/profile", nil, nil)
}

// DeleteAccount permanently removes the account; the profile is unlisted
// but kept for recommendation integrity. The server emails a reactivation
// link in case the deletion was not the owner's doing.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/users/me", nil, nil)
}

// ClaimProfile links an unclaimed directory profile to the authenticated
// account. Returns ErrConflict when the profile was claimed first or the
// account already has one.
func (c *Client) ClaimProfile(ctx context.Context, profileID string) (*Profile, error) {
	var wrapper struct {
		Profile Profile `json:"profile"`
	}
	if err := c.post(ctx, "/api/v1/profiles/"+profileID+"/claim", nil, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Profile, nil
}

// ClaimSuggestions returns unclaimed profiles matching the search text, or
// the account's display name when the text is empty.
func (c *Client) ClaimSuggestions(ctx context.Context, searchText string) ([]Profile, error) {
	q := url.Values{}
	if searchText != "" {
		q.Set("s", searchText)
	}
	var wrapper struct {
		Profiles []Profile `json:"profiles"`
	}
	if err := c.get(ctx, "/api/v1/users/me/profile/claim-suggestions?"+q.Encode(), &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Profiles, nil
}

// ── HTTP plumbing ────────────────────────────────────────────────────────────

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

// doJSON executes an HTTP request against the API, attaching the session
// token if present and JSON-encoding/decoding the bodies.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var bodyReader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiError(body))
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, apiError(body))
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, apiError(body))
	case resp.StatusCode >= 300:
		return fmt.Errorf("server error %d: %s", resp.StatusCode, apiError(body))
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// apiError extracts the server's error message, falling back to the raw body.
func apiError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(body)
}
