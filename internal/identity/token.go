package identity

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims are the JWT claims for a directory session token. The
// signup-session marker reuses the same claim set with Type
// "signup-session"; it is not accepted as a login session.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Type     string `json:"type"` // "session" or "signup-session"
}

// SessionIssuer issues and verifies HS256 session JWTs.
type SessionIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewSessionIssuer creates a SessionIssuer.
//
//	issuerURL — The "iss" claim value; matches the server's base URL.
//	ttl       — Session lifetime (default: 24 hours).
func NewSessionIssuer(secret []byte, issuerURL string, ttl time.Duration) *SessionIssuer {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &SessionIssuer{secret: secret, issuer: issuerURL, ttl: ttl}
}

// Issue creates a signed login session token.
func (s *SessionIssuer) Issue(userID, email, username string) (string, error) {
	return s.issue(userID, email, username, "session", s.ttl)
}

// IssueSignupSession creates the short-lived marker returned by signup.
// Presenting it at confirmation proves the confirm happened in the same
// browser session that signed up, which unlocks auto-login.
func (s *SessionIssuer) IssueSignupSession(userID string) (string, error) {
	return s.issue(userID, "", "", "signup-session", time.Hour)
}

func (s *SessionIssuer) issue(userID, email, username, typ string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
		UserID:   userID,
		Email:    email,
		Username: username,
		Type:     typ,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Verify parses and validates a login session token, returning its claims.
func (s *SessionIssuer) Verify(tokenStr string) (*SessionClaims, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Type != "session" {
		return nil, fmt.Errorf("not a session token")
	}
	return claims, nil
}

// VerifySignupSession validates a signup-session marker and returns the
// user ID it was issued for.
func (s *SessionIssuer) VerifySignupSession(tokenStr string) (string, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Type != "signup-session" {
		return "", fmt.Errorf("not a signup-session token")
	}
	return claims.UserID, nil
}

func (s *SessionIssuer) parse(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&SessionClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session claims")
	}
	return claims, nil
}

const ctxSessionClaims = "directory_session_claims"

// RequireSession returns a Gin middleware that enforces a valid session
// Bearer token. On success it injects the *SessionClaims into the context.
func RequireSession(tokens *SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer session token required",
			})
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid session token",
			})
			return
		}

		c.Set(ctxSessionClaims, claims)
		c.Next()
	}
}

// OptionalSession attaches session claims when a valid Bearer token is
// present but never rejects the request. Used on routes that behave
// differently for logged-in users (recommendation submission).
func OptionalSession(tokens *SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			if claims, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer ")); err == nil {
				c.Set(ctxSessionClaims, claims)
			}
		}
		c.Next()
	}
}

// SessionClaimsFromCtx retrieves the claims injected by RequireSession or
// OptionalSession. Returns nil if no session is present.
func SessionClaimsFromCtx(c *gin.Context) *SessionClaims {
	v, _ := c.Get(ctxSessionClaims)
	claims, _ := v.(*SessionClaims)
	return claims
}
