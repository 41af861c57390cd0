// Package identity implements the directory's credential layer:
//
//   - Codec          — stateless, field-bound verification codes used by
//     every account-lifecycle transition (confirm, reset, delete-cancel)
//   - SessionIssuer  — HS256 session JWTs and the short-lived
//     signup-session marker
//   - Gin middleware — RequireSession / OptionalSession
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrBadAddress is returned when an address token cannot be decoded.
// Callers present it to users as "no such identity", never as a distinct
// message.
var ErrBadAddress = errors.New("malformed address token")

// EncodeAddress encodes an identity value (the account email) into the
// URL-safe addressing half of a verification link. It is reversible and
// carries no secret.
func EncodeAddress(identity string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(identity))
}

// DecodeAddress reverses EncodeAddress. Any decode failure yields
// ErrBadAddress; the caller must not distinguish this from an unknown
// identity in user-facing output.
func DecodeAddress(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrBadAddress
	}
	return string(raw), nil
}

// BoundState is the snapshot of mutable account fields a verification code
// is bound to. Changing any of these fields after issuance silently
// invalidates every outstanding code for the account: confirmation codes
// die on activation, reset codes die on password change.
type BoundState struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsActive     bool
}

// Codec issues and checks stateless verification codes. A code is
//
//	<base36 day bucket>-<hex HMAC-SHA256 over (id, email, password hash,
//	active flag, bucket), truncated to 20 bytes>
//
// No server-side token table exists; expiry is the TTL window plus the
// implicit invalidation from bound-state changes.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a Codec. ttl defaults to 72 hours.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	if ttl == 0 {
		ttl = 72 * time.Hour
	}
	return &Codec{secret: secret, ttl: ttl}
}

const dayBucket = 24 * time.Hour

// Make issues a verification code bound to the given state snapshot.
func (c *Codec) Make(state BoundState) string {
	return c.makeAt(state, time.Now().UTC())
}

func (c *Codec) makeAt(state BoundState, now time.Time) string {
	bucket := now.Unix() / int64(dayBucket/time.Second)
	return c.code(state, bucket)
}

// Check verifies a code against the current bound state. It returns false
// for tampered, expired, or stale codes — including codes issued before the
// bound state last changed.
func (c *Codec) Check(state BoundState, code string) bool {
	dash := strings.IndexByte(code, '-')
	if dash <= 0 {
		return false
	}
	bucket, err := strconv.ParseInt(code[:dash], 36, 64)
	if err != nil {
		return false
	}

	expect := c.code(state, bucket)
	if subtle.ConstantTimeCompare([]byte(expect), []byte(code)) != 1 {
		return false
	}

	nowBucket := time.Now().UTC().Unix() / int64(dayBucket/time.Second)
	maxAge := int64(c.ttl / dayBucket)
	if bucket > nowBucket || nowBucket-bucket > maxAge {
		return false
	}
	return true
}

func (c *Codec) code(state BoundState, bucket int64) string {
	mac := hmac.New(sha256.New, c.secret)
	fmt.Fprintf(mac, "%s\x00%s\x00%s\x00%t\x00%d",
		state.ID, state.Email, state.PasswordHash, state.IsActive, bucket)
	sum := mac.Sum(nil)[:20]
	return strconv.FormatInt(bucket, 36) + "-" + hex.EncodeToString(sum)
}
