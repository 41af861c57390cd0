// Package email delivers the directory's transactional mail: signup
// confirmation, password reset, profile/account update notices, and the
// account-deletion cancel link. Delivery failures are logged by callers and
// never fail the triggering request.
package email

import "context"

// Sender delivers a single plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
