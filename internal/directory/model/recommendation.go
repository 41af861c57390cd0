package model

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is a peer testimonial attached to a profile. Reviewer
// fields are free text with no referential integrity requirement; the
// optional ReviewerUserID is recorded when the submitter was logged in.
//
// Recommendations survive profile soft-deletion and reviewer account
// deletion. The profiles foreign key is ON DELETE RESTRICT so a referenced
// profile can never be hard-deleted.
type Recommendation struct {
	ID                  uuid.UUID  `json:"id"                  db:"id"`
	ProfileID           uuid.UUID  `json:"profile_id"          db:"profile_id"`
	ReviewerUserID      *uuid.UUID `json:"-"                   db:"reviewer_user_id"`
	ReviewerName        string     `json:"reviewer_name"       db:"reviewer_name"`
	ReviewerEmail       string     `json:"-"                   db:"reviewer_email"`
	ReviewerPosition    string     `json:"reviewer_position"   db:"reviewer_position"`
	ReviewerInstitution string     `json:"reviewer_institution" db:"reviewer_institution"`
	Comment             string     `json:"comment"             db:"comment"`
	SeenAtConference    bool       `json:"seen_at_conference"  db:"seen_at_conference"`
	CreatedAt           time.Time  `json:"created_at"          db:"created_at"`
}
