package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is one directory entry. Facet columns hold comma-delimited code
// lists from the vocabularies in facets.go.
//
// A profile appears in directory search only while IsPublic is true and
// DeletedAt is nil. Deletion is always a soft delete: recommendations keep
// referencing the row afterwards.
type Profile struct {
	ID             uuid.UUID  `json:"id"              db:"id"`
	Name           string     `json:"name"            db:"name"`
	ContactEmail   string     `json:"-"               db:"contact_email"`
	Institution    string     `json:"institution"     db:"institution"`
	Position       string     `json:"position"        db:"position"`
	BrainStructure string     `json:"brain_structure" db:"brain_structure"`
	Modalities     string     `json:"modalities"      db:"modalities"`
	Methods        string     `json:"methods"         db:"methods"`
	Domains        string     `json:"domains"         db:"domains"`
	Keywords       string     `json:"keywords"        db:"keywords"`
	CountryID      *uuid.UUID `json:"country_id"      db:"country_id"`
	IsPublic       bool       `json:"is_public"       db:"is_public"`
	PublishedAt    time.Time  `json:"published_at"    db:"published_at"`
	CreatedAt      time.Time  `json:"created_at"      db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"      db:"updated_at"`
	DeletedAt      *time.Time `json:"-"               db:"deleted_at"`
	UserID         *uuid.UUID `json:"-"               db:"user_id"`
	ClaimedAt      *time.Time `json:"-"               db:"claimed_at"`

	// CountryName and CountryUnderRepresented are populated by list
	// queries that join the countries table; they are not columns of the
	// profiles table itself.
	CountryName             string `json:"country,omitempty" db:"-"`
	CountryUnderRepresented bool   `json:"-"                 db:"-"`
}

// Visible reports whether the profile may appear in directory listings.
func (p *Profile) Visible() bool {
	return p.IsPublic && p.DeletedAt == nil
}

// Claimed reports whether a user account is linked to the profile.
func (p *Profile) Claimed() bool {
	return p.UserID != nil
}
