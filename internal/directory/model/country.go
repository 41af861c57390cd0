package model

import "github.com/google/uuid"

// Country is a read-mostly reference entity, seeded once at install time.
type Country struct {
	ID                 uuid.UUID `json:"id"                   db:"id"`
	Code               string    `json:"code"                 db:"code"`
	Name               string    `json:"name"                 db:"name"`
	IsUnderRepresented bool      `json:"is_under_represented" db:"is_under_represented"`
}

// CountrySummary is the shape served by the read-only countries endpoint:
// one entry per country with at least one associated profile.
type CountrySummary struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// PositionCount is one row of the position histogram endpoint.
type PositionCount struct {
	Position string `json:"position"`
	Count    int    `json:"count"`
}
