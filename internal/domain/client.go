package domain

import (
	"time"
)

// ClientStatus enumerates the tracked lifecycle states of a sanitization
// process. The status is an operator-set label; it is deliberately not
// derived from the process dates (a process can be marked expired early,
// or stay active past its nominal end).
type ClientStatus string

const (
	StatusActive     ClientStatus = "active"
	StatusInProgress ClientStatus = "in_progress"
	StatusExpired    ClientStatus = "expired"
)

// Valid reports whether s is one of the closed set of statuses.
func (s ClientStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInProgress, StatusExpired:
		return true
	}
	return false
}

// Client represents one tracked sanitization-process case.
//
// StartDate is set once at creation and is not touched by normal edits.
// Progress is derived from the clock (see the sanitization package) and is
// recomputed rather than trusted; the stored value is only a snapshot taken
// at the last write. Active is the soft-delete marker: inactive records stay
// in the database but are invisible to every listing.
type Client struct {
	ID           string       `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Email        string       `json:"email" db:"email"`
	Phone        string       `json:"phone" db:"phone"`
	Status       ClientStatus `json:"status" db:"status"`
	StartDate    time.Time    `json:"start_date" db:"start_date"`
	DurationDays int          `json:"duration_days" db:"duration_days"`
	Progress     int          `json:"progress" db:"progress"`
	Active       bool         `json:"active" db:"active"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}
