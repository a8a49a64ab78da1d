package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Hobby is a named tracked interest; parent of expenses and activities.
	Hobby struct {
		ID          int64
		Name        string
		Description string
		CreatedAt   time.Time
		// TargetCents is the user's cost-per-hour budget goal in cents,
		// nil when no target has been set.
		TargetCents *int64
	}

	// Expense is a monetary outlay attributed to a hobby.
	Expense struct {
		ID          int64
		HobbyID     int64
		AmountCents int64
		Description string
		Date        time.Time
	}

	// Activity is a time session attributed to a hobby, measured in hours.
	Activity struct {
		ID          int64
		HobbyID     int64
		Hours       float64
		Description string
		Date        time.Time
	}
)

var (
	ErrDuplicateName = errors.New("a hobby with that name already exists")
	ErrNotFound      = errors.New("hobby not found")
	ErrEmptyName     = errors.New("empty hobby name")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidHours  = errors.New("invalid duration")
	ErrInvalidTarget = errors.New("invalid target cost per hour")
	ErrNameTooLong   = errors.New("hobby name too long (max 100 characters)")
	ErrDescTooLong   = errors.New("description too long (max 200 characters)")
)

const (
	maxNameLen = 100
	maxDescLen = 200
)

// ValidateName checks a hobby name on its own, for callers updating a
// single field.
func ValidateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > maxNameLen {
		return ErrNameTooLong
	}
	return nil
}

// ValidateDescription checks a description on its own.
func ValidateDescription(desc string) error {
	if len(desc) > maxDescLen {
		return ErrDescTooLong
	}
	return nil
}

func (h Hobby) Validate() error {
	if err := ValidateName(h.Name); err != nil {
		return err
	}
	if err := ValidateDescription(h.Description); err != nil {
		return err
	}
	if h.TargetCents != nil && *h.TargetCents < 0 {
		return ErrInvalidTarget
	}
	return nil
}

// Negative amounts are rejected; zero is allowed so gifted gear can still be
// recorded as an expense line.
func (e Expense) Validate() error {
	if e.AmountCents < 0 {
		return ErrInvalidAmount
	}
	return ValidateDescription(e.Description)
}

func (a Activity) Validate() error {
	if a.Hours < 0 {
		return ErrInvalidHours
	}
	return ValidateDescription(a.Description)
}
