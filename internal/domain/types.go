// Package domain defines the normalized domain types for taskdeck.
// These types represent the core concepts independent of the backend
// REST API structure.
package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Task represents a single task owned by the authenticated user.
// Client-side a task is a value object: it has no identity beyond ID,
// and the store replaces whole tasks rather than patching fields.
type Task struct {
	ID          int     `json:"id"`          // Server-assigned unique ID
	Title       string  `json:"title"`       // 1..200 chars, required
	Description *string `json:"description"` // Optional, up to 1000 chars
	Completed   bool    `json:"completed"`   // Completion state (server-owned, see toggle)
	Priority    *string `json:"priority"`    // High, Medium or Low; nil when unset
	Category    *string `json:"category"`    // Free-form category; nil when unset
	DueDate     *string `json:"due_date"`    // ISO8601 timestamp; nil when unset
	CreatedAt   string  `json:"created_at"`  // ISO8601 timestamp of creation
	UpdatedAt   string  `json:"updated_at"`  // ISO8601 timestamp of last change
}

// Priority values accepted by the backend.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Validation limits shared by the proxy and the console client.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 1000
)

// ValidationError reports a locally rejected input. It is raised before
// any credential lookup or network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateTitle trims and validates a task title.
// Returns the cleaned title or a *ValidationError.
func ValidateTitle(title string) (string, error) {
	cleaned := strings.TrimSpace(title)
	if cleaned == "" {
		return "", &ValidationError{Field: "title", Reason: "title is required"}
	}
	if utf8.RuneCountInString(cleaned) > MaxTitleLen {
		return "", &ValidationError{Field: "title", Reason: fmt.Sprintf("title exceeds %d characters", MaxTitleLen)}
	}
	return cleaned, nil
}

// ValidateDescription validates an optional description.
func ValidateDescription(description *string) error {
	if description == nil {
		return nil
	}
	if utf8.RuneCountInString(*description) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("description exceeds %d characters", MaxDescriptionLen)}
	}
	return nil
}

// ValidatePriority validates an optional priority value.
func ValidatePriority(priority *string) error {
	if priority == nil {
		return nil
	}
	switch *priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return nil
	}
	return &ValidationError{Field: "priority", Reason: "priority must be High, Medium or Low"}
}

// PriorityRank orders priorities High < Medium < Low < unset.
// Used by the view projection's priority sort.
func PriorityRank(priority *string) int {
	if priority == nil {
		return 3
	}
	switch *priority {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}
