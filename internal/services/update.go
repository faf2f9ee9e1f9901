package services

import (
	"strings"
	"time"

	"task-manager/server/internal/models"
)

// Field-or-keep helpers for partial updates. A nil pointer or a zero value
// keeps the current value.

func stringOr(v *string, current string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return current
	}
	return *v
}

func priorityOr(v *models.Priority, current models.Priority) models.Priority {
	if v == nil || *v == 0 {
		return current
	}
	return *v
}

func timeOr(v *time.Time, current time.Time) time.Time {
	if v == nil || v.IsZero() {
		return current
	}
	return v.UTC()
}

func stringsOr(v []string, current []string) []string {
	if v == nil {
		return current
	}
	return v
}
