package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
)

// Status is persisted and serialized as its numeric code.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// StatusLabels is the single label table used by dashboards, reports and query parsing.
var StatusLabels = map[Status]string{
	StatusPending:    "Pending",
	StatusInProgress: "InProgress",
	StatusCompleted:  "Completed",
}

func (s Status) Valid() bool {
	_, ok := StatusLabels[s]
	return ok
}

func (s Status) String() string {
	if label, ok := StatusLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus accepts either the numeric code or the label, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		s := Status(n)
		if !s.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidStatus, n)
		}
		return s, nil
	}
	key := normalizeLabel(raw)
	for _, s := range Statuses {
		if normalizeLabel(StatusLabels[s]) == key {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Status(n)
		return nil
	}
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, string(data))
	}
	parsed, err := ParseStatus(label)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

var PriorityLabels = map[Priority]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
}

func (p Priority) Valid() bool {
	_, ok := PriorityLabels[p]
	return ok
}

func (p Priority) String() string {
	if label, ok := PriorityLabels[p]; ok {
		return label
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

func ParsePriority(raw string) (Priority, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		p := Priority(n)
		if !p.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidPriority, n)
		}
		return p, nil
	}
	key := normalizeLabel(raw)
	for _, p := range Priorities {
		if normalizeLabel(PriorityLabels[p]) == key {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*p = Priority(n)
		return nil
	}
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPriority, string(data))
	}
	parsed, err := ParsePriority(label)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func normalizeLabel(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, "_", "")
}
