package domain

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a ContentItem.
type Status string

const (
	StatusPending     Status = "pending"
	StatusScored      Status = "scored"
	StatusScoreFailed Status = "score_failed"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusHeld        Status = "held_for_review"
	StatusPosted      Status = "posted"
	StatusQueued      Status = "queued"
	StatusArchived    Status = "archived"
)

// ErrIllegalTransition is returned for moves the state machine does not allow.
var ErrIllegalTransition = errors.New("illegal status transition")

var transitions = map[Status][]Status{
	StatusPending:  {StatusScored, StatusScoreFailed, StatusRejected},
	StatusScored:   {StatusApproved, StatusRejected, StatusHeld},
	StatusApproved: {StatusPosted, StatusQueued},
	StatusQueued:   {StatusPosted, StatusArchived},
	StatusRejected: {StatusArchived},
	StatusHeld:     {StatusArchived},
	StatusPosted:   {StatusArchived},
}

// ParseStatus validates a persisted status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	switch s {
	case StatusPending, StatusScored, StatusScoreFailed, StatusApproved, StatusRejected,
		StatusHeld, StatusPosted, StatusQueued, StatusArchived:
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// CanTransition reports whether the machine allows s -> to.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates s -> to and returns the new status.
func (s Status) Transition(to Status) (Status, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, to)
	}
	return to, nil
}

// Terminal reports whether a run stops processing an item in this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusHeld, StatusPosted, StatusQueued, StatusScoreFailed, StatusArchived:
		return true
	}
	return false
}

// Publishable reports whether the scheduled poster may pick an item in this status.
func (s Status) Publishable() bool {
	return s == StatusApproved || s == StatusQueued
}
