package model

import "time"

type TimerStatus string

const (
	StatusActive  TimerStatus = "active"
	StatusPaused  TimerStatus = "paused"
	StatusExpired TimerStatus = "expired"
)

const (
	EventCreated = "created"
	EventPaused  = "paused"
	EventResumed = "resumed"
	EventReset   = "reset"
	EventExpired = "expired"
)

const (
	DefaultTimerName       = "Timer"
	MaxTimerNameLength     = 255
	DefaultDurationSeconds = 60
	MaxDurationSeconds     = 60 * 60
)

type Timer struct {
	ID               string      `json:"id"`
	// OwnerID is the user that created the timer. Empty for timers created
	// outside a user session.
	OwnerID          string      `json:"ownerId,omitempty"`
	Name             string      `json:"name"`
	InitialSeconds   int         `json:"initialSeconds"`
	RemainingSeconds int         `json:"remainingSeconds"`
	Status           TimerStatus `json:"status"`
	ResetCount       int         `json:"resetCount"`
	StartedAt        time.Time   `json:"startedAt"`
	LastResetAt      time.Time   `json:"lastResetAt"`
	PausedAt         *time.Time  `json:"pausedAt,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate it without touching the original.
func (t *Timer) Clone() *Timer {
	clone := *t
	if t.PausedAt != nil {
		pausedAt := *t.PausedAt
		clone.PausedAt = &pausedAt
	}
	return &clone
}

func (t *Timer) IsActive() bool {
	return t.Status == StatusActive
}

// OwnedBy reports whether ownerID may see the timer. An empty ownerID is an
// unscoped caller such as the background ticker.
func (t *Timer) OwnedBy(ownerID string) bool {
	return ownerID == "" || t.OwnerID == ownerID
}

type TimerEvent struct {
	ID               string    `json:"id"`
	TimerID          string    `json:"timerId"`
	Type             string    `json:"type"`
	UrgencyLevel     string    `json:"urgencyLevel"`
	RemainingSeconds int       `json:"remainingSeconds"`
	RecordedAt       time.Time `json:"recordedAt"`
}
