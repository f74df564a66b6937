package service

import (
	"context"

	"facetimer/backend/internal/model"
)

// TimerStore persists timers and their event log. Each call is atomic for
// the timer it touches; a timer write and its event commit together.
// Missing timers are reported as repository.ErrNotFound.
type TimerStore interface {
	CreateTimer(ctx context.Context, timer *model.Timer, event *model.TimerEvent) error
	GetTimer(ctx context.Context, id string) (*model.Timer, error)
	UpdateTimer(ctx context.Context, timer *model.Timer, event *model.TimerEvent) error
	DeleteTimer(ctx context.Context, id string) error
	ListTimers(ctx context.Context) ([]model.Timer, error)
	ListEvents(ctx context.Context, timerID string, limit int) ([]model.TimerEvent, error)
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}
