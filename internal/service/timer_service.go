package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"facetimer/backend/internal/clock"
	apperrors "facetimer/backend/internal/errors"
	"facetimer/backend/internal/model"
	"facetimer/backend/internal/repository"
	"facetimer/backend/internal/urgency"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

type Limits struct {
	// MaxDurationSeconds caps InitialSeconds on create; 0 disables the cap.
	MaxDurationSeconds int
	DefaultName        string
}

type TimerService struct {
	store  TimerStore
	clock  clock.Clock
	limits Limits
	locks  *keyedMutex
	logger *slog.Logger
	newID  func() string
}

type CreateTimerInput struct {
	Name           string
	InitialSeconds int
}

type TimerState struct {
	Timer      model.Timer   `json:"timer"`
	Urgency    urgency.State `json:"urgency"`
	ServerTime time.Time     `json:"serverTime"`
}

func NewTimerService(store TimerStore, clk clock.Clock, limits Limits, logger *slog.Logger) *TimerService {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if limits.DefaultName == "" {
		limits.DefaultName = model.DefaultTimerName
	}
	return &TimerService{
		store:  store,
		clock:  clk,
		limits: limits,
		locks:  newKeyedMutex(),
		logger: logger.With("component", "timers"),
		newID:  uuid.NewString,
	}
}

func (s *TimerService) Create(ctx context.Context, input CreateTimerInput) (*model.Timer, *apperrors.APIError) {
	if input.InitialSeconds <= 0 {
		return nil, apperrors.InvalidDuration("initial duration must be a positive number of seconds")
	}
	if s.limits.MaxDurationSeconds > 0 && input.InitialSeconds > s.limits.MaxDurationSeconds {
		return nil, apperrors.InvalidDuration(fmt.Sprintf("initial duration must not exceed %d seconds", s.limits.MaxDurationSeconds))
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = s.limits.DefaultName
	}
	if utf8.RuneCountInString(name) > model.MaxTimerNameLength {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidName, fmt.Sprintf("name must be at most %d characters", model.MaxTimerNameLength))
	}

	now := s.clock.Now()
	timer := &model.Timer{
		ID:               s.newID(),
		OwnerID:          ownerFrom(ctx),
		Name:             name,
		InitialSeconds:   input.InitialSeconds,
		RemainingSeconds: input.InitialSeconds,
		Status:           model.StatusActive,
		StartedAt:        now,
		LastResetAt:      now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.CreateTimer(ctx, timer, s.newEvent(timer, model.EventCreated, now)); err != nil {
		s.logger.Error("create timer failed", "error", err)
		return nil, apperrors.Internal("failed to create timer")
	}

	s.logger.Info("timer created",
		"timer_id", timer.ID,
		"owner_id", timer.OwnerID,
		"initial_seconds", timer.InitialSeconds,
	)
	return timer, nil
}

func (s *TimerService) Get(ctx context.Context, id string) (*model.Timer, *apperrors.APIError) {
	return s.load(ctx, id)
}

func (s *TimerService) State(ctx context.Context, id string) (*TimerState, *apperrors.APIError) {
	timer, apiErr := s.load(ctx, id)
	if apiErr != nil {
		return nil, apiErr
	}
	return &TimerState{
		Timer:      *timer,
		Urgency:    urgency.Classify(timer.RemainingSeconds, timer.InitialSeconds),
		ServerTime: s.clock.Now(),
	}, nil
}

func (s *TimerService) List(ctx context.Context) ([]model.Timer, *apperrors.APIError) {
	timers, err := s.store.ListTimers(ctx)
	if err != nil {
		s.logger.Error("list timers failed", "error", err)
		return nil, apperrors.Internal("failed to list timers")
	}

	owner := ownerFrom(ctx)
	if owner == "" {
		return timers, nil
	}
	owned := timers[:0]
	for _, timer := range timers {
		if timer.OwnedBy(owner) {
			owned = append(owned, timer)
		}
	}
	return owned, nil
}

// Tick counts an active timer down by delta seconds and expires it at zero.
// Paused and expired timers are returned unchanged whatever the delta.
func (s *TimerService) Tick(ctx context.Context, id string, delta int) (*model.Timer, *apperrors.APIError) {
	return s.mutate(ctx, id, func(timer *model.Timer, now time.Time) (string, bool, *apperrors.APIError) {
		if timer.Status != model.StatusActive {
			return "", false, nil
		}
		if delta < 0 {
			return "", false, apperrors.BadRequest(apperrors.CodeInvalidDelta, "tick delta must not be negative")
		}
		if delta == 0 {
			return "", false, nil
		}

		timer.RemainingSeconds = max(0, timer.RemainingSeconds-delta)
		if timer.RemainingSeconds == 0 {
			timer.Status = model.StatusExpired
			return model.EventExpired, true, nil
		}
		return "", true, nil
	})
}

func (s *TimerService) Pause(ctx context.Context, id string) (*model.Timer, *apperrors.APIError) {
	return s.mutate(ctx, id, func(timer *model.Timer, now time.Time) (string, bool, *apperrors.APIError) {
		if timer.Status != model.StatusActive {
			return "", false, apperrors.InvalidTransition(
				fmt.Sprintf("cannot pause a %s timer", timer.Status),
				timerDetails(timer),
			)
		}
		timer.Status = model.StatusPaused
		timer.PausedAt = &now
		return model.EventPaused, true, nil
	})
}

func (s *TimerService) Resume(ctx context.Context, id string) (*model.Timer, *apperrors.APIError) {
	return s.mutate(ctx, id, func(timer *model.Timer, now time.Time) (string, bool, *apperrors.APIError) {
		if timer.Status != model.StatusPaused {
			return "", false, apperrors.InvalidTransition(
				fmt.Sprintf("cannot resume a %s timer", timer.Status),
				timerDetails(timer),
			)
		}
		timer.Status = model.StatusActive
		timer.StartedAt = now
		timer.PausedAt = nil
		return model.EventResumed, true, nil
	})
}

// Reset restores the full duration of a timer that has not expired.
func (s *TimerService) Reset(ctx context.Context, id string) (*model.Timer, *apperrors.APIError) {
	return s.mutate(ctx, id, func(timer *model.Timer, now time.Time) (string, bool, *apperrors.APIError) {
		if timer.Status == model.StatusExpired {
			return "", false, apperrors.CannotResetExpired(timerDetails(timer))
		}
		timer.RemainingSeconds = timer.InitialSeconds
		timer.Status = model.StatusActive
		timer.LastResetAt = now
		timer.ResetCount++
		timer.PausedAt = nil
		return model.EventReset, true, nil
	})
}

func (s *TimerService) Delete(ctx context.Context, id string) *apperrors.APIError {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, apiErr := s.load(ctx, id); apiErr != nil {
		return apiErr
	}
	if err := s.store.DeleteTimer(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.TimerNotFound(id)
		}
		s.logger.Error("delete timer failed", "timer_id", id, "error", err)
		return apperrors.Internal("failed to delete timer")
	}

	s.logger.Info("timer deleted", "timer_id", id)
	return nil
}

func (s *TimerService) Events(ctx context.Context, id string, limit int) ([]model.TimerEvent, *apperrors.APIError) {
	if _, apiErr := s.load(ctx, id); apiErr != nil {
		return nil, apiErr
	}
	switch {
	case limit <= 0:
		limit = defaultEventLimit
	case limit > maxEventLimit:
		limit = maxEventLimit
	}
	events, err := s.store.ListEvents(ctx, id, limit)
	if err != nil {
		s.logger.Error("list timer events failed", "timer_id", id, "error", err)
		return nil, apperrors.Internal("failed to list timer events")
	}
	return events, nil
}

// TickActive ticks every active timer by delta and returns how many were
// ticked. Timers deleted while the sweep runs are skipped.
func (s *TimerService) TickActive(ctx context.Context, delta int) (int, error) {
	timers, apiErr := s.List(ctx)
	if apiErr != nil {
		return 0, apiErr
	}

	ticked := 0
	for _, timer := range timers {
		if err := ctx.Err(); err != nil {
			return ticked, err
		}
		if !timer.IsActive() {
			continue
		}
		if _, apiErr := s.Tick(ctx, timer.ID, delta); apiErr != nil {
			if apperrors.Is(apiErr, apperrors.CodeTimerNotFound) {
				continue
			}
			return ticked, apiErr
		}
		ticked++
	}
	return ticked, nil
}

type transition func(timer *model.Timer, now time.Time) (event string, changed bool, apiErr *apperrors.APIError)

// mutate serializes a read-modify-write on one timer. The transition works
// on a copy; nothing is stored unless it reports a change.
func (s *TimerService) mutate(ctx context.Context, id string, apply transition) (*model.Timer, *apperrors.APIError) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, apiErr := s.load(ctx, id)
	if apiErr != nil {
		return nil, apiErr
	}

	now := s.clock.Now()
	next := current.Clone()
	eventType, changed, apiErr := apply(next, now)
	if apiErr != nil {
		return nil, apiErr
	}
	if !changed {
		return current, nil
	}

	next.UpdatedAt = now
	if next.UpdatedAt.Before(current.UpdatedAt) {
		next.UpdatedAt = current.UpdatedAt
	}

	var event *model.TimerEvent
	if eventType != "" {
		event = s.newEvent(next, eventType, now)
	}

	if err := s.store.UpdateTimer(ctx, next, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.TimerNotFound(id)
		}
		s.logger.Error("update timer failed", "timer_id", id, "error", err)
		return nil, apperrors.Internal("failed to update timer")
	}

	if eventType != "" {
		s.logger.Info("timer "+eventType,
			"timer_id", id,
			"status", next.Status,
			"remaining_seconds", next.RemainingSeconds,
		)
	} else {
		s.logger.Debug("timer ticked", "timer_id", id, "remaining_seconds", next.RemainingSeconds)
	}
	return next, nil
}

func (s *TimerService) load(ctx context.Context, id string) (*model.Timer, *apperrors.APIError) {
	timer, err := s.store.GetTimer(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.TimerNotFound(id)
	}
	if err != nil {
		s.logger.Error("get timer failed", "timer_id", id, "error", err)
		return nil, apperrors.Internal("failed to get timer")
	}
	if !timer.OwnedBy(ownerFrom(ctx)) {
		return nil, apperrors.TimerNotFound(id)
	}
	return timer, nil
}

func (s *TimerService) newEvent(timer *model.Timer, eventType string, now time.Time) *model.TimerEvent {
	return &model.TimerEvent{
		ID:               s.newID(),
		TimerID:          timer.ID,
		Type:             eventType,
		UrgencyLevel:     urgency.LevelFor(timer.RemainingSeconds, timer.InitialSeconds).String(),
		RemainingSeconds: timer.RemainingSeconds,
		RecordedAt:       now,
	}
}

func timerDetails(timer *model.Timer) map[string]interface{} {
	return map[string]interface{}{
		"timer": *timer,
	}
}
