package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"facetimer/backend/internal/model"
)

// MemoryTimerRepository keeps timers and their events in process memory.
// Stored values are copied on the way in and out.
type MemoryTimerRepository struct {
	mu     sync.RWMutex
	timers map[string]*model.Timer
	events map[string][]model.TimerEvent
}

func NewMemoryTimerRepository() *MemoryTimerRepository {
	return &MemoryTimerRepository{
		timers: make(map[string]*model.Timer),
		events: make(map[string][]model.TimerEvent),
	}
}

func (r *MemoryTimerRepository) CreateTimer(ctx context.Context, timer *model.Timer, event *model.TimerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.timers[timer.ID]; ok {
		return fmt.Errorf("create timer %s: %w", timer.ID, ErrDuplicate)
	}
	r.timers[timer.ID] = timer.Clone()
	if event != nil {
		r.events[timer.ID] = append(r.events[timer.ID], *event)
	}
	return nil
}

func (r *MemoryTimerRepository) GetTimer(ctx context.Context, id string) (*model.Timer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	timer, ok := r.timers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return timer.Clone(), nil
}

func (r *MemoryTimerRepository) UpdateTimer(ctx context.Context, timer *model.Timer, event *model.TimerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.timers[timer.ID]; !ok {
		return ErrNotFound
	}
	r.timers[timer.ID] = timer.Clone()
	if event != nil {
		r.events[timer.ID] = append(r.events[timer.ID], *event)
	}
	return nil
}

func (r *MemoryTimerRepository) DeleteTimer(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.timers[id]; !ok {
		return ErrNotFound
	}
	delete(r.timers, id)
	delete(r.events, id)
	return nil
}

func (r *MemoryTimerRepository) ListTimers(ctx context.Context) ([]model.Timer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	timers := make([]model.Timer, 0, len(r.timers))
	for _, timer := range r.timers {
		timers = append(timers, *timer.Clone())
	}
	sort.Slice(timers, func(i, j int) bool {
		if timers[i].CreatedAt.Equal(timers[j].CreatedAt) {
			return timers[i].ID < timers[j].ID
		}
		return timers[i].CreatedAt.Before(timers[j].CreatedAt)
	})
	return timers, nil
}

func (r *MemoryTimerRepository) ListEvents(ctx context.Context, timerID string, limit int) ([]model.TimerEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.events[timerID]
	events := make([]model.TimerEvent, 0, min(limit, len(stored)))
	for i := len(stored) - 1; i >= 0 && len(events) < limit; i-- {
		events = append(events, stored[i])
	}
	return events, nil
}

// MemoryUserRepository is the in-memory counterpart of UserRepository.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]model.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return fmt.Errorf("create user: %w", ErrDuplicate)
	}
	r.byID[user.ID] = *user
	r.byEmail[email] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}
