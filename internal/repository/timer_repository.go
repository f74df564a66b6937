package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"facetimer/backend/internal/model"
)

const timerColumns = `id, owner_id, name, initial_seconds, remaining_seconds, status, reset_count,
		        started_at, last_reset_at, paused_at, created_at, updated_at`

type TimerRepository struct {
	db *sql.DB
}

func NewTimerRepository(db *sql.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

func (r *TimerRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func (r *TimerRepository) CreateTimer(ctx context.Context, timer *model.Timer, event *model.TimerEvent) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO timers (
			id, owner_id, name, initial_seconds, remaining_seconds, status, reset_count,
			started_at, last_reset_at, paused_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		timer.ID,
		timer.OwnerID,
		timer.Name,
		timer.InitialSeconds,
		timer.RemainingSeconds,
		string(timer.Status),
		timer.ResetCount,
		formatTime(timer.StartedAt),
		formatTime(timer.LastResetAt),
		formatNullableTime(timer.PausedAt),
		formatTime(timer.CreatedAt),
		formatTime(timer.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create timer: %w", err)
	}

	if event != nil {
		if err := r.insertEventTx(ctx, tx, event); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create timer: %w", err)
	}
	return nil
}

func (r *TimerRepository) GetTimer(ctx context.Context, id string) (*model.Timer, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+timerColumns+`
		 FROM timers WHERE id = ?`,
		id,
	)
	return scanTimer(row)
}

func (r *TimerRepository) UpdateTimer(ctx context.Context, timer *model.Timer, event *model.TimerEvent) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE timers
		 SET name = ?,
		     remaining_seconds = ?,
			 status = ?,
			 reset_count = ?,
			 started_at = ?,
			 last_reset_at = ?,
			 paused_at = ?,
			 updated_at = ?
		 WHERE id = ?`,
		timer.Name,
		timer.RemainingSeconds,
		string(timer.Status),
		timer.ResetCount,
		formatTime(timer.StartedAt),
		formatTime(timer.LastResetAt),
		formatNullableTime(timer.PausedAt),
		formatTime(timer.UpdatedAt),
		timer.ID,
	)
	if err != nil {
		return fmt.Errorf("update timer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timer rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if event != nil {
		if err := r.insertEventTx(ctx, tx, event); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update timer: %w", err)
	}
	return nil
}

func (r *TimerRepository) DeleteTimer(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM timers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete timer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete timer rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TimerRepository) ListTimers(ctx context.Context) ([]model.Timer, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+timerColumns+`
		 FROM timers
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list timers: %w", err)
	}
	defer rows.Close()

	timers := make([]model.Timer, 0)
	for rows.Next() {
		timer, scanErr := scanTimer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		timers = append(timers, *timer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timers: %w", err)
	}
	return timers, nil
}

func (r *TimerRepository) ListEvents(ctx context.Context, timerID string, limit int) ([]model.TimerEvent, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, timer_id, event_type, urgency_level, remaining_seconds, recorded_at
		 FROM timer_events
		 WHERE timer_id = ?
		 ORDER BY recorded_at DESC, rowid DESC
		 LIMIT ?`,
		timerID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]model.TimerEvent, 0, limit)
	for rows.Next() {
		var event model.TimerEvent
		var recordedAt string
		if err := rows.Scan(
			&event.ID,
			&event.TimerID,
			&event.Type,
			&event.UrgencyLevel,
			&event.RemainingSeconds,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		parsed, err := parseTime(recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parse event recorded_at: %w", err)
		}
		event.RecordedAt = parsed
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (r *TimerRepository) insertEventTx(ctx context.Context, tx *sql.Tx, event *model.TimerEvent) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO timer_events (
			id, timer_id, event_type, urgency_level, remaining_seconds, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.TimerID,
		event.Type,
		event.UrgencyLevel,
		event.RemainingSeconds,
		formatTime(event.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTimer(s scanner) (*model.Timer, error) {
	timer := model.Timer{}
	var status string
	var startedAt, lastResetAt, createdAt, updatedAt string
	var pausedAt sql.NullString
	err := s.Scan(
		&timer.ID,
		&timer.OwnerID,
		&timer.Name,
		&timer.InitialSeconds,
		&timer.RemainingSeconds,
		&status,
		&timer.ResetCount,
		&startedAt,
		&lastResetAt,
		&pausedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan timer: %w", err)
	}
	timer.Status = model.TimerStatus(status)

	if timer.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse timer started_at: %w", err)
	}
	if timer.LastResetAt, err = parseTime(lastResetAt); err != nil {
		return nil, fmt.Errorf("parse timer last_reset_at: %w", err)
	}
	if timer.PausedAt, err = parseNullableTime(pausedAt); err != nil {
		return nil, fmt.Errorf("parse timer paused_at: %w", err)
	}
	if timer.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse timer created_at: %w", err)
	}
	if timer.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse timer updated_at: %w", err)
	}
	return &timer, nil
}
