// Package storage persists trigger outcomes as dispatch history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/climateengine/build-sensor/internal/core"
)

// Outcome status values.
const (
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
)

// DefaultListLimit caps ListOutcomes when no limit is given.
const DefaultListLimit = 50

// Store defines the dispatch history operations.
type Store interface {
	core.DispatchRecorder
	ListOutcomes(ctx context.Context, filter ListFilter) ([]OutcomeRecord, error)
}

// OutcomeRecord is one persisted trigger outcome.
type OutcomeRecord struct {
	ID                int64     `db:"id"`
	Sensor            string    `db:"sensor"`
	Trigger           string    `db:"trigger_name"`
	EventID           string    `db:"event_id"`
	Repository        string    `db:"repository"`
	HeadSHA           string    `db:"head_sha"`
	TemplateNamespace string    `db:"template_namespace"`
	TemplateName      string    `db:"template_name"`
	TemplateKey       string    `db:"template_key"`
	WorkflowName      string    `db:"workflow_name"`
	Status            string    `db:"status"`
	Error             string    `db:"error"`
	Attempts          int       `db:"attempts"`
	StartedAt         time.Time `db:"started_at"`
	DurationMS        int64     `db:"duration_ms"`
}

// Duration returns the recorded trigger duration.
func (r OutcomeRecord) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

// ListFilter narrows ListOutcomes. Empty fields match everything.
type ListFilter struct {
	Sensor  string
	EventID string
	Status  string
	Limit   int
}

type sqlStore struct {
	db *sqlx.DB
}

// NewStore creates a Store on top of an open, migrated database.
func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db}
}

// NewRecord converts a trigger outcome into its persisted form.
func NewRecord(o core.TriggerOutcome) OutcomeRecord {
	rec := OutcomeRecord{
		Sensor:            o.Sensor,
		Trigger:           o.Trigger,
		EventID:           o.EventID,
		Repository:        o.Repository,
		HeadSHA:           o.HeadSHA,
		TemplateNamespace: o.Template.Namespace,
		TemplateName:      o.Template.Name,
		TemplateKey:       o.Template.Key,
		WorkflowName:      o.WorkflowName,
		Status:            StatusSubmitted,
		Attempts:          o.Attempts,
		StartedAt:         o.StartedAt.UTC(),
		DurationMS:        o.Duration.Milliseconds(),
	}
	if !o.Succeeded() {
		rec.Status = StatusFailed
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	return rec
}

// RecordOutcome inserts a dispatch history row.
func (s *sqlStore) RecordOutcome(ctx context.Context, o core.TriggerOutcome) error {
	if o.Sensor == "" || o.Trigger == "" {
		return errors.New("outcome must name its sensor and trigger")
	}

	query := `
		INSERT INTO dispatch_outcomes (
			sensor, trigger_name, event_id, repository, head_sha,
			template_namespace, template_name, template_key,
			workflow_name, status, error, attempts, started_at, duration_ms
		) VALUES (
			:sensor, :trigger_name, :event_id, :repository, :head_sha,
			:template_namespace, :template_name, :template_key,
			:workflow_name, :status, :error, :attempts, :started_at, :duration_ms
		)`
	if _, err := s.db.NamedExecContext(ctx, query, NewRecord(o)); err != nil {
		return fmt.Errorf("failed to record outcome for %s/%s: %w", o.Sensor, o.Trigger, err)
	}
	return nil
}

// ListOutcomes returns the most recent outcomes first.
func (s *sqlStore) ListOutcomes(ctx context.Context, filter ListFilter) ([]OutcomeRecord, error) {
	query := `
		SELECT id, sensor, trigger_name, event_id, repository, head_sha,
		       template_namespace, template_name, template_key,
		       workflow_name, status, error, attempts, started_at, duration_ms
		FROM dispatch_outcomes
		WHERE 1 = 1`
	var args []any
	if filter.Sensor != "" {
		query += ` AND sensor = ?`
		args = append(args, filter.Sensor)
	}
	if filter.EventID != "" {
		query += ` AND event_id = ?`
		args = append(args, filter.EventID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var records []OutcomeRecord
	if err := s.db.SelectContext(ctx, &records, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list dispatch outcomes: %w", err)
	}
	return records, nil
}
