package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/crumbworks/bakery-backend/pkg/logger"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	outboxRetentionDays = 30
	dlqRetentionDays    = 90
	outboxMinAttempts   = 5
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OutboxRetentionJobParams configure the outbox cleanup.
type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Events        outboxEventPurger
	DLQ           dlqPurger
	RetentionDays int
	DLQDays       int
	MinAttempts   int
}

type outboxEventPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type dlqPurger interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob deletes published or exhausted outbox rows and old DLQ entries.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		events:      params.Events,
		dlq:         params.DLQ,
		retention:   orDefault(params.RetentionDays, outboxRetentionDays),
		dlqDays:     orDefault(params.DLQDays, dlqRetentionDays),
		minAttempts: orDefault(params.MinAttempts, outboxMinAttempts),
		now:         time.Now,
	}
	return job, nil
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	events      outboxEventPurger
	dlq         dlqPurger
	retention   int
	dlqDays     int
	minAttempts int
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run purges the two tables in separate transactions so one failing does not roll back the other.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	eventCutoff := now.Add(-days(j.retention))
	dlqCutoff := now.Add(-days(j.dlqDays))

	var events, dlqRows int64
	errs := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.events.DeletePublishedBefore(ctx, tx, eventCutoff, j.minAttempts)
		events = n
		return err
	})
	if j.dlq != nil {
		errs = multierr.Append(errs, j.db.WithTx(ctx, func(tx *gorm.DB) error {
			n, err := j.dlq.DeleteFailedBefore(ctx, tx, dlqCutoff)
			dlqRows = n
			return err
		}))
	}
	if errs != nil {
		return fmt.Errorf("outbox retention: %w", errs)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"event_cutoff":   eventCutoff,
		"dlq_cutoff":     dlqCutoff,
		"min_attempts":   j.minAttempts,
		"events_deleted": events,
		"dlq_deleted":    dlqRows,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
