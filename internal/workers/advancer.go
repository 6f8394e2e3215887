// Package workers contains the background job processors consumed from the
// job queue.
package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/queue"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/service"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/store"
)

// RecurrenceAdvancer retries successor creation for recurring tasks whose
// completion left them without a next occurrence.
type RecurrenceAdvancer struct {
	provider store.Provider
	jobQueue queue.JobQueue // For re-enqueueing jobs with delays
	logger   *zap.Logger
}

// NewRecurrenceAdvancer creates a new recurrence advancer
func NewRecurrenceAdvancer(provider store.Provider, jobQueue queue.JobQueue, logger *zap.Logger) *RecurrenceAdvancer {
	return &RecurrenceAdvancer{
		provider: provider,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

// Run consumes jobs until the context is cancelled.
func (a *RecurrenceAdvancer) Run(ctx context.Context, prefetchCount int) error {
	msgChan, errChan, err := a.jobQueue.Consume(ctx, prefetchCount)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	a.logger.Info("worker_started", zap.Int("prefetch", prefetchCount))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("worker_stopping")
			return nil
		case consumeErr, ok := <-errChan:
			if !ok {
				return nil
			}
			a.logger.Error("consume_error", zap.Error(consumeErr))
		case msg, ok := <-msgChan:
			if !ok {
				a.logger.Info("message_channel_closed")
				return nil
			}
			if err := a.ProcessJob(ctx, msg); err != nil {
				a.logger.Error("job_failed",
					zap.String("job_id", msg.Job.ID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

// ProcessJob processes a single message based on its job type.
func (a *RecurrenceAdvancer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.Type {
	case queue.JobTypeRecurrenceAdvance:
		if err := a.processAdvanceJob(ctx, job); err != nil {
			// A validation failure means the task was deleted, reopened, or
			// stripped of its recurrence since the job was enqueued. The job
			// is moot; drop it.
			if service.IsValidation(err) || service.IsNotFound(err) {
				a.logger.Info("advance_job_obsolete",
					zap.String("job_id", job.ID.String()),
					zap.Int64("task_id", job.TaskID),
					zap.String("reason", err.Error()),
				)
				return msg.Ack()
			}
			return a.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		// Unknown job type, send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Error("nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// processAdvanceJob resolves the owner's store and retries successor creation.
func (a *RecurrenceAdvancer) processAdvanceJob(ctx context.Context, job *queue.Job) error {
	st, err := a.provider.For(ctx, job.Owner)
	if err != nil {
		return fmt.Errorf("failed to resolve store for owner: %w", err)
	}
	svc := service.New(st, service.WithLogger(a.logger))

	next, err := svc.Advance(ctx, job.TaskID)
	if err != nil {
		return err
	}

	a.logger.Info("advance_retry_succeeded",
		zap.String("job_id", job.ID.String()),
		zap.Int64("task_id", job.TaskID),
		zap.Int64("successor_id", next.ID),
	)
	return nil
}

// handleJobError applies the retry policy: delayed re-enqueue while retries
// remain, DLQ once exhausted.
func (a *RecurrenceAdvancer) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if !job.CanRetry() {
		a.logger.Error("advance_job_exhausted",
			zap.String("job_id", job.ID.String()),
			zap.Int64("task_id", job.TaskID),
			zap.Int("retries", job.RetryCount),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Error("nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (max retries): %w", err)
	}

	// Back off before the next attempt; the delayed exchange holds the job
	// until NotBefore.
	retryDelay := time.Duration(1<<uint(job.RetryCount)) * 30 * time.Second
	notBefore := time.Now().Add(retryDelay)

	delayedJob := &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		Owner:      job.Owner,
		TaskID:     job.TaskID,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}

	if ackErr := msg.Ack(); ackErr != nil {
		a.logger.Error("ack_failed_before_reenqueue", zap.Error(ackErr))
	}

	if enqueueErr := a.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
		a.logger.Error("reenqueue_failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(enqueueErr),
		)
		return fmt.Errorf("failed to re-enqueue: %w", enqueueErr)
	}

	a.logger.Info("advance_job_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int64("task_id", job.TaskID),
		zap.Int("attempt", delayedJob.RetryCount),
		zap.Time("not_before", notBefore),
	)
	return fmt.Errorf("job failed (will retry): %w", err)
}
