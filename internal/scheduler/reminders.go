// Package scheduler runs cron-based background jobs over the task stores.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/query"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/request"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/store"
)

// ReminderScheduler periodically scans every owner's tasks and logs overdue
// and due-today counts. It is the hook point for outbound notification
// channels.
type ReminderScheduler struct {
	cron     *cron.Cron
	provider store.Provider
	logger   *zap.Logger
	now      func() time.Time
}

// NewReminderScheduler creates a reminder scheduler.
func NewReminderScheduler(provider store.Provider, logger *zap.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		cron:     cron.New(),
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// Schedule registers the reminder scan under the given cron spec
// (standard five-field format, e.g. "0 7 * * *" for 07:00 daily).
func (s *ReminderScheduler) Schedule(spec string) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.Scan(ctx)
	})
}

// Start begins running scheduled jobs.
func (s *ReminderScheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *ReminderScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Scan walks every known owner and logs their due-task counts.
func (s *ReminderScheduler) Scan(ctx context.Context) {
	owners := []string{request.DefaultOwner}
	if lister, ok := s.provider.(store.OwnerLister); ok {
		listed, err := lister.Owners(ctx)
		if err != nil {
			s.logger.Error("reminder_owner_list_failed", zap.Error(err))
			return
		}
		owners = listed
	}

	for _, owner := range owners {
		s.scanOwner(ctx, owner)
	}
}

func (s *ReminderScheduler) scanOwner(ctx context.Context, owner string) {
	st, err := s.provider.For(ctx, owner)
	if err != nil {
		s.logger.Error("reminder_store_resolve_failed",
			zap.String("owner", owner),
			zap.Error(err),
		)
		return
	}

	tasks, err := st.List(ctx)
	if err != nil {
		s.logger.Error("reminder_list_failed",
			zap.String("owner", owner),
			zap.Error(err),
		)
		return
	}

	today := models.DateOf(s.now())

	overdue, err := query.Run(tasks, query.Filter{Due: models.DueFilterOverdue}, "", query.Sort{}, today)
	if err != nil {
		s.logger.Error("reminder_query_failed", zap.String("owner", owner), zap.Error(err))
		return
	}
	dueToday, err := query.Run(tasks, query.Filter{Status: models.StatusFilterIncomplete, Due: models.DueFilterToday}, "", query.Sort{}, today)
	if err != nil {
		s.logger.Error("reminder_query_failed", zap.String("owner", owner), zap.Error(err))
		return
	}

	if len(overdue) == 0 && len(dueToday) == 0 {
		return
	}

	s.logger.Info("reminder_scan",
		zap.String("owner", owner),
		zap.Int("overdue", len(overdue)),
		zap.Int("due_today", len(dueToday)),
	)
}
