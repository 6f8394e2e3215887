package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/queue"
	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/store"
)

// fakeMessage records acknowledgement calls.
type fakeMessage struct {
	job      *queue.Job
	acked    bool
	nacked   bool
	requeued bool
}

func (m *fakeMessage) Ack() error { m.acked = true; return nil }

func (m *fakeMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeued = requeue
	return nil
}

func (m *fakeMessage) GetJob() *queue.Job { return m.job }

// fakeQueue records re-enqueued jobs.
type fakeQueue struct {
	jobs       []*queue.Job
	enqueueErr error
}

func (q *fakeQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (q *fakeQueue) Close() error { return nil }

func (q *fakeQueue) HealthCheck(ctx context.Context) error { return nil }

// failingStore wraps a store and fails Create, so Advance cannot materialize
// the successor.
type failingStore struct {
	store.Store
}

func (s *failingStore) Create(ctx context.Context, task *models.Task) error {
	return errors.New("disk full")
}

type singleStoreProvider struct {
	st store.Store
}

func (p *singleStoreProvider) For(ctx context.Context, owner string) (store.Store, error) {
	return p.st, nil
}

func (p *singleStoreProvider) Close() error { return nil }

// seedCompletedRecurring creates a completed recurring task whose successor is
// missing, the state an advance job exists to repair.
func seedCompletedRecurring(t *testing.T, st store.Store) *models.Task {
	t.Helper()
	due := models.Date{Year: 2025, Month: time.June, Day: 20}
	task := &models.Task{
		Title:      "daily chore",
		Complete:   true,
		DueDate:    &due,
		Recurrence: models.RecurrenceDaily,
	}
	if err := st.Create(context.Background(), task); err != nil {
		t.Fatalf("seeding task: %v", err)
	}
	return task
}

func TestProcessJobAdvancesTask(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	task := seedCompletedRecurring(t, st)

	jobs := &fakeQueue{}
	advancer := NewRecurrenceAdvancer(&singleStoreProvider{st: st}, jobs, zap.NewNop())

	msg := &fakeMessage{job: queue.NewJob(queue.JobTypeRecurrenceAdvance, "alice", task.ID)}
	if err := advancer.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if !msg.acked || msg.nacked {
		t.Errorf("message state: acked=%v nacked=%v", msg.acked, msg.nacked)
	}

	tasks, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("store holds %d tasks, want original plus successor", len(tasks))
	}
	successor := tasks[1]
	if successor.Complete || successor.DueDate == nil || successor.DueDate.String() != "2025-06-21" {
		t.Errorf("unexpected successor: %+v", successor)
	}
}

func TestProcessJobDropsObsoleteJobs(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	jobs := &fakeQueue{}
	advancer := NewRecurrenceAdvancer(&singleStoreProvider{st: st}, jobs, zap.NewNop())
	ctx := context.Background()

	t.Run("task deleted", func(t *testing.T) {
		msg := &fakeMessage{job: queue.NewJob(queue.JobTypeRecurrenceAdvance, "alice", 999)}
		if err := advancer.ProcessJob(ctx, msg); err != nil {
			t.Fatalf("ProcessJob: %v", err)
		}
		if !msg.acked {
			t.Error("obsolete job was not acked")
		}
	})

	t.Run("task reopened", func(t *testing.T) {
		due := models.Date{Year: 2025, Month: time.June, Day: 20}
		reopened := &models.Task{Title: "reopened", DueDate: &due, Recurrence: models.RecurrenceDaily}
		if err := st.Create(ctx, reopened); err != nil {
			t.Fatalf("seeding task: %v", err)
		}

		msg := &fakeMessage{job: queue.NewJob(queue.JobTypeRecurrenceAdvance, "alice", reopened.ID)}
		if err := advancer.ProcessJob(ctx, msg); err != nil {
			t.Fatalf("ProcessJob: %v", err)
		}
		if !msg.acked {
			t.Error("obsolete job was not acked")
		}
	})

	if len(jobs.jobs) != 0 {
		t.Errorf("obsolete jobs were re-enqueued: %d", len(jobs.jobs))
	}
}

func TestProcessJobSchedulesRetryWithBackoff(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	task := seedCompletedRecurring(t, st)

	jobs := &fakeQueue{}
	advancer := NewRecurrenceAdvancer(&singleStoreProvider{st: &failingStore{Store: st}}, jobs, zap.NewNop())

	job := queue.NewJob(queue.JobTypeRecurrenceAdvance, "alice", task.ID)
	job.RetryCount = 1
	msg := &fakeMessage{job: job}

	if err := advancer.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected a retry error")
	}
	if !msg.acked {
		t.Error("message not acked before re-enqueue")
	}
	if len(jobs.jobs) != 1 {
		t.Fatalf("re-enqueued %d jobs, want 1", len(jobs.jobs))
	}

	retried := jobs.jobs[0]
	if retried.RetryCount != 2 {
		t.Errorf("retry count = %d, want 2", retried.RetryCount)
	}
	if retried.NotBefore == nil {
		t.Fatal("retry has no NotBefore delay")
	}
	// Second retry backs off 2^1 * 30s = 60s.
	delay := time.Until(*retried.NotBefore)
	if delay < 50*time.Second || delay > 70*time.Second {
		t.Errorf("retry delay = %v, want about 60s", delay)
	}
}

func TestProcessJobExhaustedRetriesGoToDLQ(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	task := seedCompletedRecurring(t, st)

	jobs := &fakeQueue{}
	advancer := NewRecurrenceAdvancer(&singleStoreProvider{st: &failingStore{Store: st}}, jobs, zap.NewNop())

	job := queue.NewJob(queue.JobTypeRecurrenceAdvance, "alice", task.ID)
	job.RetryCount = job.MaxRetries
	msg := &fakeMessage{job: job}

	if err := advancer.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected a failure error")
	}
	if !msg.nacked || msg.requeued {
		t.Errorf("message state: nacked=%v requeued=%v, want nack without requeue", msg.nacked, msg.requeued)
	}
	if len(jobs.jobs) != 0 {
		t.Errorf("exhausted job was re-enqueued")
	}
}

func TestProcessJobUnknownType(t *testing.T) {
	t.Parallel()

	advancer := NewRecurrenceAdvancer(&singleStoreProvider{st: store.NewMemoryStore()}, &fakeQueue{}, zap.NewNop())

	msg := &fakeMessage{job: queue.NewJob("reindex", "alice", 1)}
	if err := advancer.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("unknown job type accepted")
	}
	if !msg.nacked || msg.requeued {
		t.Errorf("message state: nacked=%v requeued=%v, want nack without requeue", msg.nacked, msg.requeued)
	}
}
