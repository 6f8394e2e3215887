package store

import (
	"context"
	"errors"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
)

// ErrNotFound is returned when an operation references a task id with no live
// record. Implementations wrap it so callers can use errors.Is.
var ErrNotFound = errors.New("task not found")

// Store holds the canonical task records for a single owner.
//
// Create assigns the next sequence id and stamps both timestamps. Ids are
// monotonically increasing and never reused, even after Delete. Update
// replaces the whole record in one atomic write and refreshes UpdatedAt.
// List returns tasks in insertion order; any further ordering is the query
// engine's job.
type Store interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id int64) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.Task, error)
	Close() error
}

// Provider hands out a Store scoped to a single owner. The authentication
// layer resolves the owner before any task operation runs; the core itself
// has no notion of multi-tenancy.
type Provider interface {
	For(ctx context.Context, owner string) (Store, error)
	Close() error
}

// OwnerLister is implemented by providers that can enumerate known owners.
// Background jobs that scan every store use it; providers without it are
// scanned for the default owner only.
type OwnerLister interface {
	Owners(ctx context.Context) ([]string, error)
}
