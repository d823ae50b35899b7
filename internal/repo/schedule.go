package repo

import (
	"context"
	"errors"
	"time"

	"github.com/LeventeLantos/scheduled-messaging/internal/model"
)

// ErrNotFound reports that a mutation matched no live row: either the
// id does not exist, or the row was already sent and is guarded from
// further changes. Callers treat it as a benign not-found, not a fault.
var ErrNotFound = errors.New("schedule entry not found")

type ScheduleRepository interface {
	// InsertBatch persists all rows in one transaction and returns the
	// assigned ids in creation order. No partial batch is ever visible.
	InsertBatch(ctx context.Context, rows []model.ScheduledMessage) ([]int64, error)

	// ListPending returns unsent entries ordered by scheduled_at ascending.
	ListPending(ctx context.Context) ([]model.ScheduledMessage, error)

	// ListDue returns unsent entries with scheduled_at <= now, ordered by
	// scheduled_at ascending.
	ListDue(ctx context.Context, now time.Time) ([]model.ScheduledMessage, error)

	// Reschedule moves an unsent entry to newTime. ErrNotFound if the id
	// is missing or already sent.
	Reschedule(ctx context.Context, id int64, newTime time.Time) error

	// DeleteOne removes an unsent entry. ErrNotFound if missing or sent.
	DeleteOne(ctx context.Context, id int64) error

	// DeleteBatch removes the unsent members of a batch and returns how
	// many rows went away. Sent members are retained as history.
	DeleteBatch(ctx context.Context, batchID string) (int64, error)

	// MarkSent flips an entry false->true exactly once. ErrNotFound if
	// the id is missing or the flag was already set.
	MarkSent(ctx context.Context, id int64, remoteMessageID string) error

	// ListSent returns dispatched entries, most recent first.
	ListSent(ctx context.Context, limit, offset int) ([]model.ScheduledMessage, error)
}
