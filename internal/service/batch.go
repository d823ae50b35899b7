package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/LeventeLantos/scheduled-messaging/internal/model"
	"github.com/LeventeLantos/scheduled-messaging/internal/notify"
	"github.com/LeventeLantos/scheduled-messaging/internal/repo"
)

// DelayFunc computes the typing offset added between two consecutive
// messages, keyed to the length of the earlier one.
type DelayFunc func(length int) time.Duration

// Notifier is the broadcast capability the services publish through.
type Notifier interface {
	Publish(eventType notify.EventType, data any)
}

// BatchScheduler owns the schedule's write path: batch creation with
// typing-cadence offsets, reschedules and deletes. Every successful
// mutation broadcasts the refreshed pending set.
type BatchScheduler struct {
	repo     repo.ScheduleRepository
	delay    DelayFunc
	notifier Notifier
	now      func() time.Time
}

func NewBatchScheduler(r repo.ScheduleRepository, delay DelayFunc, n Notifier) *BatchScheduler {
	return &BatchScheduler{
		repo:     r,
		delay:    delay,
		notifier: n,
		now:      time.Now,
	}
}

type BatchReceipt struct {
	BatchID string  `json:"batchId"`
	Count   int     `json:"count"`
	IDs     []int64 `json:"ids"`
}

// Schedule validates the request, computes per-message send times and
// writes the whole batch in one transaction. Message i is offset from
// message i-1 by the time a human would need to type message i-1.
func (s *BatchScheduler) Schedule(ctx context.Context, destination string, texts []string, targetTime time.Time) (*BatchReceipt, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, validationf("destination must not be empty")
	}

	cleaned := make([]string, 0, len(texts))
	for _, raw := range texts {
		if t := strings.TrimSpace(raw); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil, validationf("batch must contain at least one non-empty message")
	}

	now := s.now().UTC()
	if !targetTime.After(now) {
		return nil, validationf("target time %s is not in the future", targetTime.UTC().Format(time.RFC3339))
	}

	batchID := newBatchID(now)

	rows := make([]model.ScheduledMessage, len(cleaned))
	sendAt := targetTime.UTC()
	for i, text := range cleaned {
		if i > 0 {
			sendAt = sendAt.Add(s.delay(utf8.RuneCountInString(cleaned[i-1])))
		}
		rows[i] = model.ScheduledMessage{
			BatchID:     batchID,
			Destination: destination,
			Text:        text,
			ScheduledAt: sendAt,
			CreatedAt:   now,
		}
	}

	ids, err := s.repo.InsertBatch(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}

	slog.Info("batch scheduled",
		"batch_id", batchID,
		"destination", destination,
		"count", len(ids),
		"first_at", rows[0].ScheduledAt,
		"last_at", rows[len(rows)-1].ScheduledAt,
	)

	s.broadcastPending(ctx)

	return &BatchReceipt{BatchID: batchID, Count: len(ids), IDs: ids}, nil
}

// Reschedule moves a pending entry to newTime. Sent entries stay put
// and report repo.ErrNotFound.
func (s *BatchScheduler) Reschedule(ctx context.Context, id int64, newTime time.Time) error {
	if err := s.repo.Reschedule(ctx, id, newTime.UTC()); err != nil {
		return err
	}
	s.broadcastPending(ctx)
	return nil
}

// Delete removes a single pending entry.
func (s *BatchScheduler) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteOne(ctx, id); err != nil {
		return err
	}
	s.broadcastPending(ctx)
	return nil
}

// DeleteBatch removes a batch's pending entries. Already-sent members
// survive as history.
func (s *BatchScheduler) DeleteBatch(ctx context.Context, batchID string) (int64, error) {
	n, err := s.repo.DeleteBatch(ctx, batchID)
	if err != nil {
		return 0, err
	}
	s.broadcastPending(ctx)
	return n, nil
}

func (s *BatchScheduler) broadcastPending(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		slog.Warn("failed to load pending set for broadcast", "error", err)
		return
	}
	s.notifier.Publish(notify.ScheduleSetChanged, pending)
}

// newBatchID builds a collision-resistant batch identifier from the
// creation timestamp plus a random suffix.
func newBatchID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
