package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LeventeLantos/scheduled-messaging/internal/model"
	"github.com/LeventeLantos/scheduled-messaging/internal/notify"
	"github.com/LeventeLantos/scheduled-messaging/internal/repo"
)

// memRepo is an in-memory stand-in for the Postgres schedule repo with
// the same sent-guard semantics.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*model.ScheduledMessage

	insertErr  error
	listDueErr error
	markErr    error

	listDueCalls int
	markCalls    map[int64]int
}

func newMemRepo() *memRepo {
	return &memRepo{markCalls: make(map[int64]int)}
}

var _ repo.ScheduleRepository = (*memRepo)(nil)

func (r *memRepo) InsertBatch(ctx context.Context, rows []model.ScheduledMessage) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.insertErr != nil {
		return nil, r.insertErr
	}

	ids := make([]int64, 0, len(rows))
	for _, m := range rows {
		r.nextID++
		m.ID = r.nextID
		cp := m
		r.rows = append(r.rows, &cp)
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (r *memRepo) ListPending(ctx context.Context) ([]model.ScheduledMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.ScheduledMessage
	for _, m := range r.rows {
		if !m.Sent {
			out = append(out, *m)
		}
	}
	sortByScheduledAt(out)
	return out, nil
}

func (r *memRepo) ListDue(ctx context.Context, now time.Time) ([]model.ScheduledMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listDueCalls++
	if r.listDueErr != nil {
		return nil, r.listDueErr
	}

	var out []model.ScheduledMessage
	for _, m := range r.rows {
		if !m.Sent && !m.ScheduledAt.After(now) {
			out = append(out, *m)
		}
	}
	sortByScheduledAt(out)
	return out, nil
}

func (r *memRepo) Reschedule(ctx context.Context, id int64, newTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.rows {
		if m.ID == id && !m.Sent {
			m.ScheduledAt = newTime
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *memRepo) DeleteOne(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.rows {
		if m.ID == id && !m.Sent {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *memRepo) DeleteBatch(ctx context.Context, batchID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []*model.ScheduledMessage
	var deleted int64
	for _, m := range r.rows {
		if m.BatchID == batchID && !m.Sent {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.rows = kept

	if deleted == 0 {
		return 0, repo.ErrNotFound
	}
	return deleted, nil
}

func (r *memRepo) MarkSent(ctx context.Context, id int64, remoteMessageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.markCalls[id]++
	if r.markErr != nil {
		return r.markErr
	}

	for _, m := range r.rows {
		if m.ID == id && !m.Sent {
			now := time.Now().UTC()
			m.Sent = true
			m.SentAt = &now
			m.RemoteMessageID = &remoteMessageID
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *memRepo) ListSent(ctx context.Context, limit, offset int) ([]model.ScheduledMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.ScheduledMessage
	for _, m := range r.rows {
		if m.Sent {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memRepo) seed(rows ...model.ScheduledMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range rows {
		if m.ID == 0 {
			r.nextID++
			m.ID = r.nextID
		} else if m.ID > r.nextID {
			r.nextID = m.ID
		}
		cp := m
		r.rows = append(r.rows, &cp)
	}
}

func (r *memRepo) byID(id int64) model.ScheduledMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.rows {
		if m.ID == id {
			return *m
		}
	}
	return model.ScheduledMessage{}
}

func scheduledRow(id int64, batchID string, at time.Time, sent bool) model.ScheduledMessage {
	m := model.ScheduledMessage{
		ID:          id,
		BatchID:     batchID,
		Destination: "36201234567",
		Text:        "msg",
		ScheduledAt: at,
		CreatedAt:   at.Add(-time.Hour),
		Sent:        sent,
	}
	if sent {
		ts := at
		m.SentAt = &ts
	}
	return m
}

func sortByScheduledAt(out []model.ScheduledMessage) {
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
}

// recordingNotifier captures published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.EventType
	data   []any
}

func (n *recordingNotifier) Publish(eventType notify.EventType, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
	n.data = append(n.data, data)
}

func (n *recordingNotifier) count(t notify.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == t {
			c++
		}
	}
	return c
}

// fakeTransport scripts readiness and per-destination send behavior.
type fakeTransport struct {
	mu    sync.Mutex
	ready bool
	sends []sentCall

	// failFor makes Send fail for a given message text.
	failFor map[string]error

	// blockSend, when set, is closed by the test to release in-flight sends.
	blockSend chan struct{}
}

type sentCall struct {
	Destination string
	Text        string
}

func (t *fakeTransport) IsReady(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

func (t *fakeTransport) Send(ctx context.Context, destination, text string) (string, error) {
	if t.blockSend != nil {
		<-t.blockSend
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err, ok := t.failFor[text]; ok {
		return "", err
	}
	t.sends = append(t.sends, sentCall{Destination: destination, Text: text})
	return "remote-" + text, nil
}

func (t *fakeTransport) sentTexts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.sends))
	for i, s := range t.sends {
		out[i] = s.Text
	}
	return out
}
