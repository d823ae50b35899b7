package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/LeventeLantos/scheduled-messaging/internal/model"
)

type PostgresScheduleRepo struct {
	db *sql.DB
}

func NewPostgresScheduleRepo(db *sql.DB) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{db: db}
}

func (r *PostgresScheduleRepo) InsertBatch(ctx context.Context, rows []model.ScheduledMessage) ([]int64, error) {
	if len(rows) == 0 {
		return nil, errors.New("rows must not be empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, len(rows))
	for _, m := range rows {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO scheduled_messages (batch_id, destination, content, scheduled_at, created_at, sent)
			VALUES ($1, $2, $3, $4, $5, FALSE)
			RETURNING id
		`, m.BatchID, m.Destination, m.Text, m.ScheduledAt.UTC(), m.CreatedAt.UTC()).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresScheduleRepo) ListPending(ctx context.Context) ([]model.ScheduledMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, destination, content, scheduled_at, created_at, sent, sent_at, remote_message_id
		FROM scheduled_messages
		WHERE sent = FALSE
		ORDER BY scheduled_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *PostgresScheduleRepo) ListDue(ctx context.Context, now time.Time) ([]model.ScheduledMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, destination, content, scheduled_at, created_at, sent, sent_at, remote_message_id
		FROM scheduled_messages
		WHERE sent = FALSE AND scheduled_at <= $1
		ORDER BY scheduled_at ASC
	`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *PostgresScheduleRepo) Reschedule(ctx context.Context, id int64, newTime time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_messages
		SET scheduled_at = $2
		WHERE id = $1 AND sent = FALSE
	`, id, newTime.UTC())
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PostgresScheduleRepo) DeleteOne(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM scheduled_messages
		WHERE id = $1 AND sent = FALSE
	`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PostgresScheduleRepo) DeleteBatch(ctx context.Context, batchID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM scheduled_messages
		WHERE batch_id = $1 AND sent = FALSE
	`, batchID)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

func (r *PostgresScheduleRepo) MarkSent(ctx context.Context, id int64, remoteMessageID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_messages
		SET sent = TRUE,
		    sent_at = now(),
		    remote_message_id = $2
		WHERE id = $1 AND sent = FALSE
	`, id, remoteMessageID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PostgresScheduleRepo) ListSent(ctx context.Context, limit, offset int) ([]model.ScheduledMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, destination, content, scheduled_at, created_at, sent, sent_at, remote_message_id
		FROM scheduled_messages
		WHERE sent = TRUE
		ORDER BY sent_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]model.ScheduledMessage, error) {
	var out []model.ScheduledMessage
	for rows.Next() {
		var m model.ScheduledMessage
		var sentAt sql.NullTime
		var remoteID sql.NullString

		if err := rows.Scan(
			&m.ID,
			&m.BatchID,
			&m.Destination,
			&m.Text,
			&m.ScheduledAt,
			&m.CreatedAt,
			&m.Sent,
			&sentAt,
			&remoteID,
		); err != nil {
			return nil, err
		}

		if sentAt.Valid {
			t := sentAt.Time
			m.SentAt = &t
		}
		if remoteID.Valid {
			s := remoteID.String
			m.RemoteMessageID = &s
		}

		out = append(out, m)
	}
	return out, rows.Err()
}

// requireAffected maps "zero rows touched" onto ErrNotFound. The sent
// guard lives in the WHERE clause, so operating on a sent or missing
// row lands here instead of corrupting state.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
