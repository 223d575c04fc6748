package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SendStatus string

const (
	SendPending  SendStatus = "pending"
	SendAcked    SendStatus = "acked"
	SendRejected SendStatus = "rejected"
)

func (s SendStatus) Valid() bool {
	switch s {
	case SendPending, SendAcked, SendRejected:
		return true
	}
	return false
}

// SendRecord is one transmission attempt of an encoded message.
type SendRecord struct {
	ID        string          `json:"id"`
	Status    SendStatus      `json:"status"`
	Reason    string          `json:"reason,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type SendNotFoundError struct {
	ID string
}

func (e *SendNotFoundError) Error() string { return "send not found: " + e.ID }

// RecordSend stores msg (anything JSON-marshalable) as a pending send.
func (s Store) RecordSend(ctx context.Context, msg any) (SendRecord, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return SendRecord{}, fmt.Errorf("record send: %w", err)
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return SendRecord{}, err
	}
	defer db.Close()

	now := time.Now().UTC()
	rec := SendRecord{
		ID:        uuid.NewString(),
		Status:    SendPending,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO sends(id, status, reason, payload, created_at_unixms, updated_at_unixms) VALUES(?, ?, '', ?, ?, ?)`,
		rec.ID, string(rec.Status), string(payload), now.UnixMilli(), now.UnixMilli(),
	); err != nil {
		return SendRecord{}, fmt.Errorf("record send: %w", err)
	}
	return rec, nil
}

// MarkSend sets the outcome of a send. A send that already left pending keeps
// its first outcome.
func (s Store) MarkSend(ctx context.Context, id string, status SendStatus, reason string) error {
	if !status.Valid() {
		return fmt.Errorf("mark send: invalid status %q", status)
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx,
		`UPDATE sends SET status = ?, reason = ?, updated_at_unixms = ? WHERE id = ? AND status = ?`,
		string(status), strings.TrimSpace(reason), time.Now().UnixMilli(), id, string(SendPending),
	)
	if err != nil {
		return fmt.Errorf("mark send: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var existing string
		err := db.QueryRowContext(ctx, `SELECT status FROM sends WHERE id = ?`, id).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			return &SendNotFoundError{ID: id}
		}
		return err
	}
	return nil
}

// ListSends returns the most recent sends first. limit <= 0 means all.
func (s Store) ListSends(ctx context.Context, limit int) ([]SendRecord, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT id, status, reason, payload, created_at_unixms, updated_at_unixms FROM sends ORDER BY created_at_unixms DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SendRecord{}
	for rows.Next() {
		var (
			rec              SendRecord
			status, payload  string
			created, updated int64
		)
		if err := rows.Scan(&rec.ID, &status, &rec.Reason, &payload, &created, &updated); err != nil {
			return nil, err
		}
		rec.Status = SendStatus(status)
		rec.Payload = json.RawMessage(payload)
		rec.CreatedAt = time.UnixMilli(created).UTC()
		rec.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
