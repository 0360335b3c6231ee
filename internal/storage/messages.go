package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/asmitswain/portfolio/internal/contact"
)

// Message is a stored contact form submission.
type Message struct {
	ID        string    `json:"id"`
	VisitorID string    `json:"visitor_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"message"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageCounts struct {
	Total  int64 `json:"total"`
	Failed int64 `json:"failed"`
}

// Messages is the contact inbox. It satisfies contact.Recorder.
type Messages struct {
	db *sql.DB
}

func NewMessages(db *sql.DB) *Messages {
	return &Messages{db: db}
}

func (m *Messages) Record(ctx context.Context, s contact.Submission) error {
	at := s.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	var visitor, errText sql.NullString
	if s.VisitorID != "" {
		visitor = sql.NullString{String: s.VisitorID, Valid: true}
	}
	if s.Err != "" {
		errText = sql.NullString{String: s.Err, Valid: true}
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, visitor_id, name, email, subject, message, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), visitor, s.Name, s.Email, s.Subject, s.Message,
		s.Status.String(), errText, at.UTC().Unix(),
	)
	return errors.Wrap(err, "record contact message")
}

// List returns the latest messages, newest first.
func (m *Messages) List(ctx context.Context, limit int) ([]Message, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, visitor_id, name, email, subject, message, status, error, created_at
		FROM contact_messages
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list contact messages")
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			msg            Message
			visitor, errTx sql.NullString
			at             int64
		)
		if err := rows.Scan(&msg.ID, &visitor, &msg.Name, &msg.Email, &msg.Subject, &msg.Body, &msg.Status, &errTx, &at); err != nil {
			return nil, errors.Wrap(err, "scan contact message")
		}
		msg.VisitorID = visitor.String
		msg.Error = errTx.String
		msg.CreatedAt = time.Unix(at, 0).UTC()
		out = append(out, msg)
	}
	return out, errors.Wrap(rows.Err(), "iterate contact messages")
}

// Get fetches one message by id.
func (m *Messages) Get(ctx context.Context, id string) (Message, error) {
	var (
		msg            Message
		visitor, errTx sql.NullString
		at             int64
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, visitor_id, name, email, subject, message, status, error, created_at
		FROM contact_messages WHERE id = ?`, id,
	).Scan(&msg.ID, &visitor, &msg.Name, &msg.Email, &msg.Subject, &msg.Body, &msg.Status, &errTx, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, errors.Wrap(err, "get contact message")
	}
	msg.VisitorID = visitor.String
	msg.Error = errTx.String
	msg.CreatedAt = time.Unix(at, 0).UTC()
	return msg, nil
}

// Delete removes a message.
func (m *Messages) Delete(ctx context.Context, id string) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete contact message")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete contact message rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Messages) Counts(ctx context.Context) (MessageCounts, error) {
	var c MessageCounts
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM contact_messages`, contact.Failed.String(),
	).Scan(&c.Total, &c.Failed)
	return c, errors.Wrap(err, "count contact messages")
}
