package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dating-api/internal/models"
)

const messageSelect = `SELECT m.id, m.sender_id, s.username, s.known_as, sp.url,
	m.recipient_id, r.username, r.known_as, rp.url,
	m.content, m.message_sent, m.is_read, m.date_read, m.sender_deleted, m.recipient_deleted
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.recipient_id
	LEFT JOIN photos sp ON sp.user_id = m.sender_id AND sp.is_main = 1
	LEFT JOIN photos rp ON rp.user_id = m.recipient_id AND rp.is_main = 1`

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		m                   models.Message
		senderURL, recipURL sql.NullString
		dateRead            sql.NullTime
	)
	err := row.Scan(
		&m.ID, &m.SenderID, &m.SenderUsername, &m.SenderKnownAs, &senderURL,
		&m.RecipientID, &m.RecipientUsername, &m.RecipientKnownAs, &recipURL,
		&m.Content, &m.MessageSent, &m.IsRead, &dateRead, &m.SenderDeleted, &m.RecipientDeleted,
	)
	if err != nil {
		return nil, err
	}
	m.SenderPhotoURL = senderURL.String
	m.RecipientPhotoURL = recipURL.String
	if dateRead.Valid {
		t := dateRead.Time
		m.DateRead = &t
	}
	return &m, nil
}

func (r *MessageRepository) query(ctx context.Context, q string, args ...any) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// Create stores a new message and fills its ID
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.MessageSent.IsZero() {
		msg.MessageSent = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (sender_id, recipient_id, content, message_sent)
		VALUES (?, ?, ?, ?)
		RETURNING id`,
		msg.SenderID, msg.RecipientID, msg.Content, msg.MessageSent,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, messageSelect+` WHERE m.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

// MarkRead flags a message as read at the given time
func (r *MessageRepository) MarkRead(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = 1, date_read = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return expectOne(res, "message", id)
}

// DeleteForParty hides the message from userID and purges it once both parties deleted it
func (r *MessageRepository) DeleteForParty(ctx context.Context, id, userID int64) (bool, error) {
	var purged bool
	err := withTx(ctx, r.db, func(tx DBTX) error {
		var (
			senderID, recipientID int64
			senderDel, recipDel   bool
		)
		err := tx.QueryRowContext(ctx, `SELECT sender_id, recipient_id, sender_deleted, recipient_deleted FROM messages WHERE id = ?`, id).
			Scan(&senderID, &recipientID, &senderDel, &recipDel)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("message %d: %w", id, models.ErrNotFound)
			}
			return fmt.Errorf("failed to load message: %w", err)
		}
		if userID != senderID && userID != recipientID {
			return fmt.Errorf("user %d is not a party to message %d: %w", userID, id, models.ErrUnauthorized)
		}
		if userID == senderID {
			senderDel = true
		}
		if userID == recipientID {
			recipDel = true
		}

		if senderDel && recipDel {
			if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
				return fmt.Errorf("failed to purge message: %w", err)
			}
			purged = true
			return nil
		}
		if _, err := tx.ExecContext(ctx, `UPDATE messages SET sender_deleted = ?, recipient_deleted = ? WHERE id = ?`,
			senderDel, recipDel, id); err != nil {
			return fmt.Errorf("failed to flag message deleted: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return purged, nil
}

// Thread returns the conversation between userID and otherID, oldest first
func (r *MessageRepository) Thread(ctx context.Context, userID, otherID int64) ([]models.Message, error) {
	return r.query(ctx, messageSelect+`
		WHERE (m.sender_id = ? AND m.recipient_id = ? AND m.sender_deleted = 0)
		   OR (m.sender_id = ? AND m.recipient_id = ? AND m.recipient_deleted = 0)
		ORDER BY m.message_sent, m.id`,
		userID, otherID, otherID, userID)
}

// List returns a page of the user's messages in the container, newest first
func (r *MessageRepository) List(ctx context.Context, userID int64, container models.MessageContainer, page models.PageParams) ([]models.Message, int, error) {
	var cond string
	switch container {
	case models.ContainerInbox:
		cond = `m.recipient_id = ? AND m.recipient_deleted = 0`
	case models.ContainerOutbox:
		cond = `m.sender_id = ? AND m.sender_deleted = 0`
	default:
		cond = `m.recipient_id = ? AND m.recipient_deleted = 0 AND m.is_read = 0`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages m WHERE `+cond, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	messages, err := r.query(ctx, messageSelect+` WHERE `+cond+` ORDER BY m.message_sent DESC, m.id DESC LIMIT ? OFFSET ?`,
		userID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}
