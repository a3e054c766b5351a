package postgres

import (
	"context"
	"fmt"
	"time"

	"dating-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageSelect = `SELECT m.id, m.sender_id, s.username, s.known_as, COALESCE(sp.url, ''),
	m.recipient_id, r.username, r.known_as, COALESCE(rp.url, ''),
	m.content, m.message_sent, m.is_read, m.date_read, m.sender_deleted, m.recipient_deleted
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.recipient_id
	LEFT JOIN photos sp ON sp.user_id = m.sender_id AND sp.is_main
	LEFT JOIN photos rp ON rp.user_id = m.recipient_id AND rp.is_main`

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row pgx.Row) (models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID, &m.SenderID, &m.SenderUsername, &m.SenderKnownAs, &m.SenderPhotoURL,
		&m.RecipientID, &m.RecipientUsername, &m.RecipientKnownAs, &m.RecipientPhotoURL,
		&m.Content, &m.MessageSent, &m.IsRead, &m.DateRead, &m.SenderDeleted, &m.RecipientDeleted,
	)
	return m, err
}

func (r *MessageRepository) query(ctx context.Context, q string, args ...any) ([]models.Message, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Message, error) {
		return scanMessage(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// Create stores a new message and fills its ID
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.MessageSent.IsZero() {
		msg.MessageSent = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (sender_id, recipient_id, content, message_sent)
		VALUES ($1, $2, $3, $4)
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
	m, err := scanMessage(r.db.QueryRow(ctx, messageSelect+` WHERE m.id = $1`, id))
	if err != nil {
		if nf := notFound(err, "message %d", id); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &m, nil
}

// MarkRead flags a message as read at the given time
func (r *MessageRepository) MarkRead(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE messages SET is_read = TRUE, date_read = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return expectOne(tag, "message", id)
}

// DeleteForParty hides the message from userID and purges it once both parties deleted it
func (r *MessageRepository) DeleteForParty(ctx context.Context, id, userID int64) (bool, error) {
	var purged bool
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var (
			senderID, recipientID int64
			senderDel, recipDel   bool
		)
		err := tx.QueryRow(ctx, `SELECT sender_id, recipient_id, sender_deleted, recipient_deleted
			FROM messages WHERE id = $1 FOR UPDATE`, id).
			Scan(&senderID, &recipientID, &senderDel, &recipDel)
		if err != nil {
			if nf := notFound(err, "message %d", id); nf != nil {
				return nf
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
			if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id); err != nil {
				return fmt.Errorf("failed to purge message: %w", err)
			}
			purged = true
			return nil
		}
		if _, err := tx.Exec(ctx, `UPDATE messages SET sender_deleted = $1, recipient_deleted = $2 WHERE id = $3`,
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
		WHERE (m.sender_id = $1 AND m.recipient_id = $2 AND NOT m.sender_deleted)
		   OR (m.sender_id = $2 AND m.recipient_id = $1 AND NOT m.recipient_deleted)
		ORDER BY m.message_sent, m.id`,
		userID, otherID)
}

// List returns a page of the user's messages in the container, newest first
func (r *MessageRepository) List(ctx context.Context, userID int64, container models.MessageContainer, page models.PageParams) ([]models.Message, int, error) {
	var cond string
	switch container {
	case models.ContainerInbox:
		cond = `m.recipient_id = $1 AND NOT m.recipient_deleted`
	case models.ContainerOutbox:
		cond = `m.sender_id = $1 AND NOT m.sender_deleted`
	default:
		cond = `m.recipient_id = $1 AND NOT m.recipient_deleted AND NOT m.is_read`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages m WHERE `+cond, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	messages, err := r.query(ctx, messageSelect+` WHERE `+cond+` ORDER BY m.message_sent DESC, m.id DESC LIMIT $2 OFFSET $3`,
		userID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}
