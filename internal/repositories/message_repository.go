package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
)

var (
	ErrSelfMessage  = errors.New("sender and receiver are the same user")
	ErrEmptyMessage = errors.New("message needs a body or an attachment")
)

// MessageRepository defines persistence for direct messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID, receiverID int, body, attachmentURL *string) (models.Message, error)
	GetConversation(ctx context.Context, userID, peerID int) ([]models.Message, error)
	RecentWindow(ctx context.Context, userID, limit int) ([]models.Message, error)
	MarkConversationSeen(ctx context.Context, receiverID, senderID int) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a direct message. The insert is the atomic unit: a
// message is either fully recorded or not recorded at all.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID, receiverID int, body, attachmentURL *string) (models.Message, error) {
	if senderID == receiverID {
		return models.Message{}, ErrSelfMessage
	}
	if (body == nil || *body == "") && (attachmentURL == nil || *attachmentURL == "") {
		return models.Message{}, ErrEmptyMessage
	}

	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, receiver_id, body, attachment_url)
        VALUES ($1, $2, $3, $4)
        RETURNING id, sender_id, receiver_id, body, attachment_url, seen, created_at`,
		senderID, receiverID, body, attachmentURL).
		Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Body, &msg.AttachmentURL, &msg.Seen, &msg.CreatedAt)
	return msg, err
}

// GetConversation returns every message between the pair ordered ascending
// by created_at, ties broken by insertion id.
func (r *MessageRepo) GetConversation(ctx context.Context, userID, peerID int) ([]models.Message, error) {
	query := `SELECT id, sender_id, receiver_id, body, attachment_url, seen, created_at
        FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at ASC, id ASC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userID, peerID)
	return msgs, err
}

// RecentWindow returns the most recent messages where the user is either
// side, newest first. Callers fold this window into a conversation list;
// a peer whose latest message falls outside the window is not visible.
func (r *MessageRepo) RecentWindow(ctx context.Context, userID, limit int) ([]models.Message, error) {
	query := `SELECT id, sender_id, receiver_id, body, attachment_url, seen, created_at
        FROM messages
        WHERE sender_id=$1 OR receiver_id=$1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userID, limit)
	return msgs, err
}

// MarkConversationSeen bulk-flips seen for every unseen message the peer
// sent to the receiver. Messages the receiver sent are never touched.
func (r *MessageRepo) MarkConversationSeen(ctx context.Context, receiverID, senderID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET seen = TRUE
        WHERE receiver_id=$1 AND sender_id=$2 AND seen = FALSE`, receiverID, senderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
