package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ecofinds-marketplace/internal/model"
)

// MessageRepo is an append-only store of direct messages with read flags.
type MessageRepo struct{ DB *sqlx.DB }

func NewMessageRepo(db *sqlx.DB) *MessageRepo { return &MessageRepo{DB: db} }

const messageDetailSelect = `SELECT m.id, m.sender_id, m.receiver_id, m.product_id, m.message,
		m.message_type, m.is_read, m.created_at,
		p.title AS product_title, p.image_url AS product_image
	FROM messages m
	LEFT JOIN products p ON p.id = m.product_id`

// NewMessage holds the columns of a message being sent.
type NewMessage struct {
	SenderID    uint64
	ReceiverID  uint64
	ProductID   *uint64
	Message     string
	MessageType string
}

// Create appends a message and returns its ID.
func (r *MessageRepo) Create(ctx context.Context, m NewMessage) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO messages (sender_id, receiver_id, product_id, message, message_type) VALUES (?, ?, ?, ?, ?)",
		m.SenderID, m.ReceiverID, m.ProductID, m.Message, m.MessageType)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetDetail returns one message with its product fields.
func (r *MessageRepo) GetDetail(ctx context.Context, id uint64) (model.MessageDetail, error) {
	var d model.MessageDetail
	err := r.DB.GetContext(ctx, &d, messageDetailSelect+" WHERE m.id = ?", id)
	return d, notFound(err)
}

// Conversations groups the user's messages by (counterparty, product),
// most recent thread first.
func (r *MessageRepo) Conversations(ctx context.Context, userID uint64) ([]model.Conversation, error) {
	out := []model.Conversation{}
	err := r.DB.SelectContext(ctx, &out, `
		SELECT t.other_user_id, u.username AS other_username, u.email AS other_email,
		       t.product_id, p.title AS product_title, p.image_url AS product_image,
		       t.last_message_time, t.unread_count
		FROM (
			SELECT CASE WHEN m.sender_id = ? THEN m.receiver_id ELSE m.sender_id END AS other_user_id,
			       m.product_id AS product_id,
			       MAX(m.created_at) AS last_message_time,
			       SUM(CASE WHEN m.receiver_id = ? AND m.is_read = 0 THEN 1 ELSE 0 END) AS unread_count
			FROM messages m
			WHERE m.sender_id = ? OR m.receiver_id = ?
			GROUP BY other_user_id, m.product_id
		) t
		JOIN users u         ON u.id = t.other_user_id
		LEFT JOIN products p ON p.id = t.product_id
		ORDER BY t.last_message_time DESC`,
		userID, userID, userID, userID)
	return out, err
}

// Thread returns the messages exchanged between userID and otherID, oldest
// first.  A non-nil productID narrows the thread to that product.
func (r *MessageRepo) Thread(ctx context.Context, userID, otherID uint64, productID *uint64) ([]model.MessageDetail, error) {
	q := messageDetailSelect + `
		WHERE ((m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?))`
	args := []any{userID, otherID, otherID, userID}
	if productID != nil {
		q += " AND m.product_id = ?"
		args = append(args, *productID)
	}
	q += " ORDER BY m.created_at ASC, m.id ASC"

	out := []model.MessageDetail{}
	err := r.DB.SelectContext(ctx, &out, q, args...)
	return out, err
}

// MarkRead flips unread messages addressed to receiverID to read and
// returns how many changed.  senderID and productID narrow the update when
// non-nil.  Read messages are never flipped back.
func (r *MessageRepo) MarkRead(ctx context.Context, receiverID uint64, senderID, productID *uint64) (int64, error) {
	where := []string{"receiver_id = ?", "is_read = 0"}
	args := []any{receiverID}
	if senderID != nil {
		where = append(where, "sender_id = ?")
		args = append(args, *senderID)
	}
	if productID != nil {
		where = append(where, "product_id = ?")
		args = append(args, *productID)
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE messages SET is_read = 1 WHERE "+strings.Join(where, " AND "), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCount returns the number of unread messages addressed to userID.
func (r *MessageRepo) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND is_read = 0", userID)
	return n, err
}
