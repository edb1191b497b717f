package model

import "time"

// Message mirrors the `messages` table.  Rows are append-only; IsRead only
// ever flips from false to true.
type Message struct {
	ID          uint64    `db:"id" json:"id"`
	SenderID    uint64    `db:"sender_id" json:"sender_id"`
	ReceiverID  uint64    `db:"receiver_id" json:"receiver_id"`
	ProductID   *uint64   `db:"product_id" json:"product_id"`
	Message     string    `db:"message" json:"message"`
	MessageType string    `db:"message_type" json:"message_type"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MessageDetail adds the referenced product's title and image.
type MessageDetail struct {
	Message
	ProductTitle *string `db:"product_title" json:"product_title"`
	ProductImage *string `db:"product_image" json:"product_image"`
}

// Conversation is one (counterparty, product) thread seen from a user.
type Conversation struct {
	OtherUserID     uint64  `db:"other_user_id" json:"other_user_id"`
	OtherUsername   string  `db:"other_username" json:"other_username"`
	OtherEmail      string  `db:"other_email" json:"other_email"`
	ProductID       *uint64 `db:"product_id" json:"product_id"`
	ProductTitle    *string `db:"product_title" json:"product_title"`
	ProductImage    *string `db:"product_image" json:"product_image"`
	LastMessageTime string  `db:"last_message_time" json:"last_message_time"`
	UnreadCount     int64   `db:"unread_count" json:"unread_count"`
}
