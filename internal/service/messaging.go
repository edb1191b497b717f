package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ecofinds-marketplace/internal/model"
	"github.com/iliyamo/ecofinds-marketplace/internal/repository"
)

// Messaging is a plain direct-message log with read flags.
type Messaging struct {
	Messages *repository.MessageRepo
	Users    *repository.UserRepo
	Products *repository.ProductRepo
	Log      logrus.FieldLogger
}

// Send appends a message from senderID to receiverID, optionally about a
// product.
func (s *Messaging) Send(ctx context.Context, senderID, receiverID uint64, productID *uint64, text, messageType string) (model.MessageDetail, error) {
	if receiverID == 0 || text == "" {
		return model.MessageDetail{}, invalidArg("Receiver ID and message are required")
	}
	if strings.TrimSpace(text) == "" {
		return model.MessageDetail{}, invalidArg("Message cannot be empty")
	}
	if messageType == "" {
		messageType = "text"
	}

	ok, err := s.Users.Exists(ctx, receiverID)
	if err != nil {
		return model.MessageDetail{}, internal("Failed to send message", err)
	}
	if !ok {
		return model.MessageDetail{}, notFound("Receiver not found")
	}
	if productID != nil && *productID == 0 {
		productID = nil
	}
	if productID != nil {
		ok, err := s.Products.Exists(ctx, *productID)
		if err != nil {
			return model.MessageDetail{}, internal("Failed to send message", err)
		}
		if !ok {
			return model.MessageDetail{}, notFound("Product not found")
		}
	}

	id, err := s.Messages.Create(ctx, repository.NewMessage{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		ProductID:   productID,
		Message:     text,
		MessageType: messageType,
	})
	if err != nil {
		return model.MessageDetail{}, internal("Failed to send message", err)
	}
	m, err := s.Messages.GetDetail(ctx, id)
	if err != nil {
		return model.MessageDetail{}, internal("Failed to load message", err)
	}
	return m, nil
}

// Conversations lists the caller's threads, most recent first.
func (s *Messaging) Conversations(ctx context.Context, callerID uint64) ([]model.Conversation, error) {
	out, err := s.Messages.Conversations(ctx, callerID)
	if err != nil {
		return nil, internal("Failed to load conversations", err)
	}
	return out, nil
}

// Thread returns the messages between the caller and otherID, oldest first,
// and marks the ones addressed to the caller as read.
func (s *Messaging) Thread(ctx context.Context, callerID, otherID uint64, productID *uint64) ([]model.MessageDetail, model.UserSummary, error) {
	other, err := s.Users.GetSummary(ctx, otherID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.UserSummary{}, notFound("User not found")
		}
		return nil, model.UserSummary{}, internal("Failed to load messages", err)
	}
	msgs, err := s.Messages.Thread(ctx, callerID, otherID, productID)
	if err != nil {
		return nil, model.UserSummary{}, internal("Failed to load messages", err)
	}
	if _, err := s.Messages.MarkRead(ctx, callerID, &otherID, productID); err != nil {
		s.Log.WithError(err).WithField("user_id", callerID).Warn("mark thread read failed")
	}
	return msgs, other, nil
}

// MarkRead flips the caller's unread messages to read, optionally only
// those from senderID and/or about productID.
func (s *Messaging) MarkRead(ctx context.Context, callerID uint64, senderID, productID *uint64) (int64, error) {
	n, err := s.Messages.MarkRead(ctx, callerID, senderID, productID)
	if err != nil {
		return 0, internal("Failed to mark messages as read", err)
	}
	return n, nil
}

// UnreadCount returns the caller's unread message count.
func (s *Messaging) UnreadCount(ctx context.Context, callerID uint64) (int64, error) {
	n, err := s.Messages.UnreadCount(ctx, callerID)
	if err != nil {
		return 0, internal("Failed to count messages", err)
	}
	return n, nil
}
