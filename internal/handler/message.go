package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

// MessageHandler serves buyer/seller conversations and the help chatbot.
type MessageHandler struct {
	base
	Messaging *service.Messaging
}

func NewMessageHandler(messaging *service.Messaging, opts Options) *MessageHandler {
	return &MessageHandler{base: newBase(opts), Messaging: messaging}
}

type sendReq struct {
	ReceiverID  uint64  `json:"receiver_id"`
	ProductID   *uint64 `json:"product_id"`
	Message     string  `json:"message"`
	MessageType string  `json:"message_type"`
}

type markReadReq struct {
	SenderID  *uint64 `json:"sender_id"`
	ProductID *uint64 `json:"product_id"`
}

type chatbotReq struct {
	Message string `json:"message"`
}

func (h *MessageHandler) Conversations(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	convs, err := h.Messaging.Conversations(ctx, u.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"conversations": convs})
}

// Thread returns the messages exchanged with :userId, optionally about
// ?productId, and marks the incoming ones read.
func (h *MessageHandler) Thread(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	otherID, err := pathID(c, "userId", "user ID")
	if err != nil {
		return h.fail(c, err)
	}
	productID, err := queryID(c, "productId")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	msgs, other, err := h.Messaging.Thread(ctx, u.ID, otherID, productID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs, "otherUser": other})
}

func (h *MessageHandler) Send(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req sendReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	m, err := h.Messaging.Send(ctx, u.ID, req.ReceiverID, req.ProductID, req.Message, req.MessageType)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Message sent successfully", "newMessage": m})
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req markReadReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.Messaging.MarkRead(ctx, u.ID, req.SenderID, req.ProductID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Messages marked as read", "updatedCount": n})
}

func (h *MessageHandler) UnreadCount(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.Messaging.UnreadCount(ctx, u.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unreadCount": n})
}

// Chatbot answers without authentication.
func (h *MessageHandler) Chatbot(c echo.Context) error {
	var req chatbotReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	reply, err := service.Chatbot(req.Message)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"response":  reply,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
