package handler

import (
	"net/http"

	"github.com/pr-poehali-dev/messenger-design-project/internal/services"
	"github.com/pr-poehali-dev/messenger-design-project/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// MessageHandler serves /messages: GET lists a chat's history, POST sends a message.
type MessageHandler struct {
	service *services.MessageService
}

func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Handle(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		h.list(c)
	case http.MethodPost:
		h.send(c)
	default:
		methodNotAllowed(c)
	}
}

func (h *MessageHandler) list(c *gin.Context) {
	chatID, ok := queryID(c, "chat_id")
	if !ok {
		return
	}

	messages, err := h.service.ListMessages(c.Request.Context(), chatID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewMessageListResponse(messages))
}

func (h *MessageHandler) send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := bindBody(c, &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	chatID, ok := requireID(c, "chat_id", req.ChatID)
	if !ok {
		return
	}
	senderID, ok := requireID(c, "sender_id", req.SenderID)
	if !ok {
		return
	}
	withUserID(c, senderID)

	msg, err := h.service.SendMessage(c.Request.Context(), services.SendMessageInput{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  req.Content,
		Type:     req.Type,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSendMessageResponse(msg))
}
