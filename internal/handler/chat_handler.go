package handler

import (
	"net/http"

	"github.com/pr-poehali-dev/messenger-design-project/internal/services"
	"github.com/pr-poehali-dev/messenger-design-project/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves /chats: GET lists chats or searches contacts, POST creates a chat.
type ChatHandler struct {
	service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) Handle(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		if c.Query("action") == httpdto.ActionSearchContacts {
			h.searchContacts(c)
			return
		}
		h.list(c)
	case http.MethodPost:
		h.post(c)
	default:
		methodNotAllowed(c)
	}
}

func (h *ChatHandler) list(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	withUserID(c, userID)

	summaries, err := h.service.ListChats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewChatListResponse(summaries))
}

func (h *ChatHandler) searchContacts(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	withUserID(c, userID)

	users, err := h.service.SearchContacts(c.Request.Context(), userID, c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewContactSearchResponse(users))
}

func (h *ChatHandler) post(c *gin.Context) {
	var req httpdto.CreateChatRequest
	if err := bindBody(c, &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Action != httpdto.ActionCreateChat {
		methodNotAllowed(c)
		return
	}

	userID, ok := requireID(c, "user_id", req.UserID)
	if !ok {
		return
	}
	withUserID(c, userID)
	contactID, ok := requireID(c, "contact_id", req.ContactID)
	if !ok {
		return
	}

	chatID, err := h.service.CreateChat(c.Request.Context(), userID, contactID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.CreateChatResponse{Success: true, ChatID: chatID})
}
