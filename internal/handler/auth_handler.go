// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"

	"github.com/pr-poehali-dev/messenger-design-project/internal/services"
	"github.com/pr-poehali-dev/messenger-design-project/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves /auth. POST bodies carry an action of register or login.
type AuthHandler struct {
	service *services.AuthService
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Handle(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		methodNotAllowed(c)
		return
	}

	var req httpdto.AuthRequest
	if err := bindBody(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewFailureResponse("invalid request body"))
		return
	}

	switch req.Action {
	case httpdto.ActionRegister:
		h.register(c, req)
	case httpdto.ActionLogin:
		h.login(c, req)
	default:
		methodNotAllowed(c)
	}
}

func (h *AuthHandler) register(c *gin.Context, req httpdto.AuthRequest) {
	res, err := h.service.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		writeAuthError(c, err)
		return
	}
	withUserID(c, res.User.ID)
	c.JSON(http.StatusOK, httpdto.NewAuthResponse(res.User, res.Token))
}

func (h *AuthHandler) login(c *gin.Context, req httpdto.AuthRequest) {
	res, err := h.service.Login(c.Request.Context(), services.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		writeAuthError(c, err)
		return
	}
	withUserID(c, res.User.ID)
	c.JSON(http.StatusOK, httpdto.NewAuthResponse(res.User, res.Token))
}
