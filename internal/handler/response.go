package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/pr-poehali-dev/messenger-design-project/internal/services"
	"github.com/pr-poehali-dev/messenger-design-project/internal/transport/httpdto"
	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"
	"github.com/pr-poehali-dev/messenger-design-project/pkg/logger"

	"github.com/gin-gonic/gin"
)

// writeError sends {"error": ...}. Server errors are attached to the context so the
// error middleware logs the cause; the client only sees a generic message.
func writeError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, httpdto.NewErrorResponse(services.ClientMessage(err)))
}

// writeAuthError is writeError for /auth, whose error bodies also carry success=false.
func writeAuthError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, httpdto.NewFailureResponse(services.ClientMessage(err)))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(msg))
}

func methodNotAllowed(c *gin.Context) {
	writeError(c, messenger_errors.ErrMethodNotAllowed)
}

// withUserID tags the request context so the access log carries the acting user.
func withUserID(c *gin.Context, id int64) {
	ctx := context.WithValue(c.Request.Context(), logger.UserIdKey, strconv.FormatInt(id, 10))
	c.Request = c.Request.WithContext(ctx)
}

// bindBody decodes the JSON body into dst. An empty body decodes as {}.
func bindBody(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// queryID reads a required positive integer query parameter.
func queryID(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		badRequest(c, name+" is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// requireID checks an id decoded from a JSON body.
func requireID(c *gin.Context, name string, id httpdto.ID) (int64, bool) {
	if id == 0 {
		badRequest(c, name+" is required")
		return 0, false
	}
	if id < 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return int64(id), true
}
