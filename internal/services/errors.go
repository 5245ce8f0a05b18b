package services

import (
	"errors"
	"net/http"

	messenger_errors "github.com/pr-poehali-dev/messenger-design-project/pkg/errors"
)

const (
	MsgDuplicateAccount = "Пользователь с такими данными уже существует"
	MsgInvalidLogin     = "Неверные данные для входа"
	MsgInternal         = "Internal server error"
)

// HTTPStatus maps a service error onto the response status. Duplicates are 400 for
// compatibility with existing clients.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, messenger_errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, messenger_errors.ErrAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, messenger_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, messenger_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, messenger_errors.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage is the text sent to the client for err. Server errors never leak their cause.
func ClientMessage(err error) string {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		return MsgInternal
	}
	if msg, ok := messenger_errors.Message(err); ok {
		return msg
	}
	switch status {
	case http.StatusNotFound:
		return "Not found"
	case http.StatusMethodNotAllowed:
		return "Method not allowed"
	default:
		return err.Error()
	}
}
