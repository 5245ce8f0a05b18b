package httpdto

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ErrorResponse is the plain error envelope: {"error": "..."}.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

// FailureResponse is the error envelope of the auth endpoint, which also carries success=false.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func NewFailureResponse(msg string) FailureResponse {
	return FailureResponse{Success: false, Error: msg}
}

// ID is a numeric identifier accepted either as a JSON number or as a numeric string.
// Zero means absent.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", data)
	}
	*id = ID(v)
	return nil
}

// FormatTime renders timestamps as RFC 3339 in UTC, keeping sub-second precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullableTime(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	s := FormatTime(nt.Time)
	return &s
}
