package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates the backend rejected the supplied credentials.
// Callers surface it as a generic message without leaking backend detail.
var ErrUnauthorized = errors.New("api: invalid credentials")

// StatusError describes a non-2xx backend response that is not an
// authentication rejection.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if code := strings.TrimSpace(e.Code); code != "" {
		return fmt.Sprintf("api: backend error (%s): %s", code, msg)
	}
	return fmt.Sprintf("api: backend error (%d): %s", e.StatusCode, msg)
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	statusErr := &StatusError{StatusCode: resp.StatusCode}

	type errorPayload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	var payload errorPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err == nil {
			statusErr.Code = payload.Code
			if payload.Message != "" {
				statusErr.Message = payload.Message
			} else {
				statusErr.Message = payload.Detail
			}
		}
		if statusErr.Message == "" {
			statusErr.Message = strings.TrimSpace(string(body))
		}
	}
	return statusErr
}
