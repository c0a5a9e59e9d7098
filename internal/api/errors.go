package api

import (
	"encoding/json"
	"errors"
	"strings"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindAuth is a 401/403 answer. The session is already torn down when
	// the caller sees it.
	KindAuth Kind = iota + 1
	// KindValidation is any other 4xx answer.
	KindValidation
	// KindServer is a 5xx answer.
	KindServer
	// KindNetwork covers transport failures and unreadable responses.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ErrUnauthorized matches every error of KindAuth via errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// Error is returned by every Client operation. Message is ready to show to
// the user: the backend's error field when present, otherwise the
// operation's fallback text.
type Error struct {
	Op      string
	Status  int
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Kind == KindAuth
}

// KindOf returns the Kind of err, or 0 when err did not come from the client.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// errorMessage extracts the "error" field of a JSON error body.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return msg
	}
	return fallback
}
