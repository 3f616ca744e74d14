package rest

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/tabrest/tabrest/pkg/httputil"
)

// Kind classifies a request-time failure. Every kind maps to exactly one
// HTTP status code and all kinds render as the same JSON shape.
type Kind string

const (
	KindBadRequest         Kind = "bad_request"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindNotAcceptable      Kind = "not_acceptable"
	KindConflict           Kind = "conflict"
	KindServerError        Kind = "server_error"
	KindNotImplemented     Kind = "not_implemented"
	KindServiceUnavailable Kind = "service_unavailable"
)

func (k Kind) StatusCode() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindNotAcceptable:
		return http.StatusNotAcceptable
	case KindConflict:
		return http.StatusConflict
	case KindNotImplemented:
		return http.StatusNotImplemented
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the request-time error surfaced to clients.
type APIError struct {
	Kind    Kind
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func BadRequest(format string, args ...any) *APIError {
	return &APIError{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *APIError {
	return &APIError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *APIError {
	return &APIError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NotAcceptable(format string, args ...any) *APIError {
	return &APIError{Kind: KindNotAcceptable, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *APIError {
	return &APIError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func ServerError(format string, args ...any) *APIError {
	return &APIError{Kind: KindServerError, Message: fmt.Sprintf(format, args...)}
}

func NotImplemented(format string, args ...any) *APIError {
	return &APIError{Kind: KindNotImplemented, Message: fmt.Sprintf(format, args...)}
}

func ServiceUnavailable(format string, args ...any) *APIError {
	return &APIError{Kind: KindServiceUnavailable, Message: fmt.Sprintf(format, args...)}
}

// errorBody is the one JSON shape every failure kind renders as.
type errorBody struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// translateDBError maps database failures onto the error taxonomy.
func translateDBError(err error) *APIError {
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound("no such resource")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		// class 23: integrity constraint violation
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23":
			return Conflict("%s", pgErr.Message)
		// class 22: data exception (bad literal for column type etc)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "22":
			return BadRequest("%s", pgErr.Message)
		// class 08: connection exception
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
			return ServiceUnavailable("database unavailable")
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ServiceUnavailable("database unavailable")
	}

	return ServerError("internal error")
}

// writeError renders any error as the structured JSON error body. Errors that
// are not APIErrors are treated as server errors and logged with their cause.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = ServerError("internal error")
	}
	if apiErr.Kind == KindServerError && logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	httputil.JSON(w, apiErr.Kind.StatusCode(), errorBody{
		Code:    apiErr.Kind.StatusCode(),
		Kind:    apiErr.Kind,
		Message: apiErr.Message,
	})
}
