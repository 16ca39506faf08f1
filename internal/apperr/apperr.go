package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"payflow/internal/domain"
)

type Kind string

const (
	Invalid      Kind = "invalid"
	NotFound     Kind = "not_found"
	Unauthorized Kind = "unauthorized"
	Conflict     Kind = "conflict"
	RateLimited  Kind = "rate_limited"
	Internal     Kind = "internal"
)

// Error carries an API error code and a description that is safe to show to merchants.
type Error struct {
	Kind        Kind
	Code        string
	Description string
	Err         error // internal cause, logged only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.Err }

func BadRequest(description string) *Error {
	return &Error{Kind: Invalid, Code: domain.CodeBadRequest, Description: description}
}

// Validation is a 400 with a method-specific code such as INVALID_VPA.
func Validation(code, description string) *Error {
	return &Error{Kind: Invalid, Code: code, Description: description}
}

func NotFoundErr(description string) *Error {
	return &Error{Kind: NotFound, Code: domain.CodeNotFound, Description: description}
}

func UnauthorizedErr(description string) *Error {
	return &Error{Kind: Unauthorized, Code: domain.CodeAuthentication, Description: description}
}

func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Internal, Code: domain.CodeInternal, Description: "Internal server error", Err: err}
}

func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Invalid:
			return http.StatusBadRequest
		case Unauthorized:
			return http.StatusUnauthorized
		case NotFound:
			return http.StatusNotFound
		case Conflict:
			return http.StatusConflict
		case RateLimited:
			return http.StatusTooManyRequests
		}
	}
	return http.StatusInternalServerError
}

// Body renders err in the API error envelope.
func Body(err error) map[string]any {
	ae, ok := As(err)
	if !ok || ae.Kind == Internal {
		ae = Wrap(err)
	}
	return map[string]any{
		"error": map[string]string{
			"code":        ae.Code,
			"description": ae.Description,
		},
	}
}
