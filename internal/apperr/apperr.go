package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found"
	KindExternal   Kind = "external_error"
	KindRender     Kind = "render_error"
)

// Error is a failure that ends up in front of the user. Message is the
// notification text; Err, when present, is appended as the detail line.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the notification shown to the user.
func (e *Error) UserMessage() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + "\n\nDetail Error: " + e.Err.Error()
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string, err error) *Error {
	return New(KindValidation, message, err)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

func External(message string, err error) *Error {
	return New(KindExternal, message, err)
}

func Render(err error) *Error {
	return New(KindRender, "Terjadi kesalahan saat membuat prompt. Silakan periksa kembali input Anda atau coba lagi.", err)
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// UserMessage returns the notification text for any error; errors that are
// not classified fall back to their own text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.UserMessage()
	}
	return err.Error()
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
