// Package apperr is the application-side error taxonomy. Every failure the
// session manager, SOS flow and views report is an *Error carrying a Kind,
// the operation that failed and the underlying cause.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindAuth                Kind = "auth"
	KindProfileFetch        Kind = "profile_fetch"
	KindProfileInsert       Kind = "profile_insert"
	KindNotAuthenticated    Kind = "not_authenticated"
	KindSignOut             Kind = "sign_out"
	KindLocationUnavailable Kind = "location_unavailable"
	KindAlertCreate         Kind = "alert_create"
	KindAlertUpdate         Kind = "alert_update"
	KindInvalidState        Kind = "invalid_state"
	KindValidation          Kind = "validation"
	KindForbidden           Kind = "forbidden"
	KindBackend             Kind = "backend"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrAuth                = &Error{Kind: KindAuth}
	ErrProfileFetch        = &Error{Kind: KindProfileFetch}
	ErrProfileInsert       = &Error{Kind: KindProfileInsert}
	ErrNotAuthenticated    = &Error{Kind: KindNotAuthenticated}
	ErrSignOut             = &Error{Kind: KindSignOut}
	ErrLocationUnavailable = &Error{Kind: KindLocationUnavailable}
	ErrAlertCreate         = &Error{Kind: KindAlertCreate}
	ErrAlertUpdate         = &Error{Kind: KindAlertUpdate}
	ErrInvalidState        = &Error{Kind: KindInvalidState}
	ErrValidation          = &Error{Kind: KindValidation}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrBackend             = &Error{Kind: KindBackend}
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	text := string(e.Kind)
	if e.Op != "" {
		text = e.Op + ": " + text
	}
	if e.Msg != "" {
		text += ": " + e.Msg
	}
	if e.Err != nil {
		text += ": " + e.Err.Error()
	}
	return text
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrAuth) works
// regardless of Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Auth(op string, err error) error          { return New(KindAuth, op, err) }
func ProfileFetch(op string, err error) error  { return New(KindProfileFetch, op, err) }
func ProfileInsert(op string, err error) error { return New(KindProfileInsert, op, err) }
func SignOut(op string, err error) error       { return New(KindSignOut, op, err) }
func AlertCreate(op string, err error) error   { return New(KindAlertCreate, op, err) }
func AlertUpdate(op string, err error) error   { return New(KindAlertUpdate, op, err) }
func Backend(op string, err error) error       { return New(KindBackend, op, err) }

func LocationUnavailable(op string, err error) error {
	return New(KindLocationUnavailable, op, err)
}

func NotAuthenticated(op string) error {
	return Newf(KindNotAuthenticated, op, "no current user")
}

func Validation(op, format string, args ...interface{}) error {
	return Newf(KindValidation, op, format, args...)
}

func Forbidden(op, format string, args ...interface{}) error {
	return Newf(KindForbidden, op, format, args...)
}

func InvalidState(op string, from, want string) error {
	return Newf(KindInvalidState, op, "state is %s, want %s", from, want)
}
