// Package apperr is the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
	KindUpstream     Kind = "upstream_failure"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind and code so that copies produced by
// Wrap or Validation still satisfy errors.Is against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	cp := *sentinel
	cp.Err = cause
	return &cp
}

func Validation(msg string, details any) *Error {
	return &Error{Kind: KindValidation, Code: "validation_error", Message: msg, Details: details}
}

func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...), nil)
}

// KindOf reports the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf reports the machine code of the first *Error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal_error"
}

// MessageOf is the text safe to show a client: the *Error's own message,
// never its cause, and a fixed string for anything internal.
func MessageOf(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal error"
	}
	return e.Message
}

var (
	ErrBookNotFound       = New(KindNotFound, "book_not_found", "book not found")
	ErrUserNotFound       = New(KindNotFound, "user_not_found", "user not found")
	ErrAssignmentNotFound = New(KindNotFound, "assignment_not_found", "assignment not found")
	ErrReviewNotFound     = New(KindNotFound, "review_not_found", "review not found")

	ErrOutOfStock      = New(KindConflict, "out_of_stock", "book is out of stock")
	ErrAlreadyReturned = New(KindConflict, "already_returned", "book already returned")
	ErrMissingContact  = New(KindConflict, "missing_contact", "borrower has no email on file")
	ErrDuplicateReview = New(KindConflict, "duplicate_review", "you have already reviewed this book")
	ErrEmailTaken      = New(KindConflict, "email_taken", "email already registered")
	ErrPhoneTaken      = New(KindConflict, "phone_taken", "phone number already registered")

	ErrBorrowerInactive = New(KindConflict, "borrower_inactive", "borrower account is deactivated")

	ErrInvalidCredentials = New(KindUnauthorized, "invalid_credentials", "invalid credentials")
	ErrInvalidToken       = New(KindUnauthorized, "invalid_token", "invalid or expired token")
	ErrAccountPending     = New(KindForbidden, "account_pending", "account not approved by admin")
	ErrAccountInactive    = New(KindForbidden, "account_inactive", "account is deactivated")
	ErrForbidden          = New(KindForbidden, "forbidden", "not authorized")
	ErrAdminSignupClosed  = New(KindForbidden, "admin_signup_closed", "admin signup is disabled")

	ErrNotificationFailed = New(KindUpstream, "notification_failed", "reminder could not be delivered")
)
