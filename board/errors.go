package board

import (
	"errors"
	"net/http"

	"article-board/orm"
)

// Static errors to avoid err113 violations
var (
	ErrMalformedStream = errors.New("malformed multipart stream")
	ErrMediaRequired   = errors.New("media file is required")
	ErrCommentRequired = errors.New("comment text is required")
)

// RequestError represents public-facing errors from the board. Message is
// safe to show the client, Inner is not.
type RequestError struct {
	Status  int
	Message string
	Inner   error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Inner
}

func errMalformed(err error) error {
	return &RequestError{
		Status:  http.StatusBadRequest,
		Message: "Malformed upload",
		Inner:   err,
	}
}

// errValidation surfaces an actionable message to the submitter.
func errValidation(message string, err error) error {
	return &RequestError{
		Status:  http.StatusBadRequest,
		Message: message,
		Inner:   err,
	}
}

func errStorage(err error) error {
	return &RequestError{
		Status:  http.StatusInternalServerError,
		Message: "Failed to store media",
		Inner:   err,
	}
}

// wrapPersistenceError converts persistence errors to user-facing ones
// without leaking the cause
func wrapPersistenceError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var notFoundErr *orm.NotFoundError
	if errors.As(err, &notFoundErr) {
		return &RequestError{
			Status:  http.StatusNotFound,
			Message: "Article not found",
			Inner:   err,
		}
	}

	var badInputErr *orm.BadInputError
	if errors.As(err, &badInputErr) {
		return &RequestError{
			Status:  http.StatusBadRequest,
			Message: "Invalid submission",
			Inner:   err,
		}
	}

	return &RequestError{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error during " + operation,
		Inner:   err,
	}
}
