package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyCorpus  = errors.New("no codebase indexed")
	ErrAuth         = errors.New("authentication rejected")
	ErrBackend      = errors.New("backend failure")
	ErrTimeout      = errors.New("backend timed out")
	// ErrClearFailed is returned by an index rebuild whose clear step failed;
	// nothing was added in that case.
	ErrClearFailed = errors.New("clearing corpus failed")
)

const (
	KindInvalidInput = "invalid_input"
	KindEmptyCorpus  = "empty_corpus"
	KindAuth         = "auth"
	KindTimeout      = "timeout"
	KindBackend      = "backend"
)

// ErrorKind maps err onto one of the Kind* strings. Unknown errors are
// reported as backend failures.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrEmptyCorpus):
		return KindEmptyCorpus
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindBackend
	}
}

// Error carries a message fit for end users alongside its sentinel kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

// Invalidf builds an ErrInvalidInput whose message is shown verbatim.
func Invalidf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Msg: fmt.Sprintf(format, args...)}
}
