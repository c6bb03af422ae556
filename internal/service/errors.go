package service

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure so the HTTP layer can pick a status
// code without looking at message text.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindImage
	KindUpstreamRejected
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindImage:
		return "image"
	case KindUpstreamRejected:
		return "upstream_rejected"
	case KindTransport:
		return "transport"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func validationErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
