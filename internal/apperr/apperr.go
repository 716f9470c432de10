// internal/apperr/apperr.go

// Package apperr classifies the failures a chat session can run into.
// Each failure carries a Kind that decides whether it ends the session,
// is reported for the current query only, or is folded back into the
// conversation as a tool result.
package apperr

import (
	"errors"
	"fmt"
)

// Kind names a class of failure.
type Kind string

const (
	// KindConnection means the tool peer could not be started or the handshake failed.
	KindConnection Kind = "connection"
	// KindNotConnected means a peer operation was attempted before connect or after close.
	KindNotConnected Kind = "not_connected"
	// KindCompletionEndpoint covers network, HTTP and auth failures talking to the model.
	KindCompletionEndpoint Kind = "completion_endpoint"
	// KindArgumentParse means the model produced arguments that are not a valid JSON object
	// or do not satisfy the tool's input schema.
	KindArgumentParse Kind = "argument_parse"
	// KindToolExecution covers peer-reported tool failures and peer timeouts.
	KindToolExecution Kind = "tool_execution"
	// KindUnknownTool means the model asked for a tool the catalog does not list.
	KindUnknownTool Kind = "unknown_tool"
)

// Error is a failure tagged with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New builds an *Error from a message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with kind. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error with the same Kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsFatal reports whether err must end the session.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindConnection, KindNotConnected:
		return true
	}
	return false
}
