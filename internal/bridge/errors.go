package bridge

import (
	"errors"
	"fmt"
)

// Kind classifies a bridge failure.
type Kind string

const (
	KindUnknownOperation  Kind = "UnknownOperation"
	KindMissingParameter  Kind = "MissingParameter"
	KindInvalidParameter  Kind = "InvalidParameter"
	KindTimeout           Kind = "Timeout"
	KindTransportFailure  Kind = "TransportFailure"
	KindMalformedResponse Kind = "MalformedResponse"
	KindBackendFault      Kind = "BackendFault"
)

// Stage is the dispatcher step at which a call failed.
type Stage string

const (
	StageLookup Stage = "lookup"
	StageBuild  Stage = "build"
	StageSend   Stage = "send"
	StageParse  Stage = "parse"
)

// Sentinels returned (wrapped) by codecs, extractors and senders. The
// dispatcher classifies stage errors by matching them with errors.Is.
var (
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrMissingParameter  = errors.New("missing parameter")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrTimeout           = errors.New("timeout")
	ErrTransportFailure  = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrBackendFault      = errors.New("backend fault")

	// ErrNoResult is not a failure: the backend answered with no data.
	ErrNoResult = errors.New("no result")
)

var kindSentinels = map[Kind]error{
	KindUnknownOperation:  ErrUnknownOperation,
	KindMissingParameter:  ErrMissingParameter,
	KindInvalidParameter:  ErrInvalidParameter,
	KindTimeout:           ErrTimeout,
	KindTransportFailure:  ErrTransportFailure,
	KindMalformedResponse: ErrMalformedResponse,
	KindBackendFault:      ErrBackendFault,
}

// Error is the single error type surfaced by the Dispatcher.
type Error struct {
	Kind        Kind
	Stage       Stage
	OperationID string
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s failed at %s: %v", e.Kind, e.OperationID, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s failed at %s", e.Kind, e.OperationID, e.Stage)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinel so errors.Is(err, ErrTimeout) holds for any
// timeout, whatever the underlying cause.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Retryable reports whether repeating the identical call may succeed.
// Only transport-level conditions qualify.
func (e *Error) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindTransportFailure
}

// KindOf classifies err by the sentinel it wraps. It returns fallback when
// err carries none.
func KindOf(err error, fallback Kind) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	// Checked in a fixed order: a fault cause may itself wrap a parse error.
	for _, k := range []Kind{
		KindUnknownOperation,
		KindMissingParameter,
		KindInvalidParameter,
		KindTimeout,
		KindTransportFailure,
		KindBackendFault,
		KindMalformedResponse,
	} {
		if errors.Is(err, kindSentinels[k]) {
			return k
		}
	}
	return fallback
}

// AsError extracts the bridge error from err.
func AsError(err error) (*Error, bool) {
	var be *Error
	ok := errors.As(err, &be)
	return be, ok
}

func newError(kind Kind, stage Stage, operationID string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, OperationID: operationID, Err: err}
}
