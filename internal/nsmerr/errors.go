// Package nsmerr is the single error taxonomy used across the NSM protocol
// engine: codec, transport, protocol and async-op failures are all
// represented as a comparable Code wrapped by one structured Error type, so
// call sites use errors.Is/errors.As uniformly instead of per-layer error
// hierarchies.
package nsmerr

import (
	"errors"
	"fmt"
)

// Layer identifies which component of the engine raised the error.
type Layer string

const (
	LayerCodec     Layer = "codec"
	LayerTransport Layer = "transport"
	LayerProtocol  Layer = "protocol"
	LayerDevice    Layer = "device"
	LayerAsyncOp   Layer = "asyncop"
)

// Code is a comparable error category, grouped by the layer that produces it.
type Code string

const (
	// Codec-level (spec.md §7 "Codec-level").
	CodeNull        Code = "NULL"         // nil buffer/pointer passed to a codec function
	CodeLength      Code = "LENGTH"       // PDU shorter than the minimum for its shape
	CodeData        Code = "DATA"         // declared data-size too small, or a malformed aggregate sample
	CodeCommandFail Code = "COMMAND_FAIL" // CC was non-success; reason code is attached separately

	// Transport-level.
	CodeTimeout     Code = "TIMEOUT"      // retries exhausted without a response
	CodeUnreachable Code = "UNREACHABLE"  // device is offline; request failed without being sent
	CodeWriteFail   Code = "WRITE_FAILURE" // socket write failed

	// Async-op level (spec.md §4.8 status taxonomy, minus the in-progress
	// state which is not itself an error).
	CodeWriteFailure        Code = "WRITE_FAILURE_ASYNC"
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeUnavailable         Code = "UNAVAILABLE"
	CodeUnsupportedRequest  Code = "UNSUPPORTED_REQUEST"
	CodeInternalFailure     Code = "INTERNAL_FAILURE"
)

// Error is the structured error type used throughout the engine.
type Error struct {
	Op    string // operation that failed, e.g. "SendRecvNsmMsg", "decodePortTelemetry"
	Layer Layer
	Code  Code
	Inner error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("nsm: %s[%s]: %s: %v", e.Layer, e.Code, e.Op, e.Inner)
	}
	return fmt.Sprintf("nsm: %s[%s]: %s", e.Layer, e.Code, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparisons keyed purely by Code, matching the
// sentinel-style comparisons call sites expect (errors.Is(err, nsmerr.Timeout)).
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	if te.Code == "" {
		return false
	}
	return e.Code == te.Code
}

// New builds a new Error for the given layer/code/op.
func New(op string, layer Layer, code Code) *Error {
	return &Error{Op: op, Layer: layer, Code: code}
}

// Wrap builds a new Error carrying an inner cause.
func Wrap(op string, layer Layer, code Code, inner error) *Error {
	return &Error{Op: op, Layer: layer, Code: code, Inner: inner}
}

// Sentinels for errors.Is comparisons; only Code is compared (see Is above).
var (
	Null               = &Error{Code: CodeNull}
	Length             = &Error{Code: CodeLength}
	Data               = &Error{Code: CodeData}
	CommandFail        = &Error{Code: CodeCommandFail}
	Timeout            = &Error{Code: CodeTimeout}
	Unreachable        = &Error{Code: CodeUnreachable}
	WriteFail          = &Error{Code: CodeWriteFail}
	InvalidArgument    = &Error{Code: CodeInvalidArgument}
	Unavailable        = &Error{Code: CodeUnavailable}
	UnsupportedRequest = &Error{Code: CodeUnsupportedRequest}
	InternalFailure    = &Error{Code: CodeInternalFailure}
)

// Is reports whether err's Code matches code, regardless of op/layer/inner.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the Code from err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
