package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

/* =========================
   Error taxonomy
   - fixed JSON-RPC 2.0 codes with canonical messages
   - *RPCError doubles as a Go error so the pipeline can raise and
     surface it unchanged
   ========================= */

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// CodeApplicationError covers failures raised by handlers themselves.
	CodeApplicationError = -32000
)

var errorMessages = map[int]string{
	CodeParseError:       "Parse Error",
	CodeInvalidRequest:   "Invalid Request",
	CodeMethodNotFound:   "Method Not Found",
	CodeInvalidParams:    "Invalid Params",
	CodeInternalError:    "Internal Error",
	CodeApplicationError: "Application Error",
}

// ErrorMessage returns the canonical message for a taxonomy code. Codes are
// generated in-process, so an unknown code is a programming error.
func ErrorMessage(code int) string {
	return errorMessages[code]
}

// RPCError is the wire error object. It carries the id of the request it
// answers (nil when the id could not be determined) so an error raised deep
// in the pipeline still produces a well-formed response envelope.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`

	id json.RawMessage
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc %d: %s", e.Code, e.Message)
}

// NewError builds a taxonomy error with its canonical message, bound to the
// given request id (nil for id:null).
func NewError(id json.RawMessage, code int) *RPCError {
	return &RPCError{Code: code, Message: ErrorMessage(code), id: id}
}

// NewErrorData is NewError with an arbitrary message and diagnostic data.
func NewErrorData(id json.RawMessage, code int, message string, data any) *RPCError {
	return &RPCError{Code: code, Message: message, Data: data, id: id}
}

// CallError lets a handler attach diagnostic arguments that end up in the
// error's data field, mirroring exception args in the wire protocol.
type CallError struct {
	Message string
	Args    []any
}

func (e *CallError) Error() string { return e.Message }

// NewCallError builds a handler failure with optional diagnostic args.
func NewCallError(message string, args ...any) *CallError {
	return &CallError{Message: message, Args: args}
}

var (
	// ErrTransportClosed marks the transport as closed or unavailable.
	ErrTransportClosed = errors.New("transport closed")
)

// TransportError identifies a transport-level failure as opposed to a
// protocol-level one.
type TransportError struct {
	Op        string
	Err       error
	Temporary bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
