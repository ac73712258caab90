package jsonrpc

import (
	"bytes"
	"encoding/json"
)

/* =========================
   Envelope codec
   - syntax only; JSON-RPC semantics belong to the validator
   - accepts a single object or a batch array at the top level
   ========================= */

// Payload is one decoded inbound frame.
type Payload struct {
	Single  json.RawMessage
	Batch   []json.RawMessage
	IsBatch bool
}

// DecodePayload parses raw text as JSON. A syntactically invalid payload
// yields a Parse Error with id:null; nothing else is checked here.
func DecodePayload(raw []byte) (*Payload, *RPCError) {
	trim := bytes.TrimSpace(raw)
	if len(trim) == 0 {
		return nil, NewError(nil, CodeParseError)
	}
	if isJSONArray(trim) {
		var batch []json.RawMessage
		if err := json.Unmarshal(trim, &batch); err != nil {
			return nil, NewError(nil, CodeParseError)
		}
		return &Payload{Batch: batch, IsBatch: true}, nil
	}
	var single json.RawMessage
	if err := json.Unmarshal(trim, &single); err != nil {
		return nil, NewError(nil, CodeParseError)
	}
	return &Payload{Single: single}, nil
}

// EncodeResponse serializes a response envelope. Absent optional fields are
// omitted rather than emitted as null; id:null is kept when the request id
// was never determined.
func EncodeResponse(resp *RPCResponse) []byte {
	return MustJSON(resp)
}

// EncodeBatch serializes an ordered batch response array.
func EncodeBatch(resps []*RPCResponse) []byte {
	return MustJSON(resps)
}

// NewResult builds a success response echoing the request id. A marshal
// failure of the handler's return value is reported as a handler failure.
func NewResult(id json.RawMessage, result any) *RPCResponse {
	raw, err := json.Marshal(result)
	if err != nil {
		return NewErrorResponse(NewErrorData(id, CodeApplicationError, err.Error(), []any{err.Error()}))
	}
	return &RPCResponse{JSONRPC: Version, ID: id, Result: raw}
}

// NewErrorResponse wraps a raised error into its response envelope, using
// the id the error was bound to when it was raised.
func NewErrorResponse(rpcErr *RPCError) *RPCResponse {
	return &RPCResponse{JSONRPC: Version, ID: rpcErr.id, Error: rpcErr}
}
