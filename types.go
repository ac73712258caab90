package jsonrpc

import "encoding/json"

/* =========================
   Wire envelope
   - id and params stay raw so responses echo the request id
     byte-for-byte (number, string or null all round-trip)
   ========================= */

const Version = "2.0"

type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCResponse is a success or error response envelope. ID has no omitempty:
// a response with an undetermined id must carry id:null, and a nil
// RawMessage marshals to exactly that.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}
