package jsonrpc

import (
	"bytes"
	"encoding/json"
	"strings"
)

/* =========================
   Request validator
   - classifies one decoded top-level value as notification, request
     or garbage, per the JSON-RPC 2.0 subset served here
   - every failure is bound to the best-known id
   ========================= */

// Request is a validated request envelope, ready for dispatch.
type Request struct {
	ID     json.RawMessage
	Method string
	Params json.RawMessage
}

// ValidateObject validates one top-level JSON value. A classified
// notification returns (nil, true, nil): accepted, never dispatched, never
// answered. Anything that is not a JSON object fails as Invalid Request with
// id:null.
func ValidateObject(raw json.RawMessage) (*Request, bool, *RPCError) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false, NewError(nil, CodeInvalidRequest)
	}

	id := fields["id"]

	// Notification shape: method and params both present and non-null, id
	// absent or falsy. An id-less object without params is NOT a
	// notification; it validates as a request and is answered with id:null.
	if rawMethod, ok := fields["method"]; ok && !isNullValue(rawMethod) {
		if rawParams, ok := fields["params"]; ok && !isNullValue(rawParams) {
			if isFalsyID(id) {
				return nil, true, nil
			}
		}
	}

	var version string
	if err := json.Unmarshal(fields["jsonrpc"], &version); err != nil || version != Version {
		return nil, false, NewError(id, CodeInvalidRequest)
	}

	rawMethod, ok := fields["method"]
	if !ok {
		return nil, false, NewError(id, CodeInvalidRequest)
	}
	var method string
	if err := json.Unmarshal(rawMethod, &method); err != nil {
		return nil, false, NewError(id, CodeInvalidRequest)
	}

	// Private methods are reported as not-found here, before any registry
	// lookup, so their existence never leaks.
	if strings.HasPrefix(method, "_") {
		return nil, false, NewError(id, CodeMethodNotFound)
	}

	params, ok := fields["params"]
	if ok && !isParamsShape(params) {
		return nil, false, NewError(id, CodeInvalidParams)
	}

	return &Request{ID: id, Method: method, Params: params}, false, nil
}

// ValidateBatch checks the batch precondition: a non-empty array whose
// elements are all JSON objects. Any violation fails the whole batch with a
// single Invalid Request carrying id:null.
func ValidateBatch(batch []json.RawMessage) *RPCError {
	if len(batch) == 0 {
		return NewError(nil, CodeInvalidRequest)
	}
	for _, el := range batch {
		if !isJSONObject(el) {
			return NewError(nil, CodeInvalidRequest)
		}
	}
	return nil
}

// isParamsShape reports whether params is a sequence or a mapping.
func isParamsShape(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && (t[0] == '[' || t[0] == '{')
}

func isNullValue(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// isFalsyID treats absent, null, 0, "" and false ids as no id at all,
// matching the wire protocol's notification detection.
func isFalsyID(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	}
	return false
}
