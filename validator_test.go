package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateObjectRequests(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantMethod string
		wantID     string
	}{
		{"positional params", `{"jsonrpc":"2.0","id":1,"method":"echo","params":["hi"]}`, "echo", "1"},
		{"keyed params", `{"jsonrpc":"2.0","id":"a-1","method":"add","params":{"a":1,"b":2}}`, "add", `"a-1"`},
		{"no params", `{"jsonrpc":"2.0","id":2,"method":"ping"}`, "ping", "2"},
		{"no id and no params is a request, not a notification", `{"jsonrpc":"2.0","method":"ping"}`, "ping", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, notification, rpcErr := ValidateObject(json.RawMessage(tt.raw))
			require.Nil(t, rpcErr)
			require.False(t, notification)
			require.NotNil(t, req)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantID, string(req.ID))
		})
	}
}

func TestValidateObjectFailures(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode int
		wantID   string
	}{
		{"missing jsonrpc", `{"id":1,"method":"echo","params":[]}`, CodeInvalidRequest, "1"},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"echo"}`, CodeInvalidRequest, "1"},
		{"version not a string", `{"jsonrpc":2,"id":1,"method":"echo"}`, CodeInvalidRequest, "1"},
		{"missing method", `{"jsonrpc":"2.0","id":3}`, CodeInvalidRequest, "3"},
		{"method not a string", `{"jsonrpc":"2.0","id":4,"method":12}`, CodeInvalidRequest, "4"},
		{"private method", `{"jsonrpc":"2.0","id":1,"method":"_secret"}`, CodeMethodNotFound, "1"},
		{"scalar params", `{"jsonrpc":"2.0","id":5,"method":"echo","params":42}`, CodeInvalidParams, "5"},
		{"string params", `{"jsonrpc":"2.0","id":5,"method":"echo","params":"hi"}`, CodeInvalidParams, "5"},
		{"null params with id", `{"jsonrpc":"2.0","id":5,"method":"echo","params":null}`, CodeInvalidParams, "5"},
		{"top-level number", `42`, CodeInvalidRequest, ""},
		{"top-level string", `"hello"`, CodeInvalidRequest, ""},
		{"top-level null", `null`, CodeInvalidRequest, ""},
		{"top-level bool", `true`, CodeInvalidRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, notification, rpcErr := ValidateObject(json.RawMessage(tt.raw))
			require.Nil(t, req)
			require.False(t, notification)
			require.NotNil(t, rpcErr)
			assert.Equal(t, tt.wantCode, rpcErr.Code)
			assert.Equal(t, ErrorMessage(tt.wantCode), rpcErr.Message)
			assert.Equal(t, tt.wantID, string(rpcErr.id))
		})
	}
}

func TestValidateObjectNotifications(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no id", `{"jsonrpc":"2.0","method":"log","params":["hi"]}`},
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"log","params":["hi"]}`},
		{"zero id", `{"jsonrpc":"2.0","id":0,"method":"log","params":["hi"]}`},
		{"empty string id", `{"jsonrpc":"2.0","id":"","method":"log","params":{"k":1}}`},
		{"false id", `{"jsonrpc":"2.0","id":false,"method":"log","params":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, notification, rpcErr := ValidateObject(json.RawMessage(tt.raw))
			assert.Nil(t, req)
			assert.Nil(t, rpcErr)
			assert.True(t, notification)
		})
	}
}

func TestValidateBatch(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		rpcErr := ValidateBatch(nil)
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeInvalidRequest, rpcErr.Code)
		assert.Nil(t, rpcErr.id)
	})

	t.Run("non-object element fails whole batch", func(t *testing.T) {
		batch := []json.RawMessage{
			json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"echo"}`),
			json.RawMessage(`42`),
		}
		rpcErr := ValidateBatch(batch)
		require.NotNil(t, rpcErr)
		assert.Equal(t, CodeInvalidRequest, rpcErr.Code)
		assert.Nil(t, rpcErr.id)
	})

	t.Run("all objects pass", func(t *testing.T) {
		batch := []json.RawMessage{
			json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"echo"}`),
			json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"echo"}`),
		}
		assert.Nil(t, ValidateBatch(batch))
	})
}
