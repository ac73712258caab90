package jsonrpc

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, string, *Endpoint) {
	t.Helper()
	reg := NewRegistry("chat")
	reg.Register("echo", func(ctx context.Context, call *Call) (any, error) {
		if len(call.Args) != 1 {
			return nil, NewCallError("echo takes exactly one argument")
		}
		return call.Args[0], nil
	})
	reg.Register("methods", func(ctx context.Context, call *Call) (any, error) {
		return reg.Methods(), nil
	})

	endpoint := NewEndpoint(reg, nil)
	srv := httptest.NewServer(endpoint)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL, endpoint
}

func TestWSEndToEndCall(t *testing.T) {
	_, wsURL, _ := newTestServer(t)

	tr, err := DialWS(context.Background(), wsURL, nil)
	require.NoError(t, err)
	client := NewClient(tr, 5*time.Second)
	defer client.Close()

	resp, err := client.Call(context.Background(), "echo", []any{"hi"})
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, string(resp.Result))

	resp, err = client.Call(context.Background(), "methods", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `["echo","methods"]`, string(resp.Result))
}

func TestWSEndToEndErrors(t *testing.T) {
	_, wsURL, _ := newTestServer(t)

	tr, err := DialWS(context.Background(), wsURL, nil)
	require.NoError(t, err)
	client := NewClient(tr, 5*time.Second)
	defer client.Close()

	resp, err := client.Call(context.Background(), "_secret", nil)
	require.Error(t, err)
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, CodeMethodNotFound, rpcErr.Code)
	assert.Equal(t, "Method Not Found", rpcErr.Message)
	require.NotNil(t, resp)

	_, err = client.Call(context.Background(), "echo", []any{})
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, CodeApplicationError, rpcErr.Code)
	assert.Equal(t, "echo takes exactly one argument", rpcErr.Message)
}

func TestWSNotificationGetsNoResponse(t *testing.T) {
	_, wsURL, _ := newTestServer(t)

	tr, err := DialWS(context.Background(), wsURL, nil)
	require.NoError(t, err)
	client := NewClient(tr, 5*time.Second)
	defer client.Close()

	require.NoError(t, client.Notify(context.Background(), "echo", []any{"dropped"}))

	// The connection stays healthy and ordered: the next call is answered.
	resp, err := client.Call(context.Background(), "echo", []any{"after"})
	require.NoError(t, err)
	assert.Equal(t, `"after"`, string(resp.Result))
}

func TestWSBinaryFrameRejected(t *testing.T) {
	_, wsURL, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0xde, 0xad}))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32600,"message":"Invalid Request"}}`, string(msg))
}

func TestWSHubBroadcast(t *testing.T) {
	_, wsURL, endpoint := newTestServer(t)

	hub := NewHub(nil)
	endpoint.OnConnect = func(tr Transport) func() {
		id := hub.Join("clients", tr)
		return func() { hub.Leave("clients", id) }
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Size("clients") == 1 },
		5*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(context.Background(), "clients", map[string]any{
		"jsonrpc": Version,
		"method":  "server/tick",
		"params":  map[string]any{"n": 1},
	}))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"server/tick","params":{"n":1}}`, string(msg))
}
