package jsonrpc

import "context"

/* =========================
   Transport contract
   ========================= */

// Frame is one inbound message unit. Binary marks non-text frames, which
// the consumer rejects without decoding.
type Frame struct {
	Binary bool
	Data   []byte
}

// Transport is a connection-oriented, message-based link to one peer. Recv
// is closed when the connection goes away; Send serializes concurrent
// writers internally.
type Transport interface {
	Send(ctx context.Context, payload []byte) error
	Recv() <-chan Frame
	Close() error
	IsConnected() bool
}
