package jsonrpc

import (
	"time"

	"github.com/rs/zerolog"
)

/* =========================
   Serve options
   ========================= */

type ServeOptions struct {
	// Heartbeat (WS)
	PingInterval time.Duration
	PongWait     time.Duration

	// WriteTimeout bounds a single outbound frame write.
	WriteTimeout time.Duration

	// MaxMessageSize caps one inbound frame; an oversized frame closes the
	// connection at the transport level.
	MaxMessageSize int64

	// Hooks
	OnMessage      func([]byte) // every inbound frame, transport level
	OnDisconnected func(error)

	// PingFailureThreshold is how many consecutive ping write failures are
	// tolerated before the connection is declared dead and closed. Default: 3
	PingFailureThreshold int

	// Logger defaults to a disabled logger; the library is silent unless
	// one is wired in.
	Logger *zerolog.Logger
}

func (o *ServeOptions) WithDefaults() *ServeOptions {
	var cp ServeOptions
	if o != nil {
		cp = *o
	}
	if cp.PingInterval <= 0 {
		cp.PingInterval = 20 * time.Second
	}
	if cp.PongWait <= 0 {
		cp.PongWait = 60 * time.Second
	}
	if cp.WriteTimeout <= 0 {
		cp.WriteTimeout = 30 * time.Second
	}
	if cp.MaxMessageSize <= 0 {
		cp.MaxMessageSize = 1 << 20
	}
	if cp.PingFailureThreshold <= 0 {
		cp.PingFailureThreshold = 3
	}
	if cp.Logger == nil {
		nop := zerolog.Nop()
		cp.Logger = &nop
	}
	return &cp
}
