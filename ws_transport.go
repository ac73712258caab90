package jsonrpc

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

/* =========================
   WebSocket transport
   - wraps one gorilla connection, accepted or dialed
   - ping ticker + pong deadline keep the link fresh
   - writes are serialized under muW
   ========================= */

type WSTransport struct {
	conn *websocket.Conn
	opts *ServeOptions

	muW    sync.Mutex
	recvC  chan Frame
	alive  atomic.Bool
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWSTransport wraps an established websocket connection. The transport
// owns the connection from here on.
func NewWSTransport(conn *websocket.Conn, opts *ServeOptions) *WSTransport {
	opts = opts.WithDefaults()
	t := &WSTransport{
		conn:   conn,
		opts:   opts,
		recvC:  make(chan Frame, 256),
		stopCh: make(chan struct{}),
	}
	t.alive.Store(true)
	conn.SetReadLimit(opts.MaxMessageSize)
	t.wg.Add(1)
	go t.readLoop()
	return t
}

// DialWS connects to a websocket endpoint and wraps the connection. Used by
// clients; servers wrap accepted connections via NewWSTransport.
func DialWS(ctx context.Context, url string, opts *ServeOptions) (*WSTransport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err, Temporary: true}
	}
	return NewWSTransport(conn, opts), nil
}

func (t *WSTransport) readLoop() {
	defer t.wg.Done()
	defer close(t.recvC)

	opt := t.opts
	_ = t.conn.SetReadDeadline(time.Now().Add(opt.PongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(opt.PongWait))
	})

	pingStop := make(chan struct{})
	var pingWg sync.WaitGroup
	pingWg.Add(1)
	go func() {
		defer pingWg.Done()
		ticker := time.NewTicker(opt.PingInterval)
		defer ticker.Stop()
		consecutiveFailures := 0
		for {
			select {
			case <-ticker.C:
				t.muW.Lock()
				err := t.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
				t.muW.Unlock()
				if err != nil {
					consecutiveFailures++
					if consecutiveFailures >= opt.PingFailureThreshold {
						_ = t.conn.Close()
						return
					}
				} else {
					consecutiveFailures = 0
				}
			case <-pingStop:
				return
			case <-t.stopCh:
				return
			}
		}
	}()

	for {
		kind, msg, err := t.conn.ReadMessage()
		if err != nil {
			t.alive.Store(false)
			close(pingStop)
			pingWg.Wait()
			_ = t.conn.Close()
			if h := opt.OnDisconnected; h != nil {
				h(err)
			}
			return
		}
		if h := opt.OnMessage; h != nil {
			h(msg)
		}
		frame := Frame{Binary: kind == websocket.BinaryMessage, Data: msg}
		select {
		case t.recvC <- frame:
		case <-t.stopCh:
			close(pingStop)
			pingWg.Wait()
			return
		}
	}
}

func (t *WSTransport) Send(ctx context.Context, payload []byte) error {
	if !t.alive.Load() {
		return &TransportError{Op: "write", Err: ErrTransportClosed, Temporary: false}
	}
	t.muW.Lock()
	defer t.muW.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(dl)
	} else {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.opts.WriteTimeout))
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		_ = t.conn.Close()
		return &TransportError{Op: "write", Err: err, Temporary: false}
	}
	return nil
}

func (t *WSTransport) Recv() <-chan Frame { return t.recvC }

func (t *WSTransport) Close() error {
	select {
	case <-t.stopCh:
	default:
		close(t.stopCh)
	}
	t.alive.Store(false)
	_ = t.conn.Close()
	t.wg.Wait()
	return nil
}

func (t *WSTransport) IsConnected() bool { return t.alive.Load() }

/* =========================
   HTTP endpoint
   - upgrades each request and serves it with a consumer over the
     connection type's registry
   ========================= */

type Endpoint struct {
	registry *Registry
	opts     *ServeOptions
	upgrader websocket.Upgrader

	// OnConnect, when set, runs for each accepted connection; the returned
	// cleanup runs when the connection ends. Used to join broadcast groups.
	OnConnect func(t Transport) (cleanup func())
}

func NewEndpoint(registry *Registry, opts *ServeOptions) *Endpoint {
	return &Endpoint{
		registry: registry,
		opts:     opts.WithDefaults(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.opts.Logger.Warn().Err(err).Msg("upgrade failed")
		return
	}
	t := NewWSTransport(conn, e.opts)
	defer t.Close()

	e.opts.Logger.Debug().
		Str("registry", e.registry.Name()).
		Str("remote", conn.RemoteAddr().String()).
		Msg("connection open")

	if e.OnConnect != nil {
		if cleanup := e.OnConnect(t); cleanup != nil {
			defer cleanup()
		}
	}

	consumer := NewConsumer(e.registry, e.opts)
	_ = consumer.Serve(r.Context(), t)

	e.opts.Logger.Debug().
		Str("registry", e.registry.Name()).
		Msg("connection closed")
}
