package jsonrpc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

/* =========================
   Stdio transport
   - Content-Length framed messages over any reader/writer pair
   - frames are always text; there is no binary kind on this link
   ========================= */

type StdioTransport struct {
	r     *bufio.Reader
	w     *bufio.Writer
	muW   sync.Mutex
	recvC chan Frame
	alive atomic.Bool
	wg    sync.WaitGroup

	opts *ServeOptions
}

func NewStdioTransport(r io.Reader, w io.Writer, opts *ServeOptions) *StdioTransport {
	opts = opts.WithDefaults()
	t := &StdioTransport{
		r:     bufio.NewReader(r),
		w:     bufio.NewWriter(w),
		recvC: make(chan Frame, 128),
		opts:  opts,
	}
	t.alive.Store(true)
	t.wg.Add(1)
	go t.readLoop()
	return t
}

func (t *StdioTransport) readLoop() {
	defer close(t.recvC)
	defer t.wg.Done()
	defer func() {
		if h := t.opts.OnDisconnected; h != nil {
			h(nil)
		}
	}()

	for t.alive.Load() {
		length := -1
		for {
			line, err := t.r.ReadString('\n')
			if err != nil {
				t.alive.Store(false)
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				break
			}
			if strings.HasPrefix(strings.ToLower(line), "content-length:") {
				v := strings.TrimSpace(line[len("content-length:"):])
				n, _ := strconv.Atoi(v)
				length = n
			}
		}
		if length < 0 {
			t.opts.Logger.Warn().Msg("stdio: invalid header, missing Content-Length")
			continue
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(t.r, body); err != nil {
			t.alive.Store(false)
			return
		}

		if h := t.opts.OnMessage; h != nil {
			h(body)
		}
		t.recvC <- Frame{Data: body}
	}
}

func (t *StdioTransport) Send(ctx context.Context, payload []byte) error {
	if !t.alive.Load() {
		return &TransportError{Op: "write", Err: ErrTransportClosed, Temporary: false}
	}
	t.muW.Lock()
	defer t.muW.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(payload))
	if _, err := t.w.WriteString(header); err != nil {
		return &TransportError{Op: "write", Err: err, Temporary: false}
	}
	if _, err := t.w.Write(payload); err != nil {
		return &TransportError{Op: "write", Err: err, Temporary: false}
	}
	if err := t.w.Flush(); err != nil {
		return &TransportError{Op: "write", Err: err, Temporary: false}
	}
	return nil
}

func (t *StdioTransport) Recv() <-chan Frame { return t.recvC }

func (t *StdioTransport) Close() error {
	if !t.alive.Swap(false) {
		return nil
	}
	_ = t.w.Flush()
	return nil
}

func (t *StdioTransport) IsConnected() bool { return t.alive.Load() }
