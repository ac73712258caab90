package jsonrpc

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

/* =========================
   Client
   - pending map: id bytes -> chan *RPCResponse
   - just enough to drive a dispatcher end to end; no reconnect
   ========================= */

type Client struct {
	transport Transport
	timeout   time.Duration

	pendingMu sync.Mutex
	pending   map[string]chan *RPCResponse

	seq    atomic.Uint64
	closed atomic.Bool
	wg     sync.WaitGroup
}

func NewClient(t Transport, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		transport: t,
		timeout:   timeout,
		pending:   make(map[string]chan *RPCResponse),
	}
	c.wg.Add(1)
	go c.readLoop()
	return c
}

func (c *Client) Close() error {
	c.closed.Store(true)
	err := c.transport.Close()
	c.wg.Wait()
	return err
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	for frame := range c.transport.Recv() {
		if c.closed.Load() {
			break
		}
		if frame.Binary {
			continue
		}
		if isJSONArray(frame.Data) {
			var arr []json.RawMessage
			if err := json.Unmarshal(frame.Data, &arr); err != nil {
				continue
			}
			for _, item := range arr {
				c.deliver(item)
			}
			continue
		}
		c.deliver(frame.Data)
	}
	c.failAllPending()
}

func (c *Client) deliver(raw json.RawMessage) {
	var resp RPCResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return
	}
	if len(resp.ID) == 0 {
		// Server push without id: nothing is waiting on it.
		return
	}
	key := string(resp.ID)

	c.pendingMu.Lock()
	ch := c.pending[key]
	delete(c.pending, key)
	c.pendingMu.Unlock()

	if ch != nil {
		select {
		case ch <- &resp:
		default:
		}
	}
}

func (c *Client) failAllPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		errResp := &RPCResponse{
			JSONRPC: Version,
			ID:      json.RawMessage(id),
			Error:   &RPCError{Code: CodeInternalError, Message: ErrTransportClosed.Error()},
		}
		select {
		case ch <- errResp:
		default:
		}
	}
	c.pending = make(map[string]chan *RPCResponse)
}

// Call sends one request and waits for its response. A response carrying an
// error object is returned alongside that error.
func (c *Client) Call(ctx context.Context, method string, params any) (*RPCResponse, error) {
	id := json.RawMessage(strconv.FormatUint(c.seq.Add(1), 10))

	var rawParams json.RawMessage
	if params != nil {
		if raw, ok := params.(json.RawMessage); ok {
			rawParams = raw
		} else {
			bs, err := json.Marshal(params)
			if err != nil {
				return nil, err
			}
			rawParams = bs
		}
	}
	req := &RPCRequest{JSONRPC: Version, ID: id, Method: method, Params: rawParams}

	respCh := make(chan *RPCResponse, 1)
	key := string(id)
	c.pendingMu.Lock()
	c.pending[key] = respCh
	c.pendingMu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.transport.Send(ctx, MustJSON(req)); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, key)
		c.pendingMu.Unlock()
		return nil, err
	}

	select {
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, key)
		c.pendingMu.Unlock()
		return nil, ctx.Err()
	case resp := <-respCh:
		if resp.Error != nil {
			return resp, resp.Error
		}
		return resp, nil
	}
}

// Notify sends a request-shaped envelope without an id and does not wait.
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	var rawParams json.RawMessage
	if params != nil {
		bs, err := json.Marshal(params)
		if err != nil {
			return err
		}
		rawParams = bs
	}
	req := &RPCRequest{JSONRPC: Version, Method: method, Params: rawParams}
	return c.transport.Send(ctx, MustJSON(req))
}
