package jsonrpc

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

/* =========================
   Message handler (boundary)
   - one inbound frame: codec -> validator -> dispatcher -> codec
   - notifications produce no outbound frame at all
   ========================= */

type Consumer struct {
	dispatcher *Dispatcher
	log        zerolog.Logger
}

func NewConsumer(registry *Registry, opts *ServeOptions) *Consumer {
	opts = opts.WithDefaults()
	return &Consumer{
		dispatcher: NewDispatcher(registry, *opts.Logger),
		log:        opts.Logger.With().Str("registry", registry.Name()).Logger(),
	}
}

// HandleFrame processes one inbound frame and returns the outbound frame.
// respond is false when nothing should be written back (notifications, or a
// batch made entirely of them).
func (c *Consumer) HandleFrame(ctx context.Context, frame Frame) (out []byte, respond bool) {
	if frame.Binary {
		// Binary frames are never valid envelopes in this protocol.
		return EncodeResponse(NewErrorResponse(NewError(nil, CodeInvalidRequest))), true
	}

	payload, rpcErr := DecodePayload(frame.Data)
	if rpcErr != nil {
		return EncodeResponse(NewErrorResponse(rpcErr)), true
	}

	if payload.IsBatch {
		return c.handleBatch(ctx, payload.Batch)
	}

	resp := c.handleObject(ctx, payload.Single)
	if resp == nil {
		return nil, false
	}
	return EncodeResponse(resp), true
}

// handleObject runs one envelope through validation and dispatch; nil means
// a notification was accepted and dropped.
func (c *Consumer) handleObject(ctx context.Context, raw json.RawMessage) *RPCResponse {
	req, notification, rpcErr := ValidateObject(raw)
	if rpcErr != nil {
		return NewErrorResponse(rpcErr)
	}
	if notification {
		c.log.Debug().Msg("notification dropped")
		return nil
	}
	return c.dispatcher.Dispatch(ctx, req)
}

// handleBatch dispatches every element independently and collects the
// non-notification responses in request order. A batch with any non-object
// element fails whole; a batch of only notifications produces no frame.
func (c *Consumer) handleBatch(ctx context.Context, batch []json.RawMessage) ([]byte, bool) {
	if rpcErr := ValidateBatch(batch); rpcErr != nil {
		return EncodeResponse(NewErrorResponse(rpcErr)), true
	}
	resps := make([]*RPCResponse, 0, len(batch))
	for _, el := range batch {
		if resp := c.handleObject(ctx, el); resp != nil {
			resps = append(resps, resp)
		}
	}
	if len(resps) == 0 {
		return nil, false
	}
	return EncodeBatch(resps), true
}

// Serve drains the transport, answering each inbound frame before reading
// the next one. It returns when the transport closes or ctx is cancelled.
func (c *Consumer) Serve(ctx context.Context, t Transport) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-t.Recv():
			if !ok {
				return nil
			}
			out, respond := c.HandleFrame(ctx, frame)
			if !respond {
				continue
			}
			if err := t.Send(ctx, out); err != nil {
				c.log.Warn().Err(err).Msg("send failed")
				return err
			}
		}
	}
}
