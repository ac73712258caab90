package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

/* =========================
   Dispatcher
   - registry lookup, param destructuring, invocation, response
   - stateless: one inbound request, one response envelope
   ========================= */

type Dispatcher struct {
	registry *Registry
	log      zerolog.Logger
}

func NewDispatcher(registry *Registry, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		log:      log.With().Str("registry", registry.Name()).Logger(),
	}
}

// Dispatch resolves and invokes one validated request, always producing a
// response envelope whose id echoes the request's.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *RPCResponse {
	h, ok := d.registry.Lookup(req.Method)
	if !ok {
		d.log.Debug().Str("method", req.Method).Msg("method not found")
		return NewErrorResponse(NewError(req.ID, CodeMethodNotFound))
	}

	call, rpcErr := destructure(req)
	if rpcErr != nil {
		return NewErrorResponse(rpcErr)
	}

	result, err := invoke(ctx, h, call)
	if err != nil {
		d.log.Debug().Str("method", req.Method).Err(err).Msg("handler failed")
		return NewErrorResponse(handlerError(req.ID, err))
	}
	return NewResult(req.ID, result)
}

// destructure turns raw params into a Call: a sequence is passed
// positionally, a mapping as keyed arguments, absent params as zero
// arguments. The validator guarantees the shape, so decode failures here
// cannot happen on validated input, but they still report Invalid Params.
func destructure(req *Request) (*Call, *RPCError) {
	call := &Call{}
	if len(req.Params) == 0 {
		return call, nil
	}
	if isJSONArray(req.Params) {
		if err := json.Unmarshal(req.Params, &call.Args); err != nil {
			return nil, NewError(req.ID, CodeInvalidParams)
		}
		return call, nil
	}
	if err := json.Unmarshal(req.Params, &call.Kwargs); err != nil {
		return nil, NewError(req.ID, CodeInvalidParams)
	}
	return call, nil
}

// invoke runs the handler, converting a panic into an ordinary error so one
// broken handler cannot take the connection down.
func invoke(ctx context.Context, h Handler, call *Call) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = rerr
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	return h(ctx, call)
}

// handlerError converts a handler failure into its error object. A
// *CallError supplies its own diagnostic args; a *RPCError passes through
// with its code and data; anything else becomes an Application Error whose
// data holds the error text as a one-element arg list.
func handlerError(id json.RawMessage, err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return NewErrorData(id, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		args := callErr.Args
		if args == nil {
			args = []any{}
		}
		return NewErrorData(id, CodeApplicationError, callErr.Message, args)
	}
	return NewErrorData(id, CodeApplicationError, err.Error(), []any{err.Error()})
}
