package completion

import (
	"context"
	"errors"
	"sync/atomic"
)

var callSeq atomic.Uint64

// Call is a cancellable in-flight completion.
type Call struct {
	id     uint64
	cancel context.CancelFunc
	done   chan struct{}
	text   string
	err    error
}

// Start runs c.Complete in the background under a context derived from ctx.
func Start(ctx context.Context, c Completer, systemPrompt, userPrompt string) *Call {
	callCtx, cancel := context.WithCancel(ctx)
	call := &Call{
		id:     callSeq.Add(1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(call.done)
		defer cancel()
		call.text, call.err = c.Complete(callCtx, systemPrompt, userPrompt)
		if call.err != nil && errors.Is(callCtx.Err(), context.Canceled) && !errors.Is(call.err, ErrCancelled) {
			call.err = cancelled(call.err)
		}
	}()
	return call
}

// ID identifies the call within the process.
func (c *Call) ID() uint64 { return c.id }

// Cancel signals the completion to abort. Safe to call more than once.
func (c *Call) Cancel() { c.cancel() }

// Done is closed once the completion has settled.
func (c *Call) Done() <-chan struct{} { return c.done }

// Result blocks until the call settles.
func (c *Call) Result() (string, error) {
	<-c.done
	return c.text, c.err
}
