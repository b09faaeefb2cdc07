package lifecycle

import (
	"context"
	"sync"
)

// Handle scopes a background loop. Releasing it cancels the loop and waits for it to exit.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Go runs loop in a new goroutine with a context derived from ctx
func Go(ctx context.Context, loop func(ctx context.Context)) *Handle {
	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		loop(loopCtx)
	}()

	return h
}

// Release stops the loop and waits for it to exit. Safe to call more than once.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.cancel()
		<-h.done
	})
}

// Done is closed once the loop has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
