package app

import (
	"context"
	"time"
)

// TickerFunc starts a periodic tick source and returns its channel and a stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// scopedTicker runs onTick for every tick until released. release blocks until the
// goroutine has exited and the underlying ticker is stopped.
type scopedTicker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startScopedTicker(newTicker TickerFunc, interval time.Duration, onTick func()) *scopedTicker {
	ctx, cancel := context.WithCancel(context.Background())
	ticks, stop := newTicker(interval)
	st := &scopedTicker{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(st.done)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				onTick()
			}
		}
	}()
	return st
}

func (t *scopedTicker) release() {
	t.cancel()
	<-t.done
}
