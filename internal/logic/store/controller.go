package store

import (
	"context"
	"errors"
	"sync"
)

var ErrStopped = errors.New("store controller stopped")

// Listener is invoked on the controller goroutine after every committed event.
type Listener func(ev Event, st State)

type request struct {
	ev    Event
	reply chan reply
}

type reply struct {
	st  State
	err error
}

// Controller 唯一持有代理集合的 goroutine，所有修改都通过 Dispatch 串行化
type Controller struct {
	reqs      chan request
	stop      chan struct{}
	stopped   chan struct{}
	once      sync.Once
	listeners []Listener
}

func NewController(initial State, listeners ...Listener) *Controller {
	c := &Controller{
		reqs:      make(chan request),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
		listeners: listeners,
	}
	go c.loop(initial)
	return c
}

func (c *Controller) loop(st State) {
	defer close(c.stopped)

	for {
		select {
		case <-c.stop:
			return
		case req := <-c.reqs:
			next, err := Reduce(st, req.ev)
			if err == nil && req.ev != nil {
				st = next
				for _, l := range c.listeners {
					l(req.ev, st)
				}
			}
			req.reply <- reply{st: st, err: err}
		}
	}
}

// Dispatch applies ev and returns the committed state. A done ctx is
// reported before the event reaches the store.
func (c *Controller) Dispatch(ctx context.Context, ev Event) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	rep := make(chan reply, 1)
	select {
	case c.reqs <- request{ev: ev, reply: rep}:
	case <-c.stopped:
		return State{}, ErrStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	// 请求已被受理，等待结果以保证调用方看到自己的修改
	select {
	case r := <-rep:
		return r.st, r.err
	case <-c.stopped:
		return State{}, ErrStopped
	}
}

func (c *Controller) Snapshot(ctx context.Context) (State, error) {
	return c.Dispatch(ctx, nil)
}

// Stop terminates the controller goroutine; later calls return ErrStopped.
func (c *Controller) Stop() {
	c.once.Do(func() { close(c.stop) })
	<-c.stopped
}
