package asyncdb

import (
	"context"
	"database/sql"
	"errors"
	"runtime"
	"sync/atomic"
)

// Pool wraps N [Client]s over the same index file, round-robining calls
// across them by an atomic counter.
type Pool struct {
	clients []*Client
	next    atomic.Uint64
}

// OpenPool opens size clients against path. size <= 0 defaults to
// [runtime.GOMAXPROCS](0), i.e. available parallelism.
func OpenPool(ctx context.Context, path string, size int) (*Pool, error) {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}

	clients := make([]*Client, 0, size)

	for i := 0; i < size; i++ {
		c, err := Open(ctx, path)
		if err != nil {
			closeAll(clients)

			return nil, err
		}

		clients = append(clients, c)
	}

	return &Pool{clients: clients}, nil
}

func closeAll(clients []*Client) {
	for _, c := range clients {
		_ = c.Close()
	}
}

// pick returns the next client in round-robin order.
func (p *Pool) pick() *Client {
	i := p.next.Add(1) - 1

	return p.clients[i%uint64(len(p.clients))]
}

// Client returns the next client in round-robin order, so callers can
// invoke its [Client.Call]/[Client.Go] directly.
func (p *Pool) Client() *Client {
	return p.pick()
}

// Call dispatches fn to the next client in round-robin order and blocks
// for its result.
func (p *Pool) Call(fn func(db *sql.DB) (any, error)) (any, error) {
	return p.pick().Call(fn)
}

// Go dispatches fn to the next client in round-robin order and returns
// immediately with a channel for the result.
func (p *Pool) Go(fn func(db *sql.DB) (any, error)) <-chan Result {
	return p.pick().Go(fn)
}

// Close closes every client in the pool, aggregating any errors.
func (p *Pool) Close() error {
	var errs []error

	for _, c := range p.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
