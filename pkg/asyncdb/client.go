// Package asyncdb serializes all index-database access onto a single
// dedicated goroutine, exposing both a blocking call API and a future
// (channel) based one: a persistent worker drains a channel of either
// "run this closure against the connection" or "shut down", and each call
// gets its own one-shot result channel.
package asyncdb

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/calvinalkan/vaultcore/pkg/index"
)

// ErrClosed is returned by operations submitted after [Client.Close] has
// returned.
var ErrClosed = errors.New("asyncdb: client closed")

type job struct {
	run      func(db *sql.DB)
	shutdown chan error // non-nil only for the shutdown command
}

// Client owns a single [index.Store] and runs every operation against it
// on one dedicated goroutine.
type Client struct {
	store *index.Store

	jobs chan job

	mu     sync.Mutex
	closed bool
}

// Open creates the index connection and starts the worker goroutine.
func Open(ctx context.Context, path string) (*Client, error) {
	store, err := index.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	c := &Client{
		store: store,
		jobs:  make(chan job, 64),
	}

	go c.loop()

	return c, nil
}

func (c *Client) loop() {
	for j := range c.jobs {
		if j.shutdown != nil {
			j.shutdown <- c.store.Close()
			close(j.shutdown)

			return
		}

		j.run(c.store.DB())
	}
}

// submit enqueues j, or returns false if the client is already closed.
func (c *Client) submit(j job) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	c.jobs <- j

	return true
}

// Result is the outcome of one asynchronously submitted operation.
type Result struct {
	Value any
	Err   error
}

// Call submits fn and blocks until it has run, returning its result.
func (c *Client) Call(fn func(db *sql.DB) (any, error)) (any, error) {
	done := make(chan Result, 1)

	ok := c.submit(job{run: func(db *sql.DB) {
		v, err := fn(db)
		done <- Result{Value: v, Err: err}
	}})
	if !ok {
		return nil, ErrClosed
	}

	r := <-done

	return r.Value, r.Err
}

// Go submits fn and immediately returns a channel the caller can receive
// the result from whenever convenient.
func (c *Client) Go(fn func(db *sql.DB) (any, error)) <-chan Result {
	out := make(chan Result, 1)

	ok := c.submit(job{run: func(db *sql.DB) {
		v, err := fn(db)
		out <- Result{Value: v, Err: err}
	}})
	if !ok {
		out <- Result{Err: ErrClosed}
		close(out)
	}

	return out
}

// Close sends the shutdown command and waits for the worker to close the
// underlying store. If the client is already closed, it reports success.
func (c *Client) Close() error {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return nil
	}

	c.closed = true

	reply := make(chan error, 1)
	c.jobs <- job{shutdown: reply}
	close(c.jobs)
	c.mu.Unlock()

	return <-reply
}
