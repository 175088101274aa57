package rabbitmq

import (
	"context"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const connectTimeout = 3 * time.Second

type dialResult struct {
	conn io.Closer // nil when the dial failed
	err  error
}

// New dials the broker and proves it is usable by opening and closing a
// throwaway channel. The connection is shared by the chat-log publisher
// and the persistence worker, which each open their own channels.
func New(ctx context.Context, url string) (*amqp.Connection, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	done := make(chan dialResult, 1)
	go func() {
		conn, err := amqp.Dial(url)
		if err != nil {
			done <- dialResult{err: err}
			return
		}
		done <- dialResult{conn: conn}
	}()

	res, err := awaitDial(dialCtx, done)
	if err != nil {
		return nil, err
	}
	conn := res.conn.(*amqp.Connection)

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	_ = ch.Close()

	return conn, nil
}

// awaitDial waits for the dial goroutine or the deadline, whichever comes
// first. When the deadline wins, a dial that completes later must not leak
// its connection, so the pending result is reaped and closed.
func awaitDial(ctx context.Context, done <-chan dialResult) (dialResult, error) {
	select {
	case <-ctx.Done():
		go func() {
			if res := <-done; res.conn != nil {
				_ = res.conn.Close()
			}
		}()
		return dialResult{}, fmt.Errorf("dial rabbitmq timeout: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return dialResult{}, fmt.Errorf("dial rabbitmq failed: %w", res.err)
		}
		return res, nil
	}
}
