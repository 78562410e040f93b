package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "portal.events"

const (
	defaultDialTimeout = 2 * time.Second
	redialBackoff      = 5 * time.Second
)

// ErrBrokerUnavailable is returned without dialing while a recent connection
// attempt is still inside its backoff window.
var ErrBrokerUnavailable = errors.New("amqp: broker unavailable")

// AMQPPublisher publishes persistent JSON messages to a durable queue on the
// default exchange.  The connection is opened lazily and reopened after the
// broker drops it.  Every blocking step honours the caller's context.
type AMQPPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	backoff     time.Duration

	// sem is a one-slot lock guarding the fields below; acquiring it can be
	// abandoned when the caller's context ends.
	sem      chan struct{}
	conn     *amqp.Connection
	ch       *amqp.Channel
	lastFail time.Time
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{
		url:         url,
		queue:       queue,
		dialTimeout: defaultDialTimeout,
		backoff:     redialBackoff,
		sem:         make(chan struct{}, 1),
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("amqp: marshal event: %w", err)
	}

	if err := p.lock(ctx); err != nil {
		return fmt.Errorf("amqp: publish %s: %w", ev.Type, err)
	}
	defer p.unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         string(ev.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.resetLocked()
		return fmt.Errorf("amqp: publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close releases the connection.  Publish reconnects if called afterwards.
func (p *AMQPPublisher) Close() error {
	p.sem <- struct{}{}
	defer p.unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return errors.Join(errs...)
}

func (p *AMQPPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AMQPPublisher) unlock() { <-p.sem }

// channel must be called with the lock held.
func (p *AMQPPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	if !p.lastFail.IsZero() && time.Since(p.lastFail) < p.backoff {
		return nil, ErrBrokerUnavailable
	}

	conn, ch, err := p.connect(ctx)
	if err != nil {
		p.lastFail = time.Now()
		return nil, err
	}
	p.lastFail = time.Time{}
	p.conn, p.ch = conn, ch
	return ch, nil
}

type dialResult struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	err  error
}

// connect dials, opens a channel and declares the queue.  The TCP dial and
// handshake are bounded by the shorter of dialTimeout and ctx; a connection
// that completes after ctx ends is closed in the background.
func (p *AMQPPublisher) connect(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	timeout := p.dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			return nil, nil, fmt.Errorf("amqp: dial: %w", context.DeadlineExceeded)
		}
		timeout = min(timeout, left)
	}

	done := make(chan dialResult, 1)
	go func() {
		done <- p.dial(timeout)
	}()

	select {
	case r := <-done:
		return r.conn, r.ch, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				_ = r.ch.Close()
				_ = r.conn.Close()
			}
		}()
		return nil, nil, fmt.Errorf("amqp: dial: %w", ctx.Err())
	}
}

func (p *AMQPPublisher) dial(timeout time.Duration) dialResult {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Dial:      amqp.DefaultDial(timeout),
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return dialResult{err: fmt.Errorf("amqp: dial: %w", err)}
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return dialResult{err: fmt.Errorf("amqp: open channel: %w", err)}
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return dialResult{err: fmt.Errorf("amqp: declare queue %s: %w", p.queue, err)}
	}
	return dialResult{conn: conn, ch: ch}
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}
