package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/OCAP2/orbat/internal/message"
	"github.com/OCAP2/orbat/internal/queue"
	"github.com/OCAP2/orbat/pkg/core"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HandlerFunc processes a message addressed to the world.
type HandlerFunc func(message.Message) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes messages to enrolled receivers and world handlers.
// Dispatch only enqueues; delivery happens in Pump on the caller's goroutine.
type Dispatcher struct {
	receivers map[core.EntityID]message.Receiver
	handlers  map[message.Kind][]HandlerFunc
	taps      map[message.Kind][]HandlerFunc
	pending   *queue.Delayed[message.Message]
	now       float64
	logger    Logger

	// OTEL metrics
	queueSize  metric.Int64ObservableGauge
	dispatched metric.Int64Counter
	delivered  metric.Int64Counter
	dropped    metric.Int64Counter
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		receivers: make(map[core.EntityID]message.Receiver),
		handlers:  make(map[message.Kind][]HandlerFunc),
		taps:      make(map[message.Kind][]HandlerFunc),
		pending:   queue.NewDelayed[message.Message](),
		logger:    logger,
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of messages waiting for delivery"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(d.queueSize, int64(d.pending.Len()))
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.dispatched, err = m.Int64Counter(
		"dispatcher.messages.dispatched",
		metric.WithDescription("Total messages enqueued"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatched counter: %w", err)
	}

	d.delivered, err = m.Int64Counter(
		"dispatcher.messages.delivered",
		metric.WithDescription("Total messages delivered to a receiver or handler"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating delivered counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.messages.dropped",
		metric.WithDescription("Total messages with no receiver"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a world handler for the given message kind.
// Several handlers may be registered for one kind; they run in registration order.
func (d *Dispatcher) Register(kind message.Kind, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = d.withLogging(kind, handler)
	}

	d.handlers[kind] = append(d.handlers[kind], handler)
}

// Tap observes every delivered message of a kind, whatever its target.
// Taps run before the message reaches its receiver.
func (d *Dispatcher) Tap(kind message.Kind, h HandlerFunc) {
	d.taps[kind] = append(d.taps[kind], h)
}

// HasHandler returns true if a world handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind message.Kind) bool {
	return len(d.handlers[kind]) > 0
}

// Enroll makes r reachable by its ID. A later enrollment with the same ID replaces it.
func (d *Dispatcher) Enroll(r message.Receiver) {
	d.receivers[r.ID()] = r
}

// Withdraw removes the receiver with the given ID.
func (d *Dispatcher) Withdraw(id core.EntityID) {
	delete(d.receivers, id)
}

// Dispatch stamps m with the current time and enqueues it.
func (d *Dispatcher) Dispatch(m message.Message) {
	m.Timestamp = d.now
	delay := m.Delay
	if delay < 0 {
		delay = 0
	}
	d.pending.Push(d.now+delay, m)
	d.dispatched.Add(context.Background(), 1, metric.WithAttributes(kindAttr(m.Kind)))
}

// Pump advances the clock to now and delivers every due message, including
// messages dispatched by receivers during this call. Returns the number delivered.
func (d *Dispatcher) Pump(now float64) int {
	if now > d.now {
		d.now = now
	}

	n := 0
	for {
		m, ok := d.pending.PopDue(d.now)
		if !ok {
			return n
		}
		if d.deliver(m) {
			n++
		}
	}
}

// Now returns the dispatcher clock in simulated seconds.
func (d *Dispatcher) Now() float64 {
	return d.now
}

// Pending returns the number of messages not yet delivered.
func (d *Dispatcher) Pending() int {
	return d.pending.Len()
}

func (d *Dispatcher) deliver(m message.Message) bool {
	ctx := context.Background()
	attrs := metric.WithAttributes(kindAttr(m.Kind))

	for _, tap := range d.taps[m.Kind] {
		if err := tap(m); err != nil {
			d.logger.Error("tap failed", "kind", m.Kind.String(), "error", err)
		}
	}

	if m.Target == core.WorldEntityID {
		handlers := d.handlers[m.Kind]
		if len(handlers) == 0 {
			d.dropped.Add(ctx, 1, attrs)
			return false
		}
		for _, h := range handlers {
			if err := h(m); err != nil {
				d.logger.Error("handler failed", "kind", m.Kind.String(), "sender", m.Sender, "error", err)
			}
		}
		d.delivered.Add(ctx, 1, attrs)
		return true
	}

	r, ok := d.receivers[m.Target]
	if !ok {
		d.logger.Debug("no receiver for message", "kind", m.Kind.String(), "target", m.Target)
		d.dropped.Add(ctx, 1, attrs)
		return false
	}
	r.ReceiveMessage(m)
	d.delivered.Add(ctx, 1, attrs)
	return true
}

func (d *Dispatcher) withLogging(kind message.Kind, h HandlerFunc) HandlerFunc {
	return func(m message.Message) error {
		start := time.Now()
		d.logger.Debug("handling message", "kind", kind.String(), "sender", m.Sender)

		err := h(m)

		d.logger.Debug("message complete", "kind", kind.String(), "duration", time.Since(start), "failed", err != nil)

		return err
	}
}

func kindAttr(k message.Kind) attribute.KeyValue {
	return attribute.String("kind", k.String())
}
