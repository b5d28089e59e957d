package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/taskflow-api/internal/domain"
	"golang.org/x/time/rate"
)

// ErrDispatcherClosed is returned by Enqueue after Close.
var ErrDispatcherClosed = fmt.Errorf("mail dispatcher closed: %w", domain.ErrUnavailable)

// ErrQueueFull is returned by Enqueue when the queue has no free slot.
var ErrQueueFull = fmt.Errorf("mail queue full: %w", domain.ErrUnavailable)

type message struct {
	to      string
	subject string
	body    string
}

// Dispatcher delivers mail asynchronously through a bounded queue drained by
// a fixed set of workers. Every send waits on a shared rate limiter.
type Dispatcher struct {
	mailer  Mailer
	limiter *rate.Limiter
	queue   chan message

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines sending through m at most perSec
// messages per second. Non-positive arguments fall back to 1 worker,
// a queue of 1 and an unlimited rate.
func NewDispatcher(m Mailer, workers, queueSize int, perSec float64) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	limit := rate.Inf
	if perSec > 0 {
		limit = rate.Limit(perSec)
	}
	d := &Dispatcher{
		mailer:  m,
		limiter: rate.NewLimiter(limit, 1),
		queue:   make(chan message, queueSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// SendEmail queues a message. It satisfies Mailer so services can depend on
// either the synchronous mailer or the dispatcher.
func (d *Dispatcher) SendEmail(to, subject, body string) error {
	return d.Enqueue(to, subject, body)
}

// Enqueue queues a message without blocking.
func (d *Dispatcher) Enqueue(to, subject, body string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- message{to: to, subject: subject, body: body}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops intake and blocks until every queued message has been attempted.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		if err := d.limiter.Wait(context.Background()); err != nil {
			slog.Error("mail rate limiter", "err", err)
		}
		if err := d.mailer.SendEmail(msg.to, msg.subject, msg.body); err != nil {
			slog.Error("send email", "to", msg.to, "subject", msg.subject, "err", err)
		}
	}
}
