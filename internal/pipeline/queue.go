package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/collegemail/idverify/internal/store"
)

// QueueConfig holds asynchronous submission settings.
type QueueConfig struct {
	Workers int
	Depth   int
}

// DefaultQueueConfig returns the default queue configuration.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{Workers: 2, Depth: 64}
}

// EventType labels a queue lifecycle event.
type EventType string

const (
	EventAccepted  EventType = "accepted"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Event is a pipeline lifecycle notification, consumed by observers such
// as the server's websocket stream.
type Event struct {
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`
	Category  string    `json:"category,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Ticket is the completion signal for one submitted request. The caller
// does not have to wait on it; failures remain observable either way.
type Ticket struct {
	RequestID string
	done      chan struct{}
	rec       store.Record
	err       error
}

// Done is closed when processing finishes.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Result returns the record and error after Done is closed.
func (t *Ticket) Result() (store.Record, error) { return t.rec, t.err }

// Wait blocks until processing finishes or the context is cancelled.
func (t *Ticket) Wait(ctx context.Context) (store.Record, error) {
	select {
	case <-t.done:
		return t.rec, t.err
	case <-ctx.Done():
		return store.Record{}, ctx.Err()
	}
}

// Queue runs submitted requests on a fixed worker pool. Submission is
// non-blocking from the uploader's point of view: the upload response
// returns as soon as the ticket is issued.
type Queue struct {
	pipeline *Pipeline
	tasks    chan queueTask
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
	observer func(Event)
}

type queueTask struct {
	req    Request
	ticket *Ticket
}

// NewQueue creates and starts a queue for the pipeline.
func NewQueue(p *Pipeline, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultQueueConfig().Workers
	}
	if cfg.Depth <= 0 {
		cfg.Depth = DefaultQueueConfig().Depth
	}
	q := &Queue{
		pipeline: p,
		tasks:    make(chan queueTask, cfg.Depth),
	}
	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// SetObserver registers a lifecycle event callback. Must be set before
// submissions begin.
func (q *Queue) SetObserver(fn func(Event)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observer = fn
}

// Submission errors. ErrQueueFull is transient backpressure; ErrQueueClosed
// is terminal.
var (
	ErrQueueClosed = errors.New("queue is closed")
	ErrQueueFull   = errors.New("queue is full")
)

// Submit enqueues a request and returns its completion ticket. The
// closed-check and the channel send happen under one critical section:
// Close only closes the task channel after it has taken the same mutex to
// mark the queue closed, so a send never races the close.
func (q *Queue) Submit(req Request) (*Ticket, error) {
	ticket := &Ticket{RequestID: req.ID, done: make(chan struct{})}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	select {
	case q.tasks <- queueTask{req: req, ticket: ticket}:
	default:
		q.mu.Unlock()
		return nil, ErrQueueFull
	}
	q.mu.Unlock()

	q.emit(Event{Type: EventAccepted, RequestID: req.ID})
	return ticket, nil
}

// Close stops accepting submissions and waits for in-flight work. Runs are
// never cancelled mid-flight; each completes or times out at the OCR
// stage.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.tasks)
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for task := range q.tasks {
		rec, err := q.pipeline.Process(context.Background(), task.req)
		task.ticket.rec = rec
		task.ticket.err = err
		close(task.ticket.done)
		if err != nil {
			slog.Error("Verification failed", "request_id", task.req.ID, "error", err)
			q.emit(Event{Type: EventFailed, RequestID: task.req.ID, Error: err.Error()})
			continue
		}
		q.emit(Event{
			Type:      EventCompleted,
			RequestID: task.req.ID,
			Category:  string(rec.Outcome.Category),
		})
	}
}

func (q *Queue) emit(ev Event) {
	q.mu.Lock()
	fn := q.observer
	q.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
