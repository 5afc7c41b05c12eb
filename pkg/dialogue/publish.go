package dialogue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/ports"
)

const (
	// DefaultPublishQueue is the queue size used when none is given.
	DefaultPublishQueue = 1024
	publishAttempts     = 3
	publishTimeout      = 5 * time.Second
)

// AsyncPublisher forwards answers to a publisher from a single background worker.
// Enqueue never blocks: answers are dropped when the queue is full.
type AsyncPublisher struct {
	next    ports.AnswerPublisher
	queue   chan domain.AnswerEvent
	logger  *slog.Logger
	backoff time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncPublisher starts the worker.
func NewAsyncPublisher(next ports.AnswerPublisher, size int, logger *slog.Logger) *AsyncPublisher {
	if size <= 0 {
		size = DefaultPublishQueue
	}
	p := &AsyncPublisher{
		next:    next,
		queue:   make(chan domain.AnswerEvent, size),
		logger:  logger,
		backoff: 100 * time.Millisecond,
		done:    make(chan struct{}),
	}
	go p.work()
	return p
}

// Enqueue queues an answer. It reports false when the answer was dropped.
func (p *AsyncPublisher) Enqueue(ev domain.AnswerEvent) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- ev:
		return true
	default:
		p.logger.Warn("Answer queue full, dropping answer", "addr", ev.Addr, "state", ev.State)
		return false
	}
}

// Close stops accepting answers and waits for the queue to drain.
func (p *AsyncPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	<-p.done
}

func (p *AsyncPublisher) work() {
	defer close(p.done)
	for ev := range p.queue {
		p.deliver(ev)
	}
}

func (p *AsyncPublisher) deliver(ev domain.AnswerEvent) {
	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err = p.next.Publish(ctx, ev)
		cancel()
		if err == nil {
			return
		}
		if attempt < publishAttempts {
			time.Sleep(p.backoff)
		}
	}
	p.logger.Error("Failed to publish answer",
		"addr", ev.Addr,
		"state", ev.State,
		"attempts", publishAttempts,
		"err", err,
	)
}
