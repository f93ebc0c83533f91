package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

// AsyncDispatcher delivers messages from a bounded queue on a single worker
// goroutine. Messages arriving while the queue is full are dropped.
type AsyncDispatcher struct {
	mailer Mailer
	logger *zap.Logger
	queue  chan VerificationMessage

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsyncDispatcher(mailer Mailer, logger *zap.Logger, size int) *AsyncDispatcher {
	d := &AsyncDispatcher{
		mailer: mailer,
		logger: logger,
		queue:  make(chan VerificationMessage, size),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *AsyncDispatcher) Dispatch(_ context.Context, msg VerificationMessage) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("dispatcher closed, dropping verification message", zap.String("email", msg.Email))
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("dispatch queue full, dropping verification message", zap.String("email", msg.Email))
	}
}

func (d *AsyncDispatcher) run() {
	defer close(d.done)

	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		start := time.Now()
		err := d.mailer.Send(ctx, msg)
		cancel()

		if err != nil {
			d.logger.Error("failed to deliver verification code",
				zap.String("email", msg.Email),
				zap.Error(err),
			)
			continue
		}

		d.logger.Info("verification code delivered",
			zap.String("email", msg.Email),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
}

// Close stops accepting messages, drains the queue and waits for the worker.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
}
