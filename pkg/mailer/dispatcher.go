package mailer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Publisher pushes a JSON message onto the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Dispatcher is a bounded best-effort bridge between request handlers and
// the email queue. Enqueue never blocks the caller: jobs go into a buffered
// channel and a single background goroutine publishes them. Publish failures
// and overflow drops are logged and never surface to the HTTP response.
type Dispatcher struct {
	jobs   chan EmailJob
	pub    Publisher
	logger *logrus.Logger
	done   chan struct{}
}

func NewDispatcher(pub Publisher, logger *logrus.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{
		jobs:   make(chan EmailJob, buffer),
		pub:    pub,
		logger: logger,
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue submits a job and returns immediately. A nil dispatcher and a full
// buffer are both treated as best-effort drops.
func (d *Dispatcher) Enqueue(job EmailJob) {
	if d == nil {
		return
	}
	select {
	case d.jobs <- job:
	default:
		d.logger.WithField("to", job.To).Warn("email dispatch buffer full, dropping job")
	}
}

// Close stops accepting jobs and waits for the publisher goroutine to drain.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	close(d.jobs)
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.pub.PublishJSON(ctx, job); err != nil {
			d.logger.WithError(err).WithField("to", job.To).Warn("email publish failed")
		}
		cancel()
	}
}
