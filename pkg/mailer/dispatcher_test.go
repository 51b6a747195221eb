package mailer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu   sync.Mutex
	jobs []EmailJob
	err  error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(EmailJob))
	return nil
}

func (p *fakePublisher) published() []EmailJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]EmailJob(nil), p.jobs...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDispatcher_PublishesEnqueuedJobs(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	d := NewDispatcher(pub, quietLogger(), 8)

	d.Enqueue(WelcomeJob("amy@example.com", "Amy Pond"))
	d.Enqueue(GoodbyeJob("rory@example.com", "Rory Williams"))
	d.Close()

	jobs := pub.published()
	require.Len(t, jobs, 2)
	assert.Equal(t, "amy@example.com", jobs[0].To)
	assert.Equal(t, "Welcome to the Task Manager, Amy!", jobs[0].Subject)
	assert.Equal(t, "rory@example.com", jobs[1].To)
	assert.Contains(t, jobs[1].Text, "sorry that you're leaving")
}

func TestDispatcher_NilIsSafe(t *testing.T) {
	t.Parallel()

	var d *Dispatcher
	d.Enqueue(EmailJob{To: "nobody@example.com"})
	d.Close()
}

func TestDispatcher_PublishFailureDoesNotStopDraining(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("broker down")}
	d := NewDispatcher(pub, quietLogger(), 4)

	d.Enqueue(EmailJob{To: "a@example.com"})
	d.Enqueue(EmailJob{To: "b@example.com"})
	d.Close() // must not deadlock on failures

	assert.Empty(t, pub.published())
}

func TestAccountJobs_UseFirstName(t *testing.T) {
	t.Parallel()

	j := WelcomeJob("x@example.com", "Ada Lovelace King")
	assert.Contains(t, j.Subject, "Ada")
	assert.NotContains(t, j.Subject, "Lovelace")

	j = GoodbyeJob("x@example.com", "Solo")
	assert.Contains(t, j.Subject, "Solo")
}
