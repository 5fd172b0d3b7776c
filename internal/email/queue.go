package email

import (
	"context"
	"sync"

	"servio_backend/internal/logger"
)

// Queue fans queued email jobs out to a pool of sender workers.
// Enqueue never blocks the caller: when the buffer is full the job is
// dropped with a warning. Delivery failures are logged and swallowed.
type Queue struct {
	jobs    chan Job
	workers int
	sender  Sender
	wg      sync.WaitGroup
}

func NewQueue(sender Sender, workers, size int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 64
	}
	return &Queue{
		jobs:    make(chan Job, size),
		workers: workers,
		sender:  sender,
	}
}

// Start launches the worker goroutines. Workers exit when the context is
// cancelled or the queue is stopped.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	log := logger.With("worker", "email", "id", id)
	log.Debug("email worker started")
	for {
		select {
		case job, ok := <-q.jobs:
			if !ok {
				log.Debug("email worker stopping: queue closed")
				return
			}
			q.process(job)
		case <-ctx.Done():
			log.Debug("email worker stopping: context cancelled")
			return
		}
	}
}

func (q *Queue) process(job Job) {
	mail, err := render(job.Template, job.ToName, job.Data)
	if err != nil {
		logger.Error("failed to render email", "template", job.Template, "to", job.To, "error", err)
		return
	}
	if err := q.sender.Send(job.To, job.ToName, mail.Subject, mail.Body); err != nil {
		logger.Error("failed to send email", "template", job.Template, "to", job.To, "error", err)
		return
	}
	logger.Debug("email sent", "template", job.Template, "to", job.To)
}

// EnqueueEmail queues an outbound email. Fire-and-forget.
func (q *Queue) EnqueueEmail(template, to, toName string, data map[string]any) {
	job := Job{Template: template, To: to, ToName: toName, Data: data}
	select {
	case q.jobs <- job:
	default:
		logger.Warn("email queue full, dropping job", "template", template, "to", to)
	}
}

// Stop closes the queue and waits for in-flight sends to finish.
func (q *Queue) Stop() {
	close(q.jobs)
	q.wg.Wait()
}
