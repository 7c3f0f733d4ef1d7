package queue

import (
	"context"

	"golang.org/x/sync/errgroup"

	"freight-reconciliation-service/pkg/logger"
)

// Handler processes one job. A returned error marks the job failed; the
// worker logs it and moves on rather than halting the pool.
type Handler func(ctx context.Context, job Job) error

// Worker drains a queue with a bounded pool of goroutines.
type Worker struct {
	queue       Queue
	handler     Handler
	concurrency int
	log         logger.Logger
}

// NewWorker creates a worker pool over the queue.
func NewWorker(q Queue, handler Handler, concurrency int, log logger.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 4
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Worker{
		queue:       q,
		handler:     handler,
		concurrency: concurrency,
		log:         log.WithComponent("queue.worker"),
	}
}

// Run consumes jobs until the context is cancelled. It returns nil on
// clean shutdown.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			for {
				job, err := w.queue.Dequeue(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					w.log.WithError(err).Error("dequeue failed")
					return err
				}

				log := w.log.WithFields(logger.Fields{
					"organization_id": job.OrganizationID,
					"document_id":     job.DocumentID,
					"attempts":        job.Attempts,
				})
				log.Info("processing document")

				if err := w.handler(ctx, job); err != nil {
					log.WithError(err).Error("document processing failed")
					continue
				}
				log.Info("document processed")
			}
		})
	}

	return g.Wait()
}
