// Package queue decouples document intake from reconciliation. Intake
// enqueues one job per document; workers drain the queue and run the
// processing pipeline. A Redis-backed queue serves multi-process
// deployments and an in-process channel queue serves tests and the CLI's
// single-shot mode.
package queue

import (
	"context"
	"time"
)

// Job is one unit of reconciliation work: a document waiting to be
// processed for an organization.
type Job struct {
	OrganizationID string    `json:"organization_id"`
	DocumentID     string    `json:"document_id"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
	Attempts       int       `json:"attempts"`
}

// Queue is a FIFO job queue.
type Queue interface {
	// Enqueue appends a job to the queue.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available or the context is
	// cancelled; cancellation returns the context error.
	Dequeue(ctx context.Context) (Job, error)

	// Close releases the queue's resources.
	Close() error
}
