package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one screenshot waiting to be triaged.
type Job struct {
	Ref         entity.ImageRef
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
