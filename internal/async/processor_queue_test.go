package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

type stubProcessor struct{}

func (stubProcessor) ProcessImage(_ context.Context, ref entity.ImageRef) (entity.Record, error) {
	if ref.URL == "bad" {
		return nil, errors.New("boom")
	}
	return &entity.MiscRecord{CategoryID: constants.CategoryMiscellaneous, Title: ref.URL}, nil
}

func TestProcessorQueueDrainsAllJobs(t *testing.T) {
	var mu sync.Mutex
	got := map[string]error{}
	q := NewProcessorQueue(stubProcessor{}, nil,
		WithWorkers(3),
		WithQueueSize(2),
		WithProcessTimeout(time.Second),
		WithResultHandler(func(j Job, r entity.ImageResult) {
			mu.Lock()
			defer mu.Unlock()
			got[j.Ref.URL] = r.Err
		}),
	)

	refs := []string{"a", "b", "bad", "c", "d", "e"}
	for _, u := range refs {
		if err := q.Enqueue(context.Background(), Job{Ref: entity.ImageRef{URL: u}}); err != nil {
			t.Fatalf("Enqueue(%s): %v", u, err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(refs) {
		t.Fatalf("handled %d jobs, want %d", len(got), len(refs))
	}
	if got["bad"] == nil {
		t.Error("expected failure for bad ref")
	}
	if got["a"] != nil {
		t.Errorf("unexpected error for a: %v", got["a"])
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	var q Queue = NewProcessorQueue(stubProcessor{}, nil, WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	if err := q.Enqueue(context.Background(), Job{Ref: entity.ImageRef{URL: "x"}}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}
