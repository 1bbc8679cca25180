package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/atscore/internal/domain/model"
)

func job(id string) model.Job {
	return model.Job{ID: id, Resume: "resume " + id, JobDescription: "job", SubmittedAt: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Capacity(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}
	if err := q.Enqueue(ctx, job("a1")); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "a1" || got.Resume != "resume a1" {
		t.Errorf("unexpected job %+v", got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	_ = q.Enqueue(ctx, job("a1"))
	_ = q.Enqueue(ctx, job("a2"))
	if err := q.Enqueue(ctx, job("a3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.Enqueue(cctx, job("a4")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(50))
	ctx := context.Background()
	const producers, perProducer = 5, 100

	var consumed sync.Map
	var cwg sync.WaitGroup
	for range 3 {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for j := range q.Dequeue(ctx) {
				consumed.Store(j.ID, true)
			}
		}()
	}

	var pwg sync.WaitGroup
	for p := range producers {
		pwg.Add(1)
		go func(p int) {
			defer pwg.Done()
			for i := range perProducer {
				for q.Enqueue(ctx, job(fmt.Sprintf("p%d-%d", p, i))) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}
	pwg.Wait()
	_ = q.Close()
	cwg.Wait()

	n := 0
	consumed.Range(func(_, _ any) bool { n++; return true })
	if n != producers*perProducer {
		t.Errorf("expected %d consumed, got %d", producers*perProducer, n)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	_ = q.Enqueue(ctx, job("a1"))
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("expected close to succeed: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if err := q.Enqueue(ctx, job("a2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	ch := q.Dequeue(ctx)
	if j, ok := <-ch; !ok || j.ID != "a1" {
		t.Errorf("expected queued job to drain, got %+v %v", j, ok)
	}
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after draining")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("expected dequeue channel to close")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed: %v", err)
	}
}
