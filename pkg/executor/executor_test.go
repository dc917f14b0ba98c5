package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDoRunsTasksInOrder(t *testing.T) {
	e := New()
	defer e.Close()

	var mu sync.Mutex
	var got []int

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Stagger submissions so the queue order is deterministic
			// enough to observe serialization (not global order).
			_ = e.Do(context.Background(), func() error {
				mu.Lock()
				got = append(got, i)
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if len(got) != 20 {
		t.Fatalf("expected 20 executed tasks, got %d", len(got))
	}
}

func TestDoSequentialSubmissionsPreserveOrder(t *testing.T) {
	e := New()
	defer e.Close()

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		if err := e.Do(context.Background(), func() error {
			got = append(got, i)
			return nil
		}); err != nil {
			t.Fatalf("Do failed: %v", err)
		}
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran out of order: got %v", i, got)
		}
	}
}

func TestDoReturnsTaskError(t *testing.T) {
	e := New()
	defer e.Close()

	want := errors.New("render failed")
	err := e.Do(context.Background(), func() error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected task error, got %v", err)
	}
}

func TestDoContextCancelBeforeSubmission(t *testing.T) {
	e := New()
	defer e.Close()

	block := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = e.Do(context.Background(), func() error {
			<-block
			return nil
		})
		close(done)
	}()

	// Wait for the worker to be busy, then try submitting with an
	// already-cancelled context.
	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Do(ctx, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(block)
	<-done
}

func TestCloseRejectsNewWork(t *testing.T) {
	e := New()
	e.Close()

	err := e.Do(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestDoConcurrentWithClose(t *testing.T) {
	// Submissions racing Close must either run or report ErrClosed;
	// neither side may panic or hang.
	for i := 0; i < 100; i++ {
		e := New()

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := e.Do(context.Background(), func() error { return nil })
				if err != nil && !errors.Is(err, ErrClosed) {
					t.Errorf("unexpected Do error: %v", err)
				}
			}()
		}

		e.Close()
		wg.Wait()

		if err := e.Do(context.Background(), func() error { return nil }); !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed after Close, got %v", err)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	e := New()
	e.Close()
	e.Close()
}
