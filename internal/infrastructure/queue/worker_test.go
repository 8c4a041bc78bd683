package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/infrastructure/queue"
)

// fakeSource entrega los trabajos precargados y luego bloquea hasta que se cancela el contexto.
type fakeSource struct {
	mu       sync.Mutex
	jobs     []queue.Job
	requeued []queue.Job
}

func (f *fakeSource) Dequeue(ctx context.Context, _ string, timeout time.Duration) (*queue.Job, error) {
	f.mu.Lock()
	if len(f.jobs) > 0 {
		job := f.jobs[0]
		f.jobs = f.jobs[1:]
		f.mu.Unlock()
		return &job, nil
	}
	f.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, nil
	}
}

func (f *fakeSource) Requeue(_ context.Context, _ string, job queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.Attempts++
	f.requeued = append(f.requeued, job)
	return nil
}

func job(id, typ string) queue.Job {
	return queue.Job{ID: id, Type: typ, Payload: json.RawMessage(`{"product_id":"` + id + `"}`)}
}

func TestWorker_DespachaPorTipo(t *testing.T) {
	src := &fakeSource{jobs: []queue.Job{job("a", "image.import"), job("b", "image.import")}}
	w := queue.NewWorker(src, queue.WorkerConfig{Queue: "images", PollTimeout: 10 * time.Millisecond}, nil)

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})
	w.Handle("image.import", func(_ context.Context, payload json.RawMessage) error {
		var p struct {
			ProductID string `json:"product_id"`
		}
		assert.NoError(t, json.Unmarshal(payload, &p))
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, p.ProductID)
		if len(seen) == 2 {
			close(done)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("los trabajos no se procesaron")
	}
	cancel()
	assert.NoError(t, <-errCh)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Empty(t, src.requeued)
}

func TestWorker_ReintentaErroresTransitorios(t *testing.T) {
	src := &fakeSource{}
	w := queue.NewWorker(src, queue.WorkerConfig{Queue: "images", MaxAttempts: 3}, nil)
	w.Handle("image.import", func(context.Context, json.RawMessage) error {
		return fmt.Errorf("%w: minio caído", domain.ErrStorage)
	})

	w.Process(context.Background(), job("a", "image.import"))
	require.Len(t, src.requeued, 1)
	assert.Equal(t, 1, src.requeued[0].Attempts)

	// último intento: se descarta
	last := job("a", "image.import")
	last.Attempts = 2
	w.Process(context.Background(), last)
	assert.Len(t, src.requeued, 1)
}

func TestWorker_NoReintentaErroresPermanentes(t *testing.T) {
	for _, cause := range []error{domain.ErrDecode, domain.ErrNotFound, domain.ErrInvalidInput} {
		src := &fakeSource{}
		w := queue.NewWorker(src, queue.WorkerConfig{Queue: "images"}, nil)
		w.Handle("image.import", func(context.Context, json.RawMessage) error {
			return fmt.Errorf("fallo: %w", cause)
		})
		w.Process(context.Background(), job("a", "image.import"))
		assert.Empty(t, src.requeued, cause.Error())
	}
}

func TestWorker_TipoDesconocidoSeDescarta(t *testing.T) {
	src := &fakeSource{}
	w := queue.NewWorker(src, queue.WorkerConfig{Queue: "images"}, nil)
	w.Process(context.Background(), job("a", "otro"))
	assert.Empty(t, src.requeued)
}

func TestWorker_PanicEnHandlerSeReintenta(t *testing.T) {
	src := &fakeSource{}
	w := queue.NewWorker(src, queue.WorkerConfig{Queue: "images"}, nil)
	w.Handle("image.import", func(context.Context, json.RawMessage) error {
		panic(errors.New("boom"))
	})
	assert.NotPanics(t, func() { w.Process(context.Background(), job("a", "image.import")) })
	assert.Len(t, src.requeued, 1)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "queue:images", queue.Key("images"))
}
