package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/makiti/market-api/internal/application/ports"
)

var _ ports.JobQueue = (*JobQueue)(nil)

// EnqueuedJob trabajo registrado por JobQueue.
type EnqueuedJob struct {
	ID      string
	Queue   string
	Type    string
	Payload json.RawMessage
}

// JobQueue cola en memoria que solo registra lo encolado.
type JobQueue struct {
	mu   sync.Mutex
	jobs []EnqueuedJob
}

// NewJobQueue crea una cola vacía.
func NewJobQueue() *JobQueue {
	return &JobQueue{}
}

func (q *JobQueue) Enqueue(_ context.Context, queue, jobType string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("serializar payload: %w", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	id := uuid.New().String()
	q.jobs = append(q.jobs, EnqueuedJob{ID: id, Queue: queue, Type: jobType, Payload: raw})
	return id, nil
}

// Jobs copia de los trabajos encolados.
func (q *JobQueue) Jobs() []EnqueuedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]EnqueuedJob(nil), q.jobs...)
}
