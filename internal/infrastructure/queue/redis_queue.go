// Package queue cola de trabajos en segundo plano sobre listas de Redis.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/makiti/market-api/internal/application/ports"
	"github.com/makiti/market-api/internal/domain"
)

var _ ports.JobQueue = (*RedisQueue)(nil)

// keyPrefix prefijo de las listas en Redis (queue:<nombre>).
const keyPrefix = "queue:"

// Job sobre que viaja en la lista.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Attempts   int             `json:"attempts"`
}

// NewRedisClient abre el cliente desde una URL redis:// y verifica con PING.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping redis: %v", domain.ErrUnavailable, err)
	}
	return client, nil
}

// RedisQueue encola con LPUSH y desencola con BRPOP (FIFO).
type RedisQueue struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisQueue construye la cola sobre un cliente ya conectado.
func NewRedisQueue(client redis.Cmdable) *RedisQueue {
	return &RedisQueue{client: client, now: func() time.Time { return time.Now().UTC() }}
}

// Key nombre de la lista de Redis para queue.
func Key(queue string) string {
	return keyPrefix + queue
}

// Enqueue serializa payload y lo agrega a la cola. Devuelve el ID del trabajo.
func (q *RedisQueue) Enqueue(ctx context.Context, queue, jobType string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("serializar payload: %w", err)
	}
	job := Job{ID: uuid.New().String(), Type: jobType, Payload: raw, EnqueuedAt: q.now()}
	if err := q.push(ctx, queue, job); err != nil {
		return "", err
	}
	return job.ID, nil
}

// Requeue vuelve a encolar un trabajo incrementando Attempts.
func (q *RedisQueue) Requeue(ctx context.Context, queue string, job Job) error {
	job.Attempts++
	return q.push(ctx, queue, job)
}

func (q *RedisQueue) push(ctx context.Context, queue string, job Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("serializar trabajo: %w", err)
	}
	if err := q.client.LPush(ctx, Key(queue), b).Err(); err != nil {
		return fmt.Errorf("%w: lpush %s: %v", domain.ErrUnavailable, queue, err)
	}
	return nil
}

// Dequeue espera hasta timeout por un trabajo. Devuelve (nil, nil) si no llegó ninguno.
func (q *RedisQueue) Dequeue(ctx context.Context, queue string, timeout time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, timeout, Key(queue)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("brpop %s: %w", queue, err)
	}
	// res = [clave, valor]
	if len(res) != 2 {
		return nil, fmt.Errorf("brpop %s: respuesta inesperada %v", queue, res)
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("%w: trabajo malformado: %v", domain.ErrInvalidInput, err)
	}
	return &job, nil
}

// Len trabajos pendientes en la cola.
func (q *RedisQueue) Len(ctx context.Context, queue string) (int64, error) {
	return q.client.LLen(ctx, Key(queue)).Result()
}
