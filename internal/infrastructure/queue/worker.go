package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/makiti/market-api/internal/domain"
	"github.com/makiti/market-api/internal/observability"
	"github.com/makiti/market-api/pkg/logger"
)

// HandlerFunc procesa la carga útil de un tipo de trabajo.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Source origen de trabajos (RedisQueue en producción).
type Source interface {
	Dequeue(ctx context.Context, queue string, timeout time.Duration) (*Job, error)
	Requeue(ctx context.Context, queue string, job Job) error
}

// WorkerConfig parámetros del consumidor.
type WorkerConfig struct {
	Queue       string
	Concurrency int
	MaxAttempts int           // reintentos antes de descartar
	PollTimeout time.Duration // espera de BRPOP
	JobTimeout  time.Duration
}

// Worker consume una cola y despacha cada trabajo al handler registrado para su tipo.
type Worker struct {
	src      Source
	cfg      WorkerConfig
	handlers map[string]HandlerFunc
	log      *logger.Logger
}

// NewWorker aplica valores por defecto a cfg.
func NewWorker(src Source, cfg WorkerConfig, log *logger.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Worker{src: src, cfg: cfg, handlers: make(map[string]HandlerFunc), log: log.Component("worker")}
}

// Handle registra el handler de jobType.
func (w *Worker) Handle(jobType string, h HandlerFunc) {
	w.handlers[jobType] = h
}

// Run consume hasta que ctx se cancela.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Str("queue", w.cfg.Queue).Int("concurrency", w.cfg.Concurrency).Msg("worker iniciado")
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Concurrency; i++ {
		g.Go(func() error { return w.loop(ctx) })
	}
	err := g.Wait()
	w.log.Info().Msg("worker detenido")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) loop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		job, err := w.src.Dequeue(ctx, w.cfg.Queue, w.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error().Err(err).Msg("error leyendo la cola")
			if errors.Is(err, domain.ErrInvalidInput) {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}
		w.Process(ctx, *job)
	}
}

// Process ejecuta un trabajo; si falla y quedan intentos lo reencola.
func (w *Worker) Process(ctx context.Context, job Job) {
	log := w.log.Zerolog().With().Str("job_id", job.ID).Str("type", job.Type).Int("attempt", job.Attempts+1).Logger()

	h, ok := w.handlers[job.Type]
	if !ok {
		observability.JobsProcessed.WithLabelValues(job.Type, "unknown").Inc()
		log.Warn().Msg("tipo de trabajo sin handler, se descarta")
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	err := safeCall(jobCtx, h, job.Payload)
	cancel()
	if err == nil {
		observability.JobsProcessed.WithLabelValues(job.Type, "ok").Inc()
		log.Info().Msg("trabajo completado")
		return
	}

	if !retryable(err) || job.Attempts+1 >= w.cfg.MaxAttempts {
		observability.JobsProcessed.WithLabelValues(job.Type, "failed").Inc()
		log.Error().Err(err).Msg("trabajo fallido, se descarta")
		return
	}
	observability.JobsProcessed.WithLabelValues(job.Type, "retry").Inc()
	log.Warn().Err(err).Msg("trabajo fallido, se reintenta")
	if rqErr := w.src.Requeue(ctx, w.cfg.Queue, job); rqErr != nil {
		log.Error().Err(rqErr).Msg("no se pudo reencolar")
	}
}

// retryable los errores de entrada, decodificación o recurso inexistente no mejoran reintentando.
func retryable(err error) bool {
	return !errors.Is(err, domain.ErrInvalidInput) &&
		!errors.Is(err, domain.ErrDecode) &&
		!errors.Is(err, domain.ErrNotFound)
}

func safeCall(ctx context.Context, h HandlerFunc, payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic en handler: %v", r)
		}
	}()
	return h(ctx, payload)
}
