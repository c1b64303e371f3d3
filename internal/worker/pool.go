package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueCacheInvalidation = "jobs:cache_invalidation"

	// PriceCachePrefix keys the public price-check cache entries.
	PriceCachePrefix = "price:"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// cacheInvalidationPayload names the product whose cached price entry
// must be purged.
type cacheInvalidationPayload struct {
	ProductCode string `json:"product_code"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueCacheInvalidation pushes a price-cache purge job. Callers treat
// failures as best effort — cache entries expire on TTL regardless.
func (d *Dispatcher) EnqueueCacheInvalidation(ctx context.Context, productCode string) error {
	if d.rdb == nil {
		return nil
	}
	return d.enqueue(ctx, QueueCacheInvalidation, "cache_invalidation",
		cacheInvalidationPayload{ProductCode: productCode})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the job
// queues. Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int) {
	queues := []string{QueueCacheInvalidation}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	switch job.Type {
	case "cache_invalidation":
		var p cacheInvalidationPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			log.Error().Err(err).Msg("bad cache_invalidation payload")
			return
		}
		if err := rdb.Del(ctx, PriceCachePrefix+p.ProductCode).Err(); err != nil {
			log.Error().Str("product_code", p.ProductCode).Err(err).Msg("cache purge failed")
			return
		}
		log.Debug().Str("product_code", p.ProductCode).Msg("price cache purged")
	default:
		log.Warn().Str("type", job.Type).Msg("unknown job type")
	}
}
