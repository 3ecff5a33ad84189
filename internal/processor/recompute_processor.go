package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"proptracker/server/config"
	"proptracker/server/internal/engine"
	"proptracker/server/internal/queue"
	"proptracker/server/internal/recompute"
)

// Recomputer is the orchestrator entry point the processor drives
type Recomputer interface {
	RecomputeProperty(ctx context.Context, id int64) (engine.Metrics, error)
}

// RecomputeProcessor handles queued recompute requests
type RecomputeProcessor struct {
	recomputer Recomputer
	logger     *logrus.Logger
	config     *config.Config
	queue      *queue.RecomputeQueue
	ctx        context.Context
	cancel     context.CancelFunc
	once       sync.Once
}

// NewRecomputeProcessor creates a new processor instance
func NewRecomputeProcessor(recomputer Recomputer, queue *queue.RecomputeQueue, config *config.Config, logger *logrus.Logger) *RecomputeProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RecomputeProcessor{
		recomputer: recomputer,
		queue:      queue,
		config:     config,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes the processor to the queue
func (p *RecomputeProcessor) Start() {
	p.once.Do(func() {
		p.queue.Subscribe(p.processBatch)
	})
}

// Stop aborts pending retries; the batch in flight finishes its current items
func (p *RecomputeProcessor) Stop() {
	p.cancel()
}

// processBatch recomputes a batch of properties with ProcessorCount workers
func (p *RecomputeProcessor) processBatch(ids []int64) error {
	workers := p.config.BatchProcessing.ProcessorCount
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int64)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := p.processProperty(id); err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	if failed > 0 {
		return fmt.Errorf("failed to recompute %d of %d properties", failed, len(ids))
	}
	p.logger.Infof("Successfully recomputed batch of %d properties", len(ids))
	return nil
}

// processProperty recomputes one property, retrying failed write-backs.
// Other failures are not transient and are returned at once.
func (p *RecomputeProcessor) processProperty(id int64) error {
	log := p.logger.WithField("property_id", id)
	maxRetries := p.config.BatchProcessing.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second

	var err error
	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			log.Infof("Retrying recompute, attempt %d of %d", attempt, maxRetries)
			select {
			case <-time.After(delay):
			case <-p.ctx.Done():
				return p.ctx.Err()
			}
		}

		attempts++
		_, err = p.recomputer.RecomputeProperty(p.ctx, id)
		if err == nil {
			return nil
		}

		var pe *recompute.PersistenceError
		if !errors.As(err, &pe) {
			log.WithError(err).Warn("Skipping property")
			return err
		}
		log.WithError(err).Error("Recompute write-back failed")
	}

	return fmt.Errorf("failed to recompute property %d after %d attempts: %w", id, attempts, err)
}
