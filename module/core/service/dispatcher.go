package service

import (
	"context"
	"hash/fnv"
	"sync"

	"go.uber.org/zap"

	"github.com/chalosafe/safezone/module/core/domain"
)

type SampleHandler func(ctx context.Context, sample domain.Sample)

// Dispatcher spreads samples over a fixed set of workers. Every subject hashes
// to one worker, so a subject's samples keep their arrival order while
// different subjects are evaluated in parallel.
type Dispatcher struct {
	queues []chan domain.Sample
	handle SampleHandler
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(workers, buffer int, handle SampleHandler, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		queues: make([]chan domain.Sample, workers),
		handle: handle,
		logger: logger,
	}
	for i := range d.queues {
		d.queues[i] = make(chan domain.Sample, buffer)
	}
	return d
}

// Start launches the workers. They exit when Shutdown closes the queues.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(len(d.queues))
	for i := range d.queues {
		go d.worker(ctx, d.queues[i])
	}
	d.logger.Info("dispatcher started", zap.Int("workers", len(d.queues)))
}

// Submit queues sample on its subject's worker, blocking while that queue is
// full.
func (d *Dispatcher) Submit(sample domain.Sample) {
	d.queues[d.shard(sample.SubjectID)] <- sample
}

// Shutdown stops accepting work and waits for queued samples to drain.
func (d *Dispatcher) Shutdown() {
	for _, q := range d.queues {
		close(q)
	}
	d.wg.Wait()
	d.logger.Info("dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, queue <-chan domain.Sample) {
	defer d.wg.Done()
	for sample := range queue {
		d.handle(ctx, sample)
	}
}

func (d *Dispatcher) shard(subjectID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subjectID))
	return int(h.Sum32() % uint32(len(d.queues)))
}
