package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/cmoon/entity"
)

// Storage represents a storage interface for the engine.
type Storage interface {
	StoreReports(ctx context.Context, reports ...entity.Report) error
}

// storageManager buffers reports and flushes them on size or on interval.
// Note that you should never disable buffering and scheduled flushing together.
type storageManager struct {
	storage Storage
	logger  *slog.Logger
	buffer  []entity.Report
	mu      sync.Mutex
	wg      sync.WaitGroup

	// bufferMaxSize defines the maximum items that buffer holds before flushing.
	// Setting this to zero will disable size-triggered flushing.
	bufferMaxSize uint

	// flushInterval defines the interval at which buffer will be flushed.
	// Setting flushInterval to 0 will disable scheduled flushing.
	flushInterval time.Duration
}

func newStorageManager(logger *slog.Logger, storage Storage, bufferMaxSize uint, flushInterval time.Duration) *storageManager {
	return &storageManager{
		logger:        logger,
		storage:       storage,
		bufferMaxSize: bufferMaxSize,
		buffer:        make([]entity.Report, 0, bufferMaxSize),
		flushInterval: flushInterval,
	}
}

// run consumes reports until the channel is closed, then flushes what is left and waits
// for in-flight flushes. Once ctx is done it keeps draining reports, so the channel must
// be closed by its producers.
func (sm *storageManager) run(ctx context.Context, reports <-chan entity.Report) {
	var tick <-chan time.Time
	if sm.flushInterval > 0 {
		ticker := time.NewTicker(sm.flushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// The final flush must outlive a cancelled ctx.
	finalCtx := context.WithoutCancel(ctx)

	defer func() {
		sm.flush(finalCtx)
		sm.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			// Producers close reports once they observe the cancellation.
			for r := range reports {
				sm.add(finalCtx, r)
			}
			return
		case r, ok := <-reports:
			if !ok {
				return
			}
			sm.add(finalCtx, r)
		case <-tick:
			sm.flush(finalCtx)
		}
	}
}

func (sm *storageManager) flush(ctx context.Context) {
	var toFlush []entity.Report

	sm.mu.Lock()
	if len(sm.buffer) > 0 {
		toFlush = sm.buffer
		sm.buffer = make([]entity.Report, 0, sm.bufferMaxSize)
	}
	sm.mu.Unlock()

	if len(toFlush) > 0 {
		sm.store(ctx, toFlush)
	}
}

func (sm *storageManager) store(ctx context.Context, toFlush []entity.Report) {
	sm.wg.Go(func() {
		if err := sm.storage.StoreReports(ctx, toFlush...); err != nil {
			sm.logger.Error("failed to flush reports", "error", err)
			return
		}

		sm.logger.Debug("flushed reports successfully", "count", len(toFlush))
	})
}

func (sm *storageManager) add(ctx context.Context, reports ...entity.Report) {
	if len(reports) == 0 {
		return
	}

	var toFlush []entity.Report

	sm.mu.Lock()
	sm.buffer = append(sm.buffer, reports...)

	// Check if buffer reached flush size
	if sm.bufferMaxSize > 0 && uint(len(sm.buffer)) >= sm.bufferMaxSize {
		toFlush = sm.buffer
		sm.buffer = make([]entity.Report, 0, sm.bufferMaxSize)
	}
	sm.mu.Unlock()

	// Flush asynchronously if needed
	if toFlush != nil {
		sm.store(ctx, toFlush)
	}
}
