package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thisisjab/cmoon/entity"
)

type Config struct {
	Sources              []Source
	Processors           map[string]Processor
	Storage              Storage
	StorageFlushInterval time.Duration
	FilesBufferMaxSize   uint
	ReportsBufferMaxSize uint
	// StorageBufferMaxSize is the number of reports held before a flush. Zero disables
	// size-triggered flushing.
	StorageBufferMaxSize  uint
	ProcessorWorkersCount uint
}

// Engine wires sources, the processor worker pool and storage together.
type Engine struct {
	cfg            Config
	logger         *slog.Logger
	sources        map[string]Source
	storageManager *storageManager
}

func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	sources := make(map[string]Source, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources[s.Name()] = s
	}

	return &Engine{
		cfg:            cfg,
		logger:         logger,
		sources:        sources,
		storageManager: newStorageManager(logger, cfg.Storage, cfg.StorageBufferMaxSize, cfg.StorageFlushInterval)}, nil
}

func (c Config) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no sources are configured")
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if _, dup := seen[s.Name()]; dup {
			return fmt.Errorf("source `%s` is configured more than once", s.Name())
		}
		seen[s.Name()] = struct{}{}

		for _, pName := range s.ProcessorNames() {
			if _, ok := c.Processors[pName]; !ok {
				return fmt.Errorf("source `%s` uses unknown processor `%s`", s.Name(), pName)
			}
		}
	}

	if c.Storage == nil {
		return errors.New("no report storage is configured")
	}

	if c.StorageBufferMaxSize == 0 && c.StorageFlushInterval == 0 {
		return errors.New("storage buffer max size and storage flush interval cannot both be zero")
	}

	if c.FilesBufferMaxSize == 0 || c.ReportsBufferMaxSize == 0 {
		return errors.New("files and reports buffer max size cannot be zero")
	}

	if c.ProcessorWorkersCount == 0 {
		return errors.New("processor workers cannot be zero")
	}

	return nil
}

// Run blocks until every source is exhausted and all reports are stored, or until ctx
// is cancelled. Buffered reports are flushed in both cases.
func (e *Engine) Run(ctx context.Context) error {
	files := e.consumeFiles(ctx)
	reports := make(chan entity.Report, e.cfg.ReportsBufferMaxSize)

	pm := newProcessorManager(e.logger, e.sources, e.cfg.Processors, int(e.cfg.ProcessorWorkersCount))

	var wg sync.WaitGroup
	// Process manager handles fan-out pattern.
	wg.Go(func() {
		pm.run(ctx, files, reports)
		close(reports)
	})

	// Storage manager handles buffering, and periodic saves.
	e.storageManager.run(ctx, reports)
	wg.Wait()

	return ctx.Err()
}

func (e *Engine) consumeFiles(ctx context.Context) <-chan entity.SourceFile {
	files := make(chan entity.SourceFile, e.cfg.FilesBufferMaxSize)
	e.logger.Info("created incoming files channel.", "size", e.cfg.FilesBufferMaxSize)

	var sourceWg sync.WaitGroup

	// Spawn sources
	for n, s := range e.sources {
		sourceWg.Add(1)
		go func(name string, src Source) {
			defer sourceWg.Done()
			err := src.Provide(ctx, files)

			if err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error("source failed.", "name", name, "error", err)
			}
		}(n, s)
	}

	go func() {
		sourceWg.Wait()
		close(files)
	}()

	return files
}
