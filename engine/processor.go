package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/thisisjab/cmoon/entity"
)

// Processor is one stage of the chain a source applies to each of its files.
type Processor interface {
	Process(report entity.Report) (entity.Report, error)
}

type processorManager struct {
	sources      map[string]Source
	processors   map[string]Processor
	logger       *slog.Logger
	workersCount int
	wg           sync.WaitGroup
}

func newProcessorManager(logger *slog.Logger, sources map[string]Source, processors map[string]Processor, workersCount int) *processorManager {
	return &processorManager{
		sources:      sources,
		processors:   processors,
		logger:       logger,
		workersCount: workersCount,
	}
}

func (pm *processorManager) run(ctx context.Context, files <-chan entity.SourceFile, results chan<- entity.Report) {
	spawnWorker := func(workerId int) {
		for {
			select {
			case <-ctx.Done():
				return
			case f, ok := <-files:
				if !ok {
					// The files channel is closed and empty. No more work.
					return
				}
				report := pm.processFile(f)

				pm.logger.Debug("processed file", "worker_id", workerId, "report_id", report.ID, "path", report.Path,
					"tokens", len(report.Tokens), "diagnostics", len(report.Diagnostics))

				select {
				case results <- report:
				case <-ctx.Done():
					// If we can't send because context is cancelled, exit.
					return
				}
			}
		}
	}

	for i := 0; i < pm.workersCount; i++ {
		pm.wg.Go(func() {
			spawnWorker(i)
		})
	}

	pm.wg.Wait()
}

func (pm *processorManager) processFile(f entity.SourceFile) entity.Report {
	report := entity.NewReport(f)
	report.ID = uuid.New()

	src, ok := pm.sources[f.Source]
	if !ok {
		pm.logger.Error("Source not found", "source", f.Source)
		return report
	}

	for _, pName := range src.ProcessorNames() {
		p := pm.processors[pName]
		if p == nil {
			pm.logger.Warn("Processor not found", "processor", pName)
			continue
		}

		processed, err := p.Process(report)
		if err != nil {
			pm.logger.Error("Failed to process file", "processor", pName, "path", f.Path, "error", err)
			continue
		}

		report = processed
	}

	return report
}
