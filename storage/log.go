package storage

import (
	"context"
	"log/slog"

	"github.com/thisisjab/cmoon/entity"
)

// LogStorage writes reports through the logger instead of persisting them.
type LogStorage struct {
	logger *slog.Logger
}

func NewLogStorage(logger *slog.Logger) *LogStorage {
	return &LogStorage{logger: logger}
}

func (s *LogStorage) StoreReports(ctx context.Context, reports ...entity.Report) error {
	for _, r := range reports {
		attrs := []any{"id", r.ID, "source", r.Source, "path", r.Path, "tokens", len(r.Tokens)}

		if !r.Failed() && len(r.Diagnostics) == 0 {
			s.logger.InfoContext(ctx, "source file is clean.", attrs...)
			continue
		}

		level := slog.LevelWarn
		if r.Failed() {
			level = slog.LevelError
			attrs = append(attrs, "stage", r.Stage)
		}
		for _, d := range r.Diagnostics {
			s.logger.Log(ctx, level, d.Message, append(attrs, "code", d.Code, "line", d.Line)...)
		}
	}

	return nil
}
