package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/thisisjab/cmoon/entity"
)

// readFile reads the whole file; tokenization never starts on a partial buffer.
func readFile(sourceName, path string) (entity.SourceFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return entity.SourceFile{}, fmt.Errorf("cannot read source file: %w", err)
	}

	return entity.SourceFile{
		Source:  sourceName,
		Path:    path,
		Content: content,
		ReadAt:  time.Now(),
	}, nil
}

func send(ctx context.Context, fileChan chan<- entity.SourceFile, f entity.SourceFile) error {
	select {
	case fileChan <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
