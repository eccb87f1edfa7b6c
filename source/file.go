package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/thisisjab/cmoon/entity"
)

type FileSourceConfig struct {
	Name           string   `yaml:"-"`
	ProcessorNames []string `yaml:"-"`
	Paths          []string `yaml:"paths"`
	// Watch keeps the source running and re-emits a file each time it is written.
	Watch bool `yaml:"watch"`
}

// FileSource emits every configured file once, read whole. In watch mode it then keeps
// re-emitting files as they change until the context is cancelled.
type FileSource struct {
	cfg    FileSourceConfig
	logger *slog.Logger
}

func NewFileSource(logger *slog.Logger, cfg FileSourceConfig) (*FileSource, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("file source needs at least one path")
	}

	return &FileSource{cfg: cfg, logger: logger}, nil
}

func (f *FileSource) Name() string {
	return f.cfg.Name
}

func (f *FileSource) ProcessorNames() []string {
	return f.cfg.ProcessorNames
}

func (f *FileSource) Provide(ctx context.Context, fileChan chan<- entity.SourceFile) error {
	for _, path := range f.cfg.Paths {
		sf, err := readFile(f.cfg.Name, path)
		if err != nil {
			return err
		}
		if err := send(ctx, fileChan, sf); err != nil {
			return err
		}
	}

	if !f.cfg.Watch {
		return nil
	}

	return f.watch(ctx, fileChan)
}

func (f *FileSource) watch(ctx context.Context, fileChan chan<- entity.SourceFile) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directories rather than the files: editors that save by
	// writing a new file and renaming it would otherwise drop the watch.
	watched := make(map[string]string, len(f.cfg.Paths))
	dirs := make(map[string]struct{})
	for _, p := range f.cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("cannot resolve path %s: %w", p, err)
		}
		watched[abs] = p
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("cannot add directory to watcher: %w", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				f.logger.Debug("fsnotify watcher channel is closed.")
				return nil
			}

			path, tracked := watched[filepath.Clean(event.Name)]
			if !tracked {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				f.logger.Debug("Received unhandled event from fsnotify.", "event", event.String())
				continue
			}

			sf, err := readFile(f.cfg.Name, path)
			if err != nil {
				// The file may be mid-rename; the next event will pick it up.
				f.logger.Warn("cannot re-read watched file.", "path", path, "error", err)
				continue
			}
			if err := send(ctx, fileChan, sf); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
