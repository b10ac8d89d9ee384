package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/jackzampolin/folio/internal/document"
)

// ParseFunc turns file bytes into a document.
type ParseFunc func(data []byte) (*document.Node, error)

// FileWatcher feeds the contents of a local file into a Coordinator each
// time the file changes. The parent directory is watched so editors that
// save by renaming a temp file over the original are seen too.
type FileWatcher struct {
	path   string
	title  func() string
	parse  ParseFunc
	coord  *Coordinator
	logger *slog.Logger
}

// NewFileWatcher watches path for coord. title supplies the title recorded
// with each edit.
func NewFileWatcher(path string, title func() string, parse ParseFunc, coord *Coordinator, logger *slog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{path: abs, title: title, parse: parse, coord: coord, logger: logger}, nil
}

// Run watches until ctx is done. Unparsable intermediate states are logged
// and skipped.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.Load()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "path", w.path, "error", err)
		}
	}
}

// Load reads the file once and records it as an edit.
func (w *FileWatcher) Load() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("failed to read file", "path", w.path, "error", err)
		return
	}
	doc, err := w.parse(data)
	if err != nil {
		w.logger.Warn("skipping unparsable file", "path", w.path, "error", err)
		return
	}
	w.coord.Update(w.title(), doc)
}
