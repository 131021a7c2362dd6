// Package watcher monitors the timing-data drop directory and loads new or
// updated timing tables into the store. The alignment pipeline delivers one
// JSON file per reading; dropping a file into the directory is the whole
// ingestion protocol.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lectioapp/lectio-server/internal/timingdata"
)

// Loader receives validated raw tables as files land.
type Loader interface {
	LoadTimingTable(ctx context.Context, raw *timingdata.RawTable) error
}

// Watcher tails a directory for *.json timing files.
type Watcher struct {
	dir      string
	loader   Loader
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir. The directory must exist.
func New(dir string, loader Loader, logger *slog.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat timing dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("timing path %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch timing dir: %w", err)
	}

	return &Watcher{
		dir:      dir,
		loader:   loader,
		logger:   logger,
		fsw:      fsw,
		debounce: 500 * time.Millisecond,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// LoadExisting ingests every timing file already present in the directory.
// Called once at startup before Start so a server restart picks up files
// delivered while it was down.
func (w *Watcher) LoadExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read timing dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !isTimingFile(e.Name()) {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, e.Name()))
	}
	return nil
}

// Start consumes filesystem events until the context is canceled. Blocking;
// run in a goroutine.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.Info("timing data watcher started", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.drainTimers()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isTimingFile(event.Name) {
				continue
			}
			// Debounce: alignment output is written in chunks, wait
			// for the file to settle before parsing it.
			w.schedule(ctx, event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("timing data watcher error", "error", err)
		}
	}
}

// Close releases the filesystem watch.
func (w *Watcher) Close() error {
	w.drainTimers()
	return w.fsw.Close()
}

// schedule arms (or re-arms) the debounce timer for one path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
}

func (w *Watcher) drainTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// ingest parses one timing file and hands it to the loader. A broken file
// is logged and skipped; it never takes the watcher down.
func (w *Watcher) ingest(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		w.logger.Error("failed to open timing file", "path", path, "error", err)
		return
	}
	defer f.Close()

	raw, err := timingdata.DecodeRaw(f)
	if err != nil {
		w.logger.Error("rejected timing file", "path", path, "error", err)
		return
	}

	if err := w.loader.LoadTimingTable(ctx, raw); err != nil {
		w.logger.Error("failed to load timing table",
			"path", path,
			"reading_id", raw.ReadingID,
			"error", err)
		return
	}

	w.logger.Info("timing table ingested",
		"path", path,
		"reading_id", raw.ReadingID,
		"reading_type", raw.ReadingType,
		"words", len(raw.Words))
}

func isTimingFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
