package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/lectioapp/lectio-server/internal/config"
	"github.com/lectioapp/lectio-server/internal/logger"
	"github.com/lectioapp/lectio-server/internal/service"
	"github.com/lectioapp/lectio-server/internal/timingdata/watcher"
)

// TimingWatcherHandle wraps the timing-file watcher with lifecycle management.
// The watcher is nil when no watch path is configured.
type TimingWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *TimingWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Close()
}

// ProvideTimingWatcher provides the timing-data directory watcher.
// Ingests files already present, then tails the directory for new drops.
func ProvideTimingWatcher(i do.Injector) (*TimingWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Timing.WatchPath == "" {
		log.Info("No timing watch path configured, directory ingest disabled")
		return &TimingWatcherHandle{}, nil
	}

	readingService := do.MustInvoke[*service.ReadingService](i)

	w, err := watcher.New(cfg.Timing.WatchPath, readingService, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := w.LoadExisting(ctx); err != nil {
		log.Warn("Failed to load existing timing files", "error", err)
	}

	go w.Start(ctx)

	log.Info("Timing watcher started", "path", cfg.Timing.WatchPath)

	return &TimingWatcherHandle{Watcher: w, cancel: cancel}, nil
}
