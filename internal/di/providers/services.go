package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/lectioapp/lectio-server/internal/config"
	"github.com/lectioapp/lectio-server/internal/logger"
	"github.com/lectioapp/lectio-server/internal/service"
	"github.com/lectioapp/lectio-server/internal/timingdata"
)

// ProvideTimingProvider provides the timing table provider backed by the store.
func ProvideTimingProvider(i do.Injector) (*timingdata.StoreProvider, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return timingdata.NewStoreProvider(storeHandle.Store, log.Logger), nil
}

// ProvideReadingService provides the reading service.
func ProvideReadingService(i do.Injector) (*service.ReadingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReadingService(storeHandle.Store, indexHandle.SearchIndex, sseHandle.Manager, log.Logger), nil
}

// HighlightServiceHandle wraps the highlight service with shutdown capability.
type HighlightServiceHandle struct {
	*service.HighlightService
}

// Shutdown implements do.Shutdownable.
func (h *HighlightServiceHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	h.HighlightService.Shutdown(ctx)
	return nil
}

// ProvideHighlightService provides the highlight session service.
func ProvideHighlightService(i do.Injector) (*HighlightServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	historyHandle := do.MustInvoke[*HistoryHandle](i)
	provider := do.MustInvoke[*timingdata.StoreProvider](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewHighlightService(storeHandle.Store, historyHandle.Store, provider, sseHandle.Manager, log.Logger)
	svc.SetDefaultTolerance(int64(cfg.Timing.DefaultToleranceMs))

	return &HighlightServiceHandle{HighlightService: svc}, nil
}

// TriggerReadingCleanupIfConfigured sweeps readings older than the
// configured retention window. A zero retention keeps everything. Should
// be called after all services are wired.
func TriggerReadingCleanupIfConfigured(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	readingService := do.MustInvoke[*service.ReadingService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Data.RetentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -cfg.Data.RetentionDays).Format("2006-01-02")

	go func() {
		deleted, err := readingService.CleanupOldReadings(context.Background(), cutoff)
		if err != nil {
			log.Error("Reading cleanup failed", "before", cutoff, "error", err)
			return
		}
		log.Info("Reading cleanup completed", "before", cutoff, "deleted", deleted)
	}()
}
