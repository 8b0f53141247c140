package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
)

// FileSweeper borra los ficheros que quedaron encolados al eliminar documentos o tareas.
type FileSweeper struct {
	repo      documentDomain.DocumentRepository
	blobs     documentDomain.BlobStorage
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

func NewFileSweeper(repo documentDomain.DocumentRepository, blobs documentDomain.BlobStorage, interval time.Duration, batchSize int, log *zap.Logger) *FileSweeper {
	return &FileSweeper{
		repo:      repo,
		blobs:     blobs,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Run hace polling hasta que se cancela el contexto.
func (w *FileSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🧹 File sweeper iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 File sweeper detenido")
			return nil
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep procesa un lote y devuelve cuántos ficheros quedaron limpios.
func (w *FileSweeper) Sweep(ctx context.Context) int {
	pending, err := w.repo.FetchPendingCleanups(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener ficheros pendientes", zap.Error(err))
		return 0
	}

	done := 0
	for _, c := range pending {
		if err := w.blobs.Remove(ctx, c.FilePath); err != nil {
			w.log.Warn("⚠️ No se pudo borrar fichero",
				zap.String("document_id", c.DocumentID.String()),
				zap.String("file", c.FilePath),
				zap.Error(err))
			continue
		}
		if err := w.repo.MarkCleanupDone(ctx, c.DocumentID); err != nil {
			w.log.Warn("⚠️ No se pudo marcar limpieza", zap.String("document_id", c.DocumentID.String()), zap.Error(err))
			continue
		}
		done++
	}
	return done
}
