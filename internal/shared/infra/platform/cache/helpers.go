package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// asyncTimeout limita cada escritura en background.
const asyncTimeout = 200 * time.Millisecond

// Invalidate borra las claves antes de devolver el control y descarta los rellenos
// de lecturas que empezaron antes.
// Un fallo se registra pero no rompe la escritura que ya se confirmó en la base de datos.
func Invalidate(ctx context.Context, cache Cache, log *zap.Logger, keys ...string) {
	if cache == nil {
		return
	}
	for _, key := range keys {
		fills.invalidate(key)
		if err := cache.Delete(ctx, key); err != nil {
			log.Warn("Cache deletion failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}
}
