package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// fillTracker recuerda, para cada clave con lecturas en curso, cuándo se invalidó por última vez.
// Una lectura que empezó antes de esa invalidación no puede volver a rellenar la caché.
type fillTracker struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]*fillEntry
}

type fillEntry struct {
	mu            sync.Mutex // serializa el Set de un relleno con la invalidación de la clave
	readers       int
	invalidatedAt uint64
}

var fills = &fillTracker{entries: make(map[string]*fillEntry)}

// Ticket identifica una lectura de la base de datos destinada a rellenar una clave.
type Ticket struct {
	key   string
	at    uint64
	entry *fillEntry
}

// BeginFill se llama antes de leer de la base de datos. Cada ticket se cierra con
// AsyncCacheFill o con Done.
func BeginFill(key string) Ticket {
	fills.mu.Lock()
	defer fills.mu.Unlock()

	e, ok := fills.entries[key]
	if !ok {
		e = &fillEntry{}
		fills.entries[key] = e
	}
	e.readers++
	return Ticket{key: key, at: fills.seq, entry: e}
}

// At es el instante lógico en que empezó la lectura.
func (t Ticket) At() uint64 {
	return t.at
}

// InvalidatedAfter indica si la clave se invalidó después del instante lógico at.
func (t Ticket) InvalidatedAfter(at uint64) bool {
	t.entry.mu.Lock()
	defer t.entry.mu.Unlock()
	return t.entry.invalidatedAt > at
}

// Done libera el ticket sin rellenar la caché.
func (t Ticket) Done() {
	fills.mu.Lock()
	defer fills.mu.Unlock()

	t.entry.readers--
	if t.entry.readers == 0 && fills.entries[t.key] == t.entry {
		delete(fills.entries, t.key)
	}
}

func (f *fillTracker) invalidate(key string) {
	f.mu.Lock()
	f.seq++
	at := f.seq
	e := f.entries[key]
	f.mu.Unlock()

	if e == nil {
		return
	}
	e.mu.Lock()
	e.invalidatedAt = at
	e.mu.Unlock()
}

// AsyncCacheFill guarda en background el valor leído con el ticket, salvo que la clave
// se haya invalidado mientras la lectura estaba en curso. Cierra el ticket.
func AsyncCacheFill(cache Cache, t Ticket, value interface{}, ttl int, log *zap.Logger) {
	if cache == nil {
		t.Done()
		return
	}

	go func() {
		defer t.Done()

		cacheCtx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()

		t.entry.mu.Lock()
		defer t.entry.mu.Unlock()

		if t.entry.invalidatedAt > t.at {
			log.Debug("Cache fill skipped, key invalidated during read", zap.String("key", t.key))
			return
		}
		if err := cache.Set(cacheCtx, t.key, value, ttl); err != nil {
			log.Warn("Cache update failed",
				zap.String("key", t.key),
				zap.Error(err))
		}
	}()
}
