package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func hasKey(c Cache, key string) bool {
	var v cachedThing
	hit, err := c.Get(context.Background(), key, &v)
	return err == nil && hit
}

func TestAsyncCacheFill_StoresValueWhenNotInvalidated(t *testing.T) {
	// Arrange
	c := NewInMemoryCache(time.Minute, 0)
	defer c.Stop()
	ticket := BeginFill("fill:ok")

	// Act
	AsyncCacheFill(c, ticket, cachedThing{Name: "leído"}, 0, zap.NewNop())

	// Assert
	assert.Eventually(t, func() bool { return hasKey(c, "fill:ok") }, time.Second, 5*time.Millisecond)
}

func TestAsyncCacheFill_SkipsReadStartedBeforeInvalidation(t *testing.T) {
	// Arrange: la lectura empieza, una escritura invalida la clave y después llega el relleno
	c := NewInMemoryCache(time.Minute, 0)
	defer c.Stop()
	ctx := context.Background()
	ticket := BeginFill("fill:stale")
	Invalidate(ctx, c, zap.NewNop(), "fill:stale")

	// Act
	AsyncCacheFill(c, ticket, cachedThing{Name: "viejo"}, 0, zap.NewNop())

	// Assert
	assert.Never(t, func() bool { return hasKey(c, "fill:stale") }, 100*time.Millisecond, 5*time.Millisecond)
	assert.True(t, ticket.InvalidatedAfter(ticket.At()))
}

func TestBeginFill_AfterInvalidationIsNotStale(t *testing.T) {
	c := NewInMemoryCache(time.Minute, 0)
	defer c.Stop()
	ctx := context.Background()

	before := BeginFill("fill:order")
	Invalidate(ctx, c, zap.NewNop(), "fill:order")
	after := BeginFill("fill:order")

	assert.True(t, after.InvalidatedAfter(before.At()))
	assert.False(t, after.InvalidatedAfter(after.At()))

	before.Done()
	after.Done()
	fills.mu.Lock()
	_, tracked := fills.entries["fill:order"]
	fills.mu.Unlock()
	require.False(t, tracked, "sin lecturas en curso la clave deja de seguirse")
}
