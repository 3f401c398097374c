package encoder

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL bounds how long a cached artifact is served even when no
// record change was observed.
const DefaultTTL = time.Hour

// ProduceFunc builds a fresh rendered artifact from the current record state.
type ProduceFunc func(ctx context.Context) ([]byte, error)

// Cache serves rendered artifacts, recomputing only when the record changed
// or the entry aged past its TTL. Invalidation is synchronous: once
// Invalidate returns, no subsequent read serves the pre-invalidation bytes.
type Cache struct {
	produce ProduceFunc
	writer  ArtifactWriter
	ttl     time.Duration
	logger  zerolog.Logger
	now     func() time.Time

	epoch uint64

	mu         sync.Mutex
	artifact   []byte
	producedAt time.Time
	cachedAt   uint64

	group singleflight.Group
}

// NewCache returns a cache over produce. writer may be nil to skip the
// on-disk copy.
func NewCache(produce ProduceFunc, writer ArtifactWriter, ttl time.Duration, logger zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		produce: produce,
		writer:  writer,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Invalidate marks the cached artifact stale. Called from record mutation
// hooks before the mutation call returns to its caller.
func (c *Cache) Invalidate() {
	atomic.AddUint64(&c.epoch, 1)
}

// Get returns the current artifact, recomputing if the cache is stale.
// Concurrent readers of a stale cache share one recompute.
func (c *Cache) Get(ctx context.Context) ([]byte, error) {
	epoch := atomic.LoadUint64(&c.epoch)

	c.mu.Lock()
	if c.artifact != nil && c.cachedAt == epoch && c.now().Sub(c.producedAt) < c.ttl {
		out := c.artifact
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	// Keyed by epoch so a recompute for a superseded epoch never blocks
	// readers that already observed a newer invalidation.
	v, err, _ := c.group.Do(strconv.FormatUint(epoch, 10), func() (interface{}, error) {
		data, err := c.produce(ctx)
		if err != nil {
			return nil, err
		}

		producedAt := c.now()
		c.mu.Lock()
		// A newer epoch may have landed while producing; keep the bytes for
		// this response but do not let them mask the fresher state.
		if atomic.LoadUint64(&c.epoch) == epoch {
			c.artifact = data
			c.producedAt = producedAt
			c.cachedAt = epoch
		}
		c.mu.Unlock()

		if c.writer != nil {
			if werr := c.writer.Write(data); werr != nil {
				c.logger.Warn().Err(werr).Msg("artifact write failed, serving from memory")
			}
		}
		return data, nil
	})
	if err != nil {
		return nil, fmt.Errorf("produce artifact: %w", err)
	}
	return v.([]byte), nil
}
