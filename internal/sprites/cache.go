// Package sprites proxies roster sprites from the game service and renders
// the darkened silhouettes shown for species not yet found.
package sprites

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const DefaultTTL = 10 * time.Minute

// Fetcher loads raw sprite bytes by file name.
type Fetcher interface {
	Sprite(ctx context.Context, file string) ([]byte, error)
}

// Image is a cached sprite body.
type Image struct {
	Data        []byte
	ContentType string
}

type entry struct {
	img     Image
	fetched time.Time
}

type Cache struct {
	fetch Fetcher
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// NewCache wraps f. A ttl of zero or less uses DefaultTTL.
func NewCache(f Fetcher, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		fetch:   f,
		ttl:     ttl,
		log:     logger.Named("sprites"),
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the sprite for file, darkened to a silhouette when locked.
func (c *Cache) Get(ctx context.Context, file string, locked bool) (Image, error) {
	key := file
	if locked {
		key = "locked:" + file
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetched) < c.ttl {
		return e.img, nil
	}

	raw, err := c.original(ctx, file)
	if err != nil {
		return Image{}, err
	}
	img := raw
	if locked {
		img, err = silhouette(raw.Data)
		if err != nil {
			return Image{}, fmt.Errorf("silhouette %s: %w", file, err)
		}
	}

	c.mu.Lock()
	c.entries[key] = entry{img: img, fetched: c.now()}
	c.mu.Unlock()
	return img, nil
}

func (c *Cache) original(ctx context.Context, file string) (Image, error) {
	c.mu.RLock()
	e, ok := c.entries[file]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.fetched) < c.ttl {
		return e.img, nil
	}

	data, err := c.fetch.Sprite(ctx, file)
	if err != nil {
		return Image{}, err
	}
	c.log.Debug("sprite fetched", zap.String("file", file), zap.Int("bytes", len(data)))
	img := Image{Data: data, ContentType: http.DetectContentType(data)}

	c.mu.Lock()
	c.entries[file] = entry{img: img, fetched: c.now()}
	c.mu.Unlock()
	return img, nil
}

// Purge drops expired entries and reports how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if c.now().Sub(e.fetched) >= c.ttl {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func silhouette(data []byte) (Image, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, err
	}
	dark := imaging.AdjustBrightness(imaging.Grayscale(src), -60)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dark, imaging.PNG); err != nil {
		return Image{}, err
	}
	return Image{Data: buf.Bytes(), ContentType: "image/png"}, nil
}
