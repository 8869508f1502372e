package sprites

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	data  []byte
	err   error
}

func (f *countingFetcher) Sprite(_ context.Context, file string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[file]++
	return f.data, f.err
}

func (f *countingFetcher) count(file string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[file]
}

func redPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestCache_FetchesOnceWithinTTL(t *testing.T) {
	f := &countingFetcher{data: redPNG(t)}
	c := NewCache(f, time.Minute, nil)

	img, err := c.Get(context.Background(), "pikachu.png", false)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, f.data, img.Data)

	_, err = c.Get(context.Background(), "pikachu.png", false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count("pikachu.png"))
}

func TestCache_RefetchesAfterExpiry(t *testing.T) {
	f := &countingFetcher{data: redPNG(t)}
	c := NewCache(f, time.Minute, nil)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	_, err := c.Get(context.Background(), "a.png", false)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, c.Purge())
	_, err = c.Get(context.Background(), "a.png", false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.count("a.png"))
}

func TestCache_LockedIsGrayscale(t *testing.T) {
	f := &countingFetcher{data: redPNG(t)}
	c := NewCache(f, time.Minute, nil)

	img, err := c.Get(context.Background(), "a.png", true)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)

	decoded, err := imaging.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(1, 1).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)

	// the unlocked original is reused for the silhouette
	_, err = c.Get(context.Background(), "a.png", false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count("a.png"))
}

func TestCache_Errors(t *testing.T) {
	boom := errors.New("boom")
	c := NewCache(&countingFetcher{err: boom}, 0, nil)
	_, err := c.Get(context.Background(), "a.png", false)
	assert.ErrorIs(t, err, boom)

	c = NewCache(&countingFetcher{data: []byte("not an image")}, 0, nil)
	_, err = c.Get(context.Background(), "a.png", true)
	assert.ErrorContains(t, err, "silhouette a.png")
}
