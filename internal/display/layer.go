// Package display is the downstream publishing side of the engine: an
// in-memory BGRX framebuffer per layer, and a set of viewer feeds that
// get non-blocking frame/cursor notifications the way rfb.Conn.Feed
// fans frames out to a lagging client without blocking the producer.
package display

import (
	"sync"

	"github.com/google/uuid"

	"xorgcapture/internal/xorg"
)

// memoryLayer is a BGRX framebuffer layer satisfying xorg.Layer.
// Resize reallocates the backing buffer; OpenRaw/CloseRaw bracket a
// single write, accumulating one dirty rect per bracket.
type memoryLayer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	buf    []byte

	onDirty func(xorg.Rect)
}

func newMemoryLayer(onDirty func(xorg.Rect)) *memoryLayer {
	return &memoryLayer{onDirty: onDirty}
}

func (l *memoryLayer) Resize(w, h int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == l.width && h == l.height {
		return
	}
	l.width, l.height = w, h
	l.stride = w * 4
	l.buf = make([]byte, l.stride*h)
}

func (l *memoryLayer) Bounds() xorg.Rect {
	l.mu.Lock()
	defer l.mu.Unlock()
	return xorg.Rect{Left: 0, Top: 0, Right: l.width, Bottom: l.height}
}

// OpenRaw hands out the layer's buffer for direct writing. The layer
// stays locked until CloseRaw — callers must not block between the two.
func (l *memoryLayer) OpenRaw() *xorg.RawContext {
	l.mu.Lock()
	return &xorg.RawContext{Buffer: l.buf, Stride: l.stride}
}

// CloseRaw releases the lock OpenRaw took before invoking onDirty, since
// onDirty fans out to Display.broadcast which calls back into snapshot
// and would otherwise deadlock on this same mutex.
func (l *memoryLayer) CloseRaw(ctx *xorg.RawContext) {
	dirty := ctx.Dirty
	l.mu.Unlock()
	if l.onDirty != nil && dirty != (xorg.Rect{}) {
		l.onDirty(dirty)
	}
}

// snapshot copies the current buffer contents out for a slow viewer
// feed, so the producer's next OpenRaw doesn't race a reader.
func (l *memoryLayer) snapshot() ([]byte, int, int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	buf := make([]byte, len(l.buf))
	copy(buf, l.buf)
	return buf, l.width, l.height, l.stride
}
