package display

import (
	"sync"

	"github.com/google/uuid"

	"xorgcapture/internal/xorg"
)

// FrameUpdate is what a viewer's Feed receives: a snapshot of one
// layer's buffer plus the rectangle that changed since the previous
// update for that layer.
type FrameUpdate struct {
	Layer  string // "default" or "cursor"
	Rect   xorg.Rect
	Pix    []byte
	Width  int
	Height int
	Stride int
}

// CursorUpdate carries the cursor hotspot alongside the usual raster
// FrameUpdate for the cursor layer.
type CursorUpdate struct {
	HotspotX, HotspotY int
}

// viewer is one subscribed remote client. Feed is buffered and never
// blocks the producer: a lagging viewer simply misses intermediate
// frames, the same trade-off rfb.Conn.Feed makes.
type viewer struct {
	id   uuid.UUID
	feed chan FrameUpdate
}

// Display is the in-memory, multi-viewer framebuffer implementation of
// xorg.Display. It owns a default layer and a cursor layer, and fans
// out raw-context commits to every subscribed viewer.
type Display struct {
	mu       sync.RWMutex
	viewers  map[uuid.UUID]*viewer
	def      *memoryLayer
	cursor   *memoryLayer
	hotspotX int
	hotspotY int
}

// New constructs an empty Display with zero-sized layers; the frame
// loop resizes them on first tick.
func New() *Display {
	d := &Display{viewers: make(map[uuid.UUID]*viewer)}
	d.def = newMemoryLayer(func(r xorg.Rect) { d.broadcast("default", r) })
	d.cursor = newMemoryLayer(func(r xorg.Rect) { d.broadcast("cursor", r) })
	return d
}

func (d *Display) DefaultLayer() xorg.Layer { return d.def }
func (d *Display) CursorLayer() xorg.Layer  { return d.cursor }

func (d *Display) SetCursorHotspot(x, y int) {
	d.mu.Lock()
	d.hotspotX, d.hotspotY = x, y
	d.mu.Unlock()
}

// EndMouseFrame is a no-op beyond what CloseRaw already broadcast for
// the cursor layer; it exists so callers don't need to special-case
// "was this the cursor layer" — matches the distinct mouse/display
// frame-end hooks of the original display.
func (d *Display) EndMouseFrame() {}

// EndFrame is a no-op: the default layer's commit was already
// broadcast in memoryLayer.CloseRaw. The hook exists for parity with
// the cursor path's EndMouseFrame.
func (d *Display) EndFrame() {}

// Subscribe registers a new viewer and returns its id and feed. The
// feed is closed by Unsubscribe.
func (d *Display) Subscribe() (uuid.UUID, <-chan FrameUpdate) {
	id := uuid.New()
	v := &viewer{id: id, feed: make(chan FrameUpdate, 16)}

	d.mu.Lock()
	d.viewers[id] = v
	d.mu.Unlock()

	return id, v.feed
}

func (d *Display) Unsubscribe(id uuid.UUID) {
	d.mu.Lock()
	v, ok := d.viewers[id]
	if ok {
		delete(d.viewers, id)
	}
	d.mu.Unlock()

	if ok {
		close(v.feed)
	}
}

// broadcast snapshots the named layer and pushes it to every viewer,
// dropping the update for any viewer whose feed is full rather than
// blocking the producer.
func (d *Display) broadcast(layer string, rect xorg.Rect) {
	var l *memoryLayer
	if layer == "cursor" {
		l = d.cursor
	} else {
		l = d.def
	}
	pix, w, h, stride := l.snapshot()

	update := FrameUpdate{Layer: layer, Rect: rect, Pix: pix, Width: w, Height: h, Stride: stride}

	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, v := range d.viewers {
		select {
		case v.feed <- update:
		default:
			// Viewer is behind; it misses this update and catches up on
			// the next one, per the Feed channel's documented contract.
		}
	}
}

// HotspotSnapshot returns the most recently published cursor hotspot.
func (d *Display) HotspotSnapshot() (int, int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hotspotX, d.hotspotY
}
