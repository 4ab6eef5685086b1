package xorg

// CursorImage is a 32-bit ARGB cursor bitmap with its hotspot, as
// delivered by the fixes/cursor-notify extension.
type CursorImage struct {
	Width, Height int
	Hotspot       struct{ X, Y int }
	// Pix holds Width*Height premultiplied ARGB pixels, 4 bytes each,
	// already in the byte order the display layer expects — no
	// conversion kernel runs on cursor pixels.
	Pix []byte
}

// CursorSource subscribes to cursor-change notifications and fetches
// the current cursor bitmap on demand (C4). If the underlying extension
// is unavailable, an implementation should report Available() == false
// and the tracker becomes inert.
type CursorSource interface {
	Available() bool
	// PollDirty reports whether a cursor-notify event has arrived since
	// the last Ack, without clearing it — a failed Fetch must see the
	// same dirty cursor again next tick.
	PollDirty() bool
	// Fetch synchronously retrieves the current cursor image.
	Fetch() (*CursorImage, error)
	// Ack clears the dirty flag PollDirty reported. Called only after
	// the fetched cursor has been fully published.
	Ack()
	Close()
}

// CursorTracker drives a CursorSource against a Display's cursor layer
// once per frame-loop tick (C4's per-tick behaviour). The dirty flag is
// cleared only after a successful publish, so a failed Fetch retries
// next tick.
type CursorTracker struct {
	source CursorSource
}

// NewCursorTracker wraps source. A nil source (or one reporting
// Available() == false) makes the tracker permanently inert.
func NewCursorTracker(source CursorSource) *CursorTracker {
	return &CursorTracker{source: source}
}

// Tick polls for a dirty cursor and, if one is pending, fetches it and
// publishes it to disp's cursor layer: resize, row-copy, mark the whole
// rect dirty, publish hotspot, signal end-of-mouse-frame.
func (t *CursorTracker) Tick(disp Display) {
	if t == nil || t.source == nil || !t.source.Available() {
		return
	}
	if !t.source.PollDirty() {
		return
	}

	cursor, err := t.source.Fetch()
	if err != nil {
		// Leave dirty set so the next tick retries.
		return
	}

	layer := disp.CursorLayer()
	layer.Resize(cursor.Width, cursor.Height)

	ctx := layer.OpenRaw()
	for y := 0; y < cursor.Height; y++ {
		rowBytes := cursor.Width * bytesPerPixel
		srcOff := y * rowBytes
		dstOff := y * ctx.Stride
		copy(ctx.Buffer[dstOff:dstOff+rowBytes], cursor.Pix[srcOff:srcOff+rowBytes])
	}
	ctx.extendDirty(Rect{Left: 0, Top: 0, Right: cursor.Width, Bottom: cursor.Height})
	layer.CloseRaw(ctx)

	disp.SetCursorHotspot(cursor.Hotspot.X, cursor.Hotspot.Y)
	disp.EndMouseFrame()

	t.source.Ack()
}
