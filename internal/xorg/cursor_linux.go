//go:build linux

package xorg

/*
#cgo pkg-config: x11 xext xfixes xtst xdamage
#include <X11/Xlib.h>
#include <X11/extensions/Xfixes.h>
#include <stdlib.h>

static XFixesCursorImage* xorg_get_cursor_image(Display *d) {
	return XFixesGetCursorImage(d);
}

static void xorg_free_cursor_image(XFixesCursorImage *c) {
	XFree(c);
}
*/
import "C"

import (
	"errors"
	"unsafe"
)

// pollCursorDirtyLocked reports the dirty bit set by drainEvents when a
// cursor-notify event arrived, without clearing it. Must be called with
// the lock held.
func (x *x11Display) pollCursorDirtyLocked() bool {
	if !x.xfixesAvailable {
		return false
	}
	return x.cursorDirty
}

// ackCursorDirtyLocked clears the dirty bit once its cursor image has
// been fetched and fully published. Must be called with the lock held.
func (x *x11Display) ackCursorDirtyLocked() {
	x.cursorDirty = false
}

// fetchCursorLocked retrieves the current cursor image via
// XFixesGetCursorImage. Must be called with the lock held.
func (x *x11Display) fetchCursorLocked() (*CursorImage, error) {
	if !x.xfixesAvailable {
		return nil, errors.New("XFixes unavailable")
	}

	c := C.xorg_get_cursor_image(x.dpy)
	if c == nil {
		return nil, newError(KindCapture, "XFixesGetCursorImage", errors.New("XFixesGetCursorImage returned NULL"))
	}
	defer C.xorg_free_cursor_image(c)

	width := int(c.width)
	height := int(c.height)

	// XFixesCursorImage.pixels is an array of "unsigned long" ARGB
	// values (upper 32 bits unused on LP64), one per pixel; repack into
	// tightly-packed 4-byte-per-pixel ARGB the display layer expects.
	n := width * height
	longs := (*[1 << 28]C.ulong)(unsafe.Pointer(c.pixels))[:n:n]
	pix := make([]byte, n*4)
	for i, v := range longs {
		pix[i*4+0] = byte(v)
		pix[i*4+1] = byte(v >> 8)
		pix[i*4+2] = byte(v >> 16)
		pix[i*4+3] = byte(v >> 24)
	}

	img := &CursorImage{Width: width, Height: height, Pix: pix}
	img.Hotspot.X = int(c.xhot)
	img.Hotspot.Y = int(c.yhot)
	return img, nil
}

// xCursorSource adapts x11Display to the CursorSource interface. Every
// method takes the connection lock itself since the tracker calls it
// outside of the frame loop's own locked sections.
type xCursorSource struct{ x *x11Display }

func (c xCursorSource) Available() bool {
	c.x.lock()
	defer c.x.unlock()
	return c.x.xfixesAvailable
}

func (c xCursorSource) PollDirty() bool {
	c.x.lock()
	defer c.x.unlock()
	return c.x.pollCursorDirtyLocked()
}

func (c xCursorSource) Fetch() (*CursorImage, error) {
	c.x.lock()
	defer c.x.unlock()
	return c.x.fetchCursorLocked()
}

func (c xCursorSource) Ack() {
	c.x.lock()
	defer c.x.unlock()
	c.x.ackCursorDirtyLocked()
}

func (c xCursorSource) Close() {}
