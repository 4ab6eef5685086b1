//go:build linux

package xorg

/*
#cgo pkg-config: x11 xext xfixes xtst xdamage
#include <X11/Xlib.h>
#include <X11/Xutil.h>
#include <X11/extensions/XShm.h>
#include <stdlib.h>
#include <string.h>

static int xorg_shm_error_flag = 0;
static XErrorHandler xorg_shm_prev_handler = NULL;

static int xorg_shm_error_handler(Display *d, XErrorEvent *e) {
	xorg_shm_error_flag = 1;
	return 0;
}

static void xorg_shm_install_handler(void) {
	xorg_shm_error_flag = 0;
	xorg_shm_prev_handler = XSetErrorHandler(xorg_shm_error_handler);
}

static int xorg_shm_restore_handler(void) {
	XSetErrorHandler(xorg_shm_prev_handler);
	xorg_shm_prev_handler = NULL;
	return xorg_shm_error_flag;
}

static XImage* xorg_shm_create_image(Display *d, int width, int height, XShmSegmentInfo *info) {
	int screen = DefaultScreen(d);
	Visual *visual = DefaultVisual(d, screen);
	int depth = DefaultDepth(d, screen);
	return XShmCreateImage(d, visual, depth, ZPixmap, NULL, info, width, height);
}

static int xorg_shm_attach(Display *d, XShmSegmentInfo *info) {
	return XShmAttach(d, info);
}

static void xorg_shm_detach(Display *d, XShmSegmentInfo *info) {
	XShmDetach(d, info);
}

static int xorg_shm_get_image(Display *d, Window root, XImage *image, int x, int y) {
	return XShmGetImage(d, root, image, x, y, AllPlanes);
}

static void xorg_set_shm_data(XImage *image, XShmSegmentInfo *info, char *addr) {
	info->shmaddr = addr;
	info->readOnly = False;
	image->data = addr;
}

static XImage* xorg_get_image(Display *d, Window root, int x, int y, int width, int height) {
	return XGetImage(d, root, x, y, width, height, AllPlanes, ZPixmap);
}

static void xorg_destroy_image(XImage *image) {
	XDestroyImage(image);
}

static int xorg_image_bpp(XImage *image) { return image->bits_per_pixel; }
static int xorg_image_bytes_per_line(XImage *image) { return image->bytes_per_line; }
static int xorg_image_byte_order(XImage *image) { return image->byte_order; }
static unsigned long xorg_image_red_mask(XImage *image) { return image->red_mask; }
static unsigned long xorg_image_green_mask(XImage *image) { return image->green_mask; }
static unsigned long xorg_image_blue_mask(XImage *image) { return image->blue_mask; }
static char* xorg_image_data(XImage *image) { return image->data; }
*/
import "C"

import (
	"errors"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// disableXSHM mirrors GUAC_XORG_DISABLE_XSHM: set to any non-empty
// value, MIT-SHM is never attempted even if the extension is present.
func disableXSHM() bool {
	return os.Getenv("GUAC_XORG_DISABLE_XSHM") != ""
}

// destroySHMLocked tears down the current SHM segment, if any. Must be
// called with the lock held.
func (x *x11Display) destroySHMLocked() {
	if x.shmImage != nil {
		if x.shmAttached {
			C.xorg_shm_detach(x.dpy, &x.shmInfo)
		}
		C.xorg_destroy_image(x.shmImage)
		x.shmImage = nil
	}
	if x.shmAttached {
		unix.SysvShmDetach(x.shmAddr)
		x.shmAttached = false
	}
	if x.shmID != 0 {
		unix.SysvShmCtl(x.shmID, unix.IPC_RMID, nil)
		x.shmID = 0
	}
	x.shmAddr = 0
	x.shmW, x.shmH = 0, 0
}

// prepareSHMLocked (re)allocates the SHM segment for width/height,
// reusing the existing one if the size hasn't changed. Must be called
// with the lock held. Mirrors guac_xorg_capture_prepare_shm.
func (x *x11Display) prepareSHMLocked(width, height int) error {
	if x.shmImage != nil && x.shmW == width && x.shmH == height {
		return nil
	}

	x.destroySHMLocked()

	img := C.xorg_shm_create_image(x.dpy, C.int(width), C.int(height), &x.shmInfo)
	if img == nil {
		return errors.New("XShmCreateImage failed")
	}

	size := int(img.bytes_per_line) * height
	id, err := unix.SysvShmGet(unix.IPC_PRIVATE, size, unix.IPC_CREAT|0600)
	if err != nil {
		C.xorg_destroy_image(img)
		return err
	}

	addr, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		unix.SysvShmCtl(id, unix.IPC_RMID, nil)
		C.xorg_destroy_image(img)
		return err
	}

	C.xorg_set_shm_data(img, &x.shmInfo, (*C.char)(unsafe.Pointer(addr)))

	C.xorg_shm_install_handler()
	ok := C.xorg_shm_attach(x.dpy, &x.shmInfo) != 0
	// XAttach errors arrive asynchronously; XSync forces them to land
	// before we decide whether the segment actually attached.
	x.syncLocked()
	hadError := C.xorg_shm_restore_handler() != 0

	if !ok || hadError {
		unix.SysvShmDetach(addr)
		unix.SysvShmCtl(id, unix.IPC_RMID, nil)
		C.xorg_destroy_image(img)
		x.shmImage = nil
		return errors.New("XShmAttach failed")
	}

	x.shmImage = img
	x.shmID = id
	x.shmAddr = addr
	x.shmAttached = true
	x.shmW, x.shmH = width, height
	return nil
}

func (x *x11Display) syncLocked() {
	C.XSync(x.dpy, C.False)
}

// acquireLocked captures rect via the SHM fast path, falling back to
// XGetImage (and permanently disabling SHM) on any SHM failure. Must be
// called with the lock held.
func (x *x11Display) acquireLocked(rect Rect) (*Image, Ownership, error) {
	w, h := rect.Width(), rect.Height()

	if x.shmAvailable {
		if err := x.prepareSHMLocked(w, h); err != nil {
			x.log.Printf("xorg: MIT-SHM setup failed, falling back to XGetImage: %v", err)
			x.shmAvailable = false
			x.destroySHMLocked()
		} else {
			C.xorg_shm_install_handler()
			ok := C.xorg_shm_get_image(x.dpy, x.root, x.shmImage, C.int(rect.Left), C.int(rect.Top)) != 0
			x.syncLocked()
			hadError := C.xorg_shm_restore_handler() != 0

			if ok && !hadError {
				img := shmToImage(x.shmImage, w, h)
				return img, Borrowed, nil
			}

			x.log.Printf("xorg: XShmGetImage failed, falling back to XGetImage")
			x.shmAvailable = false
			x.destroySHMLocked()
		}
	}

	cimg := C.xorg_get_image(x.dpy, x.root, C.int(rect.Left), C.int(rect.Top), C.int(w), C.int(h))
	if cimg == nil {
		return nil, Borrowed, newError(KindCapture, "XGetImage", errors.New("XGetImage returned NULL"))
	}

	img := ximageToImage(cimg, w, h)
	return img, Owned, nil
}

// releaseLocked disposes of an Owned image captured via XGetImage. Its
// Pix was already copied out of the XImage by ximageToImage, and the
// XImage itself destroyed there, so there is nothing left to free here.
// SHM (Borrowed) images need no release either: shmToImage copies their
// pixels out of the segment, which the backend reuses next frame.
func (x *x11Display) releaseLocked(img *Image, ownership Ownership) {}

func shmToImage(cimg *C.XImage, w, h int) *Image {
	bpl := int(C.xorg_image_bytes_per_line(cimg))
	data := C.xorg_image_data(cimg)
	n := bpl * h
	pix := C.GoBytes(unsafe.Pointer(data), C.int(n))
	return &Image{
		Width:        w,
		Height:       h,
		BitsPerPixel: int(C.xorg_image_bpp(cimg)),
		BytesPerLine: bpl,
		ByteOrder:    byteOrderFromX(C.xorg_image_byte_order(cimg)),
		RedMask:      uint32(C.xorg_image_red_mask(cimg)),
		GreenMask:    uint32(C.xorg_image_green_mask(cimg)),
		BlueMask:     uint32(C.xorg_image_blue_mask(cimg)),
		Pix:          pix,
	}
}

func ximageToImage(cimg *C.XImage, w, h int) *Image {
	img := shmToImage(cimg, w, h)
	C.xorg_destroy_image(cimg)
	return img
}

func byteOrderFromX(order C.int) ByteOrder {
	// LSBFirst == 0, MSBFirst == 1 in X11/X.h.
	if order == 0 {
		return LSBFirst
	}
	return MSBFirst
}

// xCapturer adapts x11Display to the Capturer interface.
type xCapturer struct{ x *x11Display }

func (c xCapturer) Acquire(rect Rect) (*Image, Ownership, error) {
	return c.x.acquireLocked(rect)
}
func (c xCapturer) Release(img *Image, ownership Ownership) { c.x.releaseLocked(img, ownership) }
func (c xCapturer) Close() {
	c.x.lock()
	defer c.x.unlock()
	if c.x.dpy != nil {
		c.x.destroySHMLocked()
	}
}
