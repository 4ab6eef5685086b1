//go:build linux

package xorg

/*
#cgo pkg-config: x11 xext xfixes xtst xdamage
#include <X11/Xlib.h>
#include <X11/Xutil.h>
#include <X11/extensions/Xdamage.h>
#include <X11/extensions/Xfixes.h>
#include <X11/extensions/XShm.h>
#include <X11/extensions/XTest.h>
#include <stdlib.h>

static int xorg_init_threads(void) {
	return XInitThreads();
}

static Display* xorg_open_display(const char *name) {
	return XOpenDisplay(name);
}

static Window xorg_root_window(Display *d) {
	int screen = DefaultScreen(d);
	return RootWindow(d, screen);
}

static int xorg_get_geometry(Display *d, Window root, int *w, int *h) {
	XWindowAttributes attrs;
	if (!XGetWindowAttributes(d, root, &attrs))
		return 0;
	*w = attrs.width;
	*h = attrs.height;
	return 1;
}

static int xorg_damage_query(Display *d, int *event_base) {
	int error_base = 0;
	return XDamageQueryExtension(d, event_base, &error_base);
}

static Damage xorg_damage_create(Display *d, Window root) {
	Damage dmg = XDamageCreate(d, root, XDamageReportNonEmpty);
	XSync(d, False);
	return dmg;
}

static void xorg_damage_destroy(Display *d, Damage dmg) {
	XDamageDestroy(d, dmg);
}

static void xorg_damage_subtract(Display *d, Damage dmg) {
	XDamageSubtract(d, dmg, None, None);
}

static int xorg_shm_query(Display *d) {
	return XShmQueryExtension(d);
}

static int xorg_xfixes_query(Display *d, int *event_base) {
	int error_base = 0;
	return XFixesQueryExtension(d, event_base, &error_base);
}

static void xorg_xfixes_select_cursor_input(Display *d, Window root) {
	XFixesSelectCursorInput(d, root, XFixesDisplayCursorNotifyMask);
}

static int xorg_xtest_query(Display *d) {
	int event_base = 0, error_base = 0, major = 0, minor = 0;
	return XTestQueryExtension(d, &event_base, &error_base, &major, &minor);
}

static int xorg_pending(Display *d) {
	return XPending(d);
}

static int xorg_next_event(Display *d, XEvent *ev) {
	if (XPending(d) <= 0)
		return 0;
	XNextEvent(d, ev);
	return 1;
}

static int xorg_event_type(XEvent *ev) {
	return ev->type;
}

static void xorg_damage_area(XEvent *ev, int *x, int *y, int *w, int *h) {
	XDamageNotifyEvent *d = (XDamageNotifyEvent*) ev;
	*x = d->area.x;
	*y = d->area.y;
	*w = d->area.width;
	*h = d->area.height;
}

static void xorg_close_display(Display *d) {
	XCloseDisplay(d);
}
*/
import "C"

import (
	"errors"
	"log"
	"sync"
	"unsafe"
)

// x11Display is the shared, lockable X connection every concern
// (capture, cursor, damage-event draining, input) multiplexes, per §5.
// It is never accessed via a reference graph: the adapter types in
// capture_linux.go/cursor_linux.go/input_linux.go each hold a plain
// pointer to it, as does Session's Connection, but none of them
// reference each other.
type x11Display struct {
	mu sync.Mutex

	dpy  *C.Display
	root C.Window

	damageAvailable bool
	damageEventBase int
	damage          C.Damage

	xfixesAvailable bool
	xfixesEventBase int
	cursorDirty     bool

	xtestAvailable bool

	shmAvailable bool
	shmImage     *C.XImage
	shmInfo      C.XShmSegmentInfo
	shmID        int
	shmAddr      uintptr
	shmAttached  bool
	shmW, shmH   int

	log *log.Logger
}

// OpenX11 opens the X display, probes every optional extension, and
// returns the Connection/Capturer/CursorSource/Injector tuple a Session
// needs. displayName empty means "use $DISPLAY". The
// GUAC_XORG_DISABLE_XSHM environment switch is consumed here, not by
// the settings collaborator (§6).
func OpenX11(displayName string, logger *log.Logger) (Connection, Capturer, CursorSource, Injector, error) {
	if logger == nil {
		logger = log.Default()
	}

	if C.xorg_init_threads() == 0 {
		logger.Printf("xorg: XInitThreads failed; Xlib may not be thread-safe")
	}

	var cName *C.char
	if displayName != "" {
		cName = C.CString(displayName)
		defer C.free(unsafe.Pointer(cName))
	}

	dpy := C.xorg_open_display(cName)
	if dpy == nil {
		return nil, nil, nil, nil, newError(KindFatal, "XOpenDisplay", errors.New("unable to open X display"))
	}

	root := C.xorg_root_window(dpy)

	x := &x11Display{dpy: dpy, root: root, log: logger}

	var eventBase C.int
	if C.xorg_damage_query(dpy, &eventBase) != 0 {
		x.damageAvailable = true
		x.damageEventBase = int(eventBase)
		x.damage = C.xorg_damage_create(dpy, root)
	} else {
		logger.Printf("xorg: XDamage extension unavailable; falling back to full capture")
	}

	x.shmAvailable = C.xorg_shm_query(dpy) != 0
	if disableXSHM() {
		x.shmAvailable = false
	}
	if !x.shmAvailable {
		logger.Printf("xorg: MIT-SHM unavailable; using XGetImage")
	}

	var xfixesEventBase C.int
	if C.xorg_xfixes_query(dpy, &xfixesEventBase) != 0 {
		x.xfixesAvailable = true
		x.xfixesEventBase = int(xfixesEventBase)
		C.xorg_xfixes_select_cursor_input(dpy, root)
		x.cursorDirty = true
	} else {
		logger.Printf("xorg: XFixes unavailable; cursor updates disabled")
	}

	x.xtestAvailable = C.xorg_xtest_query(dpy) != 0
	if !x.xtestAvailable {
		logger.Printf("xorg: XTest extension unavailable; input will be disabled")
	}

	var injector Injector = noopInjector{}
	if x.xtestAvailable {
		injector = xInjector{x: x}
	}

	return xConnection{x: x}, xCapturer{x: x}, xCursorSource{x: x}, injector, nil
}

func (x *x11Display) lock()   { x.mu.Lock() }
func (x *x11Display) unlock() { x.mu.Unlock() }

// queryGeometry fetches the root window's current width/height. Must be
// called with the lock held.
func (x *x11Display) queryGeometry() (int, int, bool) {
	var w, h C.int
	if C.xorg_get_geometry(x.dpy, x.root, &w, &h) == 0 {
		return 0, 0, false
	}
	return int(w), int(h), true
}

// drainEvents processes every pending X event, dispatching damage and
// cursor-notify events to the supplied callbacks. Must be called with
// the lock held.
func (x *x11Display) drainEvents(onDamage func(Rect), onCursorNotify func()) {
	var ev C.XEvent
	for C.xorg_next_event(x.dpy, &ev) != 0 {
		t := int(C.xorg_event_type(&ev))

		if x.damageAvailable && t == x.damageEventBase+int(C.XDamageNotify) {
			var ex, ey, ew, eh C.int
			C.xorg_damage_area(&ev, &ex, &ey, &ew, &eh)
			rect := Rect{Left: int(ex), Top: int(ey), Right: int(ex) + int(ew), Bottom: int(ey) + int(eh)}
			onDamage(rect)
		}

		if x.xfixesAvailable && t == x.xfixesEventBase+int(C.XFixesCursorNotify) {
			x.cursorDirty = true
			onCursorNotify()
		}
	}
}

func (x *x11Display) subtractDamage() {
	if x.damageAvailable {
		C.xorg_damage_subtract(x.dpy, x.damage)
	}
}

func (x *x11Display) isDamageAvailable() bool { return x.damageAvailable }

// closeAll releases every resource owned by the connection, in the
// order: damage object, SHM segment (if Capturer.Close has not already
// released it), display.
func (x *x11Display) closeAll() {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.damageAvailable {
		C.xorg_damage_destroy(x.dpy, x.damage)
		x.damageAvailable = false
	}

	x.destroySHMLocked()

	if x.dpy != nil {
		C.xorg_close_display(x.dpy)
		x.dpy = nil
	}
}

// xConnection adapts x11Display to the Connection interface.
type xConnection struct{ x *x11Display }

func (c xConnection) Lock()   { c.x.lock() }
func (c xConnection) Unlock() { c.x.unlock() }
func (c xConnection) DrainEvents(onDamage func(Rect), onCursorNotify func()) {
	c.x.drainEvents(onDamage, onCursorNotify)
}
func (c xConnection) QueryGeometry() (int, int, bool) { return c.x.queryGeometry() }
func (c xConnection) SubtractDamage()                 { c.x.subtractDamage() }
func (c xConnection) DamageAvailable() bool           { return c.x.isDamageAvailable() }
func (c xConnection) Close()                          { c.x.closeAll() }
