//go:build linux

package xorg

/*
#cgo pkg-config: x11 xext xfixes xtst xdamage
#include <X11/Xlib.h>
#include <X11/keysym.h>
#include <X11/extensions/XTest.h>

static void xorg_fake_motion(Display *d, int x, int y) {
	XTestFakeMotionEvent(d, -1, x, y, CurrentTime);
	XFlush(d);
}

static void xorg_fake_button(Display *d, unsigned int button, int press) {
	XTestFakeButtonEvent(d, button, press ? True : False, CurrentTime);
	XFlush(d);
}

static void xorg_fake_key(Display *d, unsigned int keycode, int press) {
	XTestFakeKeyEvent(d, keycode, press ? True : False, CurrentTime);
	XFlush(d);
}

static unsigned int xorg_keysym_to_keycode(Display *d, unsigned long keysym) {
	return XKeysymToKeycode(d, (KeySym) keysym);
}
*/
import "C"

// motionLocked, buttonLocked and keyLocked assume the caller holds the
// connection lock, mirroring guac_xorg_user_mouse_handler /
// guac_xorg_user_key_handler sharing the display's single connection
// rather than opening a second one (§5).
func (x *x11Display) motionLocked(px, py int) {
	C.xorg_fake_motion(x.dpy, C.int(px), C.int(py))
}

func (x *x11Display) buttonLocked(button int, pressed bool) {
	p := C.int(0)
	if pressed {
		p = 1
	}
	C.xorg_fake_button(x.dpy, C.uint(button), p)
}

func (x *x11Display) keyLocked(keysym uint32, pressed bool) {
	code := C.xorg_keysym_to_keycode(x.dpy, C.ulong(keysym))
	if code == 0 {
		// No physical key maps to this keysym; silently ignored per the
		// Injector contract.
		return
	}
	p := C.int(0)
	if pressed {
		p = 1
	}
	C.xorg_fake_key(x.dpy, code, p)
}

// xInjector adapts x11Display to the Injector interface, taking the
// shared connection lock around each synthesised event.
type xInjector struct{ x *x11Display }

func (i xInjector) Motion(px, py int) {
	i.x.lock()
	defer i.x.unlock()
	i.x.motionLocked(px, py)
}

func (i xInjector) Button(button int, pressed bool) {
	i.x.lock()
	defer i.x.unlock()
	i.x.buttonLocked(button, pressed)
}

func (i xInjector) Key(keysym uint32, pressed bool) {
	i.x.lock()
	defer i.x.unlock()
	i.x.keyLocked(keysym, pressed)
}
