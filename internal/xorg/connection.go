package xorg

// Connection is the shared, lockable handle onto the X display that the
// frame loop, capture backend, cursor tracker and input injector all
// multiplex (§5). Every method that touches the wire must be called
// with Lock held and Unlock called immediately after the last
// XFlush/XSync of that operation — the lock is never held across a
// sleep or while touching the display layer buffer.
type Connection interface {
	Lock()
	Unlock()

	// DrainEvents processes every currently-pending X event, invoking
	// onDamage once per damage notification (with the reported
	// rectangle) and onCursorNotify once per cursor-change
	// notification. Must be called with the lock held.
	DrainEvents(onDamage func(Rect), onCursorNotify func())

	// QueryGeometry fetches the root window's current width/height.
	QueryGeometry() (width, height int, ok bool)

	// SubtractDamage acknowledges all damage accumulated so far to the
	// X server, so that a concurrent event between this call and the
	// next Acquire is retained rather than lost.
	SubtractDamage()

	// DamageAvailable reports whether the damage extension was present
	// at init time.
	DamageAvailable() bool

	Close()
}
