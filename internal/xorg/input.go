package xorg

// buttonMasks maps logical button index (0..4, buttons 1..5) to its mask
// bit, per the mouse-event contract in §4.8.
var buttonMasks = [5]int{1, 2, 4, 8, 16}
var buttonNumbers = [5]int{1, 2, 3, 4, 5}

// Injector synthesises pointer and keyboard events into the X server on
// behalf of remote users (C7). Implementations must serialise every
// call under the shared connection lock and flush before returning.
// When the underlying XTest extension is unavailable, an Injector
// should be a no-op (every method returns immediately) rather than nil,
// so callers never need a presence check.
type Injector interface {
	// Motion synthesises absolute pointer motion to (x, y) in root
	// window coordinates.
	Motion(x, y int)
	// Button synthesises a single button press (pressed=true) or
	// release.
	Button(button int, pressed bool)
	// Key translates keysym to a keycode and synthesises a press/release;
	// implementations silently ignore keysyms that translate to no
	// physical key.
	Key(keysym uint32, pressed bool)
}

// UserInputState tracks one remote user's last pointer button mask, used
// to emit press/release deltas (§3 Input State, per remote user).
type UserInputState struct {
	lastMask int
}

// Mouse synthesises motion to (x, y), then for each of the 5 logical
// buttons compares mask against the last-seen mask and emits a
// press/release on change, per §4.8 and the mouse-delta test scenario.
// Two calls with an identical mask and position synthesise exactly one
// motion event and zero button events (idempotence, §8 invariant 7).
func (s *UserInputState) Mouse(inj Injector, x, y, mask int) {
	inj.Motion(x, y)

	for i, bit := range buttonMasks {
		if mask&bit != s.lastMask&bit {
			pressed := mask&bit != 0
			inj.Button(buttonNumbers[i], pressed)
		}
	}

	s.lastMask = mask
}

// Key forwards a key event unchanged; keysym-to-keycode translation and
// the "ignore if untranslatable" rule live in the Injector implementation.
func (s *UserInputState) Key(inj Injector, keysym uint32, pressed bool) {
	inj.Key(keysym, pressed)
}

// noopInjector is used when XTest is unavailable, so callers never have
// to nil-check.
type noopInjector struct{}

func (noopInjector) Motion(x, y int)             {}
func (noopInjector) Button(button int, pressed bool) {}
func (noopInjector) Key(keysym uint32, pressed bool) {}
