package xorg

import "time"

// Clock abstracts wall-clock access so the pacing/coalescing logic can
// be driven by a fake in tests instead of real time.Sleep.
type Clock struct {
	Now   func() time.Time
	Sleep func(time.Duration)
}

func realClock() Clock {
	return Clock{Now: time.Now, Sleep: time.Sleep}
}

// Run is the cooperative frame-loop thread (C6). It blocks until Stop
// is called (polled once per iteration) or a FormatUnsupported error
// stops the session. Exactly one goroutine may call Run for a given
// Session.
func (s *Session) Run() error {
	return s.run(realClock())
}

// run is Run with an injectable clock, used by tests.
func (s *Session) run(clock Clock) error {
	s.initGeometry(clock.Now())

	for !s.stopped() {
		if err := s.tick(clock); err != nil {
			return err
		}
	}
	return nil
}

// initGeometry performs the first geometry query and seeds full-screen
// pending damage, mirroring guac_xorg_display_init's initial state.
func (s *Session) initGeometry(now time.Time) {
	s.conn.Lock()
	w, h, ok := s.conn.QueryGeometry()
	s.conn.Unlock()
	if !ok {
		w, h = 1, 1
	}

	s.capW, s.capH = w, h
	s.outW = s.requestedOutW
	if s.outW <= 0 {
		s.outW = w
	}
	s.outH = s.requestedOutH
	if s.outH <= 0 {
		s.outH = h
	}

	s.damage.SetFullScreen(w, h, now)
}

// tick runs one iteration of the loop body (§4.6 steps 1-14). It
// returns a non-nil error only for the fatal FormatUnsupported case, in
// which case the session must stop.
func (s *Session) tick(clock Clock) error {
	now := clock.Now()

	// Step 1: drain X events under the connection lock.
	s.conn.Lock()
	s.conn.DrainEvents(
		func(rect Rect) { s.damage.Union(rect, clock.Now()) },
		func() { /* cursor dirty bit lives inside the CursorSource */ },
	)

	// Step 2: re-detect geometry.
	prevCapW, prevCapH := s.capW, s.capH
	if w, h, ok := s.conn.QueryGeometry(); ok {
		s.capW, s.capH = w, h
		if s.requestedOutW <= 0 {
			s.outW = w
		}
		if s.requestedOutH <= 0 {
			s.outH = h
		}
	}
	s.conn.Unlock()

	if s.capW != prevCapW || s.capH != prevCapH {
		s.damage.SetFullScreen(s.capW, s.capH, now)
	}

	// Step 3: exit conditions inside the tick.
	damageAvailable := s.conn.DamageAvailable()

	if !s.damage.Pending() && damageAvailable {
		clock.Sleep(s.framePeriod)
		return nil
	}

	if s.damage.Pending() && damageAvailable && !s.damage.ReadyAt(now) {
		clock.Sleep(s.damage.RemainingDelay(now))
		return nil
	}

	if s.capW <= 0 || s.capH <= 0 {
		clock.Sleep(s.framePeriod)
		return nil
	}

	// Step 4: pace.
	if !s.lastFrame.IsZero() {
		elapsed := now.Sub(s.lastFrame)
		if elapsed < s.framePeriod {
			clock.Sleep(s.framePeriod - elapsed)
			return nil
		}
	}

	if s.outW <= 0 || s.outH <= 0 {
		clock.Sleep(s.framePeriod)
		return nil
	}

	// Step 5: resize output layer / rebuild scale maps if needed.
	defaultLayer := s.display.DefaultLayer()
	bounds := defaultLayer.Bounds()
	if bounds.Width() != s.outW || bounds.Height() != s.outH {
		defaultLayer.Resize(s.outW, s.outH)
	}
	if !s.maps.usable(s.outW, s.outH, s.capW, s.capH) {
		s.maps = BuildScaleMaps(s.outW, s.outH, s.capW, s.capH)
	}

	// Step 6: clamp the source rectangle.
	var src Rect
	if s.damage.Pending() {
		src = s.damage.Rect()
	} else {
		src = Rect{Left: 0, Top: 0, Right: s.capW, Bottom: s.capH}
	}
	src = src.Clamp(s.capW, s.capH)

	if src.Empty() {
		s.damage.Clear()
		clock.Sleep(s.framePeriod)
		return nil
	}

	// Step 7: map to destination rectangle.
	dst := MapRect(src, s.capW, s.capH, s.outW, s.outH)
	dst = dst.Clamp(s.outW, s.outH)

	if dst.Empty() {
		s.damage.Clear()
		clock.Sleep(s.framePeriod)
		return nil
	}

	// Step 8: acknowledge damage before capture.
	s.conn.Lock()
	if damageAvailable {
		s.conn.SubtractDamage()
	}
	s.conn.Unlock()

	// Step 9: capture.
	s.conn.Lock()
	img, ownership, err := s.capturer.Acquire(src)
	s.conn.Unlock()
	if err != nil {
		clock.Sleep(s.framePeriod)
		return nil
	}

	// Step 10: initialise pixel format on first frame.
	if !s.formatSet {
		f, ferr := DeriveFormat(img)
		if ferr != nil {
			s.capturer.Release(img, ownership)
			s.log.Printf("xorg: %s", ErrFormatUnsupported)
			return newError(KindFormatUnsupported, "derive format", ferr)
		}
		s.format = f
		s.formatSet = true
	}

	// Step 11: open the display layer for raw writing, scale, mark dirty, close.
	ctx := defaultLayer.OpenRaw()
	ScaleImage(img, s.format, src, dst, s.outW, s.outH, s.capW, s.capH, s.maps, ctx)
	defaultLayer.CloseRaw(ctx)

	// Step 12: release the captured image if owned.
	s.capturer.Release(img, ownership)

	// Step 13: update cursor.
	s.cursor.Tick(s.display)

	// Step 14: commit frame.
	s.display.EndFrame()
	s.damage.Clear()
	s.lastFrame = now

	return nil
}
