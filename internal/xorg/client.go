package xorg

import (
	"log"
	"sync/atomic"
	"time"
)

// Options configures a Session at construction time — the pieces that
// come from the settings collaborator (§6) plus the already-opened
// backends. Session itself never parses configuration or opens the X
// display; OpenX11 (connection_linux.go) does that and hands back a ready
// Connection/Capturer/CursorSource/Injector tuple.
type Options struct {
	// OutputWidth/OutputHeight are the requested output geometry; 0
	// means "match capture geometry".
	OutputWidth, OutputHeight int
	// FPS is the target frame rate; <= 0 defaults to 30.
	FPS int

	Connection Connection
	Capturer   Capturer
	Cursor     CursorSource
	Injector   Injector
	Display    Display

	Logger *log.Logger
}

// Session is one per connected display (§3). It owns, transitively,
// every other component; none of them back-reference it or each other —
// they're siblings the frame loop (the single writer) coordinates by
// holding pointers to each, never a reference graph.
type Session struct {
	opts Options
	log  *log.Logger

	conn     Connection
	capturer Capturer
	cursor   *CursorTracker
	injector Injector
	display  Display

	damage *DamageAggregator

	// Output geometry; capture geometry tracks the root window and is
	// re-detected every tick.
	outW, outH         int
	capW, capH         int
	requestedOutW      int
	requestedOutH      int

	format    Format
	formatSet bool

	maps *ScaleMaps

	fps         int
	framePeriod time.Duration
	lastFrame   time.Time

	stop atomic.Bool

	users map[string]*UserInputState
}

// NewSession constructs a Session from already-initialised backends. It
// does not start the frame loop; call Run for that.
func NewSession(opts Options) *Session {
	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Session{
		opts:          opts,
		log:           logger,
		conn:          opts.Connection,
		capturer:      opts.Capturer,
		cursor:        NewCursorTracker(opts.Cursor),
		injector:      opts.Injector,
		display:       opts.Display,
		damage:        &DamageAggregator{},
		requestedOutW: opts.OutputWidth,
		requestedOutH: opts.OutputHeight,
		fps:           fps,
		framePeriod:   time.Second / time.Duration(fps),
		users:         make(map[string]*UserInputState),
	}

	if s.injector == nil {
		s.injector = noopInjector{}
	}

	return s
}

// Stop requests the frame loop exit at the top of its next iteration.
func (s *Session) Stop() { s.stop.Store(true) }

func (s *Session) stopped() bool { return s.stop.Load() }

// Close tears the session down in the order: cursor tracker -> capture
// backend -> display -> X connection -> scale maps (§5 Shutdown). Stop
// must have already been requested and the frame loop joined by the
// caller before Close runs, so no component is touched concurrently
// with an in-flight tick.
func (s *Session) Close() {
	// The cursor tracker holds no resources of its own beyond the
	// CursorSource it wraps.
	if s.opts.Cursor != nil {
		s.opts.Cursor.Close()
	}
	if s.capturer != nil {
		s.capturer.Close()
	}
	// Display (layer allocation/transport) is an external collaborator;
	// the engine doesn't own its teardown beyond no longer writing to it.
	if s.conn != nil {
		s.conn.Close()
	}
	s.maps = nil
}

// UserState returns the per-remote-user input bookkeeping, creating it
// on first use.
func (s *Session) UserState(userID string) *UserInputState {
	st, ok := s.users[userID]
	if !ok {
		st = &UserInputState{}
		s.users[userID] = st
	}
	return st
}

// Injector exposes the session's input injector so Manager-level input
// handlers (C7) can drive it per user.
func (s *Session) Injector() Injector { return s.injector }

// ForgetUser drops per-user input bookkeeping when a remote viewer
// leaves.
func (s *Session) ForgetUser(userID string) {
	delete(s.users, userID)
}
