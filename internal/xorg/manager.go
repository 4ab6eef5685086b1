package xorg

import (
	"fmt"
	"log"
	"sync"
)

// OpenFunc opens the X connection and its backends for a display name,
// returning everything NewSession needs. In production cmd/xorg-capture-engine
// builds it from OpenX11 (connection_linux.go) plus display.New; tests fake it.
type OpenFunc func(displayName string, logger *log.Logger) (Options, error)

// Manager reference-counts remote viewers against a single Session per
// display, creating the session on first join and tearing it down on
// last leave — the lifecycle spec.md §3 describes without pinning an
// operation shape, filled in per user.c's join/leave handlers.
type Manager struct {
	mu      sync.Mutex
	open    OpenFunc
	logger  *log.Logger

	displayName string
	outW, outH  int
	fps         int

	session  *Session
	refCount int
	runErr   chan error
}

// NewManager creates a Manager bound to one X display and output
// geometry/fps configuration (normally derived from Settings).
func NewManager(open OpenFunc, displayName string, outW, outH, fps int, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		open:        open,
		logger:      logger,
		displayName: displayName,
		outW:        outW,
		outH:        outH,
		fps:         fps,
	}
}

// Join binds a remote viewer to the (possibly newly created) session
// and returns it. The first Join opens the X connection and spawns the
// frame loop; subsequent joins reuse the running session.
func (m *Manager) Join(viewerID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		opts, err := m.open(m.displayName, m.logger)
		if err != nil {
			return nil, fmt.Errorf("open xorg session: %w", err)
		}
		opts.OutputWidth = m.outW
		opts.OutputHeight = m.outH
		opts.FPS = m.fps
		opts.Logger = m.logger

		m.session = NewSession(opts)
		m.runErr = make(chan error, 1)

		go func(sess *Session, done chan<- error) {
			done <- sess.Run()
		}(m.session, m.runErr)
	}

	m.refCount++
	m.session.UserState(viewerID)

	m.logger.Printf("xorg: viewer %s joined (display=%s width=%d height=%d fps=%d)",
		viewerID, m.displayName, m.outW, m.outH, m.fps)

	return m.session, nil
}

// Leave unbinds a remote viewer; when the last one leaves, the frame
// loop is stopped and joined, and every owned resource is released.
func (m *Manager) Leave(viewerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return
	}

	m.session.ForgetUser(viewerID)
	m.refCount--
	if m.refCount > 0 {
		return
	}

	m.session.Stop()
	<-m.runErr
	m.session.Close()
	m.session = nil
	m.runErr = nil
}

// ActiveSession returns the currently running session, or nil if no
// viewer is joined.
func (m *Manager) ActiveSession() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}
