package xorg

import (
	"log"
	"testing"
)

type countingConn struct {
	*fakeConn
	closes int
}

func (c *countingConn) Close() { c.closes++ }

func TestManagerJoinOpensOnceAndReferenceCounts(t *testing.T) {
	opens := 0
	conn := &countingConn{fakeConn: &fakeConn{width: 4, height: 4, damageAvailable: true}}
	capturer := &fakeCapturer{img: testImage32BGRX(4, 4)}
	disp := newFakeDisplay()

	open := func(displayName string, logger *log.Logger) (Options, error) {
		opens++
		return Options{
			Connection: conn,
			Capturer:   capturer,
			Cursor:     fakeCursorSource{},
			Display:    disp,
			FPS:        1000, // fast tick so Run() makes progress quickly
		}, nil
	}

	mgr := NewManager(open, ":0", 0, 0, 1000, log.New(logDiscard{}, "", 0))

	sess1, err := mgr.Join("viewer-a")
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	sess2, err := mgr.Join("viewer-b")
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if opens != 1 {
		t.Errorf("open() called %d times, want 1", opens)
	}
	if sess1 != sess2 {
		t.Error("expected both joins to share the same session")
	}

	mgr.Leave("viewer-a")
	if conn.closes != 0 {
		t.Error("session should stay alive while one viewer remains joined")
	}

	mgr.Leave("viewer-b")
	if conn.closes != 1 {
		t.Errorf("Close() called %d times after last leave, want 1", conn.closes)
	}
	if mgr.ActiveSession() != nil {
		t.Error("expected ActiveSession() to be nil after the last leave")
	}
}

func TestManagerJoinAfterTeardownReopens(t *testing.T) {
	opens := 0
	open := func(displayName string, logger *log.Logger) (Options, error) {
		opens++
		return Options{
			Connection: &countingConn{fakeConn: &fakeConn{width: 2, height: 2, damageAvailable: true}},
			Capturer:   &fakeCapturer{img: testImage32BGRX(2, 2)},
			Cursor:     fakeCursorSource{},
			Display:    newFakeDisplay(),
			FPS:        1000,
		}, nil
	}

	mgr := NewManager(open, ":0", 0, 0, 1000, log.New(logDiscard{}, "", 0))

	mgr.Join("a")
	mgr.Leave("a")
	mgr.Join("b")
	mgr.Leave("b")

	if opens != 2 {
		t.Errorf("open() called %d times across two join/leave cycles, want 2", opens)
	}
}
