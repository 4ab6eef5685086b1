package xorg

import (
	"errors"
	"testing"
)

var errFakeFetch = errors.New("fake fetch failure")

type fakeCursorFeed struct {
	available bool
	dirty     bool
	image     *CursorImage
	fetchErr  error
	fetches   int
}

func (f *fakeCursorFeed) Available() bool { return f.available }
func (f *fakeCursorFeed) PollDirty() bool { return f.dirty }
func (f *fakeCursorFeed) Fetch() (*CursorImage, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.image, nil
}
func (f *fakeCursorFeed) Ack() { f.dirty = false }
func (f *fakeCursorFeed) Close() {}

func TestCursorTrackerPublishesOnDirty(t *testing.T) {
	img := &CursorImage{Width: 2, Height: 1, Pix: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	img.Hotspot.X, img.Hotspot.Y = 1, 0

	src := &fakeCursorFeed{available: true, dirty: true, image: img}
	tracker := NewCursorTracker(src)
	disp := newFakeDisplay()

	tracker.Tick(disp)

	if disp.cursor.w != 2 || disp.cursor.h != 1 {
		t.Errorf("cursor layer resized to %dx%d, want 2x1", disp.cursor.w, disp.cursor.h)
	}
	if disp.hotspotX != 1 || disp.hotspotY != 0 {
		t.Errorf("hotspot = (%d,%d), want (1,0)", disp.hotspotX, disp.hotspotY)
	}
	if !bytesEqual(disp.cursor.ctx.Buffer, img.Pix) {
		t.Errorf("cursor buffer = %v, want %v", disp.cursor.ctx.Buffer, img.Pix)
	}
}

func TestCursorTrackerSkipsWhenNotDirty(t *testing.T) {
	src := &fakeCursorFeed{available: true, dirty: false}
	tracker := NewCursorTracker(src)
	disp := newFakeDisplay()

	tracker.Tick(disp)

	if src.fetches != 0 {
		t.Error("expected no Fetch call when the cursor isn't dirty")
	}
}

func TestCursorTrackerInertWhenUnavailable(t *testing.T) {
	src := &fakeCursorFeed{available: false, dirty: true}
	tracker := NewCursorTracker(src)
	disp := newFakeDisplay()

	tracker.Tick(disp)

	if src.fetches != 0 {
		t.Error("expected no Fetch call when the cursor source is unavailable")
	}
}

func TestCursorTrackerRetriesAfterFailedFetch(t *testing.T) {
	src := &fakeCursorFeed{available: true, dirty: true, fetchErr: errFakeFetch}
	tracker := NewCursorTracker(src)
	disp := newFakeDisplay()

	tracker.Tick(disp)
	if !src.dirty {
		t.Fatal("expected dirty flag to survive a failed Fetch")
	}

	src.fetchErr = nil
	src.image = &CursorImage{Width: 1, Height: 1, Pix: []byte{1, 2, 3, 4}}
	tracker.Tick(disp)

	if src.dirty {
		t.Error("expected dirty flag cleared after a successful publish")
	}
	if src.fetches != 2 {
		t.Errorf("fetches = %d, want 2 (one failed, one retried)", src.fetches)
	}
}

func TestCursorTrackerNilSourceIsInert(t *testing.T) {
	tracker := NewCursorTracker(nil)
	disp := newFakeDisplay()
	tracker.Tick(disp) // must not panic
}
