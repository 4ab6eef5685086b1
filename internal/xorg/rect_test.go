package xorg

import "testing"

func TestRectWidthHeight(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Right: 30, Bottom: 50}
	if r.Width() != 20 {
		t.Errorf("Width() = %d, want 20", r.Width())
	}
	if r.Height() != 30 {
		t.Errorf("Height() = %d, want 30", r.Height())
	}
}

func TestRectEmpty(t *testing.T) {
	cases := []struct {
		name string
		r    Rect
		want bool
	}{
		{"normal", Rect{0, 0, 10, 10}, false},
		{"zero width", Rect{5, 0, 5, 10}, true},
		{"zero height", Rect{0, 5, 10, 5}, true},
		{"inverted", Rect{10, 10, 0, 0}, true},
	}
	for _, c := range cases {
		if got := c.r.Empty(); got != c.want {
			t.Errorf("%s: Empty() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRectExtend(t *testing.T) {
	a := Rect{Left: 10, Top: 10, Right: 20, Bottom: 20}
	b := Rect{Left: 5, Top: 15, Right: 25, Bottom: 18}
	got := a.Extend(b)
	want := Rect{Left: 5, Top: 10, Right: 25, Bottom: 20}
	if got != want {
		t.Errorf("Extend() = %+v, want %+v", got, want)
	}
}

func TestRectClamp(t *testing.T) {
	r := Rect{Left: -5, Top: -5, Right: 150, Bottom: 150}
	got := r.Clamp(100, 100)
	want := Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}
	if got != want {
		t.Errorf("Clamp() = %+v, want %+v", got, want)
	}
}

func TestRectClampEmptyResult(t *testing.T) {
	r := Rect{Left: 200, Top: 200, Right: 300, Bottom: 300}
	got := r.Clamp(100, 100)
	if !got.Empty() {
		t.Errorf("Clamp() of out-of-bounds rect = %+v, want empty", got)
	}
}
