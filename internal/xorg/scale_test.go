package xorg

import "testing"

func TestBuildScaleMapsNilOnInvalidDims(t *testing.T) {
	if m := BuildScaleMaps(0, 10, 10, 10); m != nil {
		t.Error("expected nil maps for zero output width")
	}
	if m := BuildScaleMaps(10, 10, -1, 10); m != nil {
		t.Error("expected nil maps for negative capture width")
	}
}

func TestBuildScaleMapsIdentity(t *testing.T) {
	m := BuildScaleMaps(10, 10, 10, 10)
	for i := 0; i < 10; i++ {
		if m.XMap[i] != i || m.YMap[i] != i {
			t.Errorf("identity map[%d] = (%d,%d), want (%d,%d)", i, m.XMap[i], m.YMap[i], i, i)
		}
	}
}

func TestBuildScaleMapsDownscale(t *testing.T) {
	m := BuildScaleMaps(5, 1, 10, 1)
	want := []int{0, 2, 4, 6, 8}
	for i, w := range want {
		if m.XMap[i] != w {
			t.Errorf("XMap[%d] = %d, want %d", i, m.XMap[i], w)
		}
	}
}

func TestScaleMapsUsable(t *testing.T) {
	m := BuildScaleMaps(10, 20, 30, 40)
	if !m.usable(10, 20, 30, 40) {
		t.Error("expected maps built for (10,20,30,40) to be usable for the same dims")
	}
	if m.usable(10, 20, 30, 41) {
		t.Error("expected maps to be unusable after a capture dimension change")
	}
	var nilMaps *ScaleMaps
	if nilMaps.usable(10, 20, 30, 40) {
		t.Error("nil maps must never be usable")
	}
}

func TestMapRectNeverCollapses(t *testing.T) {
	// A 1x1 source rect scaled down into a much smaller output must still
	// produce at least a 1x1 destination rect.
	src := Rect{Left: 5, Top: 5, Right: 6, Bottom: 6}
	dst := MapRect(src, 1000, 1000, 10, 10)
	if dst.Empty() {
		t.Errorf("MapRect() = %+v, want non-empty", dst)
	}
}

func TestRawContextExtendDirtyFirstCallReplaces(t *testing.T) {
	ctx := &RawContext{}
	r := Rect{Left: 10, Top: 10, Right: 20, Bottom: 20}
	ctx.extendDirty(r)
	if ctx.Dirty != r {
		t.Errorf("first extendDirty() = %+v, want %+v (not unioned with zero origin)", ctx.Dirty, r)
	}
}

func TestRawContextExtendDirtyAccumulates(t *testing.T) {
	ctx := &RawContext{}
	ctx.extendDirty(Rect{Left: 10, Top: 10, Right: 20, Bottom: 20})
	ctx.extendDirty(Rect{Left: 0, Top: 15, Right: 5, Bottom: 18})
	want := Rect{Left: 0, Top: 10, Right: 20, Bottom: 20}
	if ctx.Dirty != want {
		t.Errorf("accumulated Dirty = %+v, want %+v", ctx.Dirty, want)
	}
}

func TestScaleImageDirectBlit(t *testing.T) {
	img := &Image{
		Width: 2, Height: 2, BitsPerPixel: 32, BytesPerLine: 8, ByteOrder: LSBFirst,
		RedMask: bgrxRedMask, GreenMask: bgrxGreenMask, BlueMask: bgrxBlueMask,
		Pix: []byte{
			0xff, 0x00, 0x00, 0x00, 0x00, 0xff, 0x00, 0x00,
			0x00, 0x00, 0xff, 0x00, 0xff, 0xff, 0x00, 0x00,
		},
	}
	f, err := DeriveFormat(img)
	if err != nil {
		t.Fatalf("DeriveFormat() error = %v", err)
	}

	rect := Rect{0, 0, 2, 2}
	ctx := &RawContext{Buffer: make([]byte, 2*2*4), Stride: 8}

	ScaleImage(img, f, rect, rect, 2, 2, 2, 2, nil, ctx)

	if !bytesEqual(ctx.Buffer, img.Pix) {
		t.Errorf("direct blit produced %v, want verbatim copy %v", ctx.Buffer, img.Pix)
	}
	if ctx.Dirty != rect {
		t.Errorf("Dirty = %+v, want %+v", ctx.Dirty, rect)
	}
}

func TestScaleImageNearestNeighbourUpscale(t *testing.T) {
	// 1x1 source pixel, scaled up into a 2x2 output: every output pixel
	// should read back the same source pixel.
	img := &Image{
		Width: 1, Height: 1, BitsPerPixel: 32, BytesPerLine: 4, ByteOrder: LSBFirst,
		RedMask: 0xff000000, GreenMask: 0x00ff0000, BlueMask: 0x0000ff00,
		Pix: []byte{0x00, 0x00, 0xaa, 0xff},
	}
	f, err := DeriveFormat(img)
	if err != nil {
		t.Fatalf("DeriveFormat() error = %v", err)
	}

	src := Rect{0, 0, 1, 1}
	dst := Rect{0, 0, 2, 2}
	ctx := &RawContext{Buffer: make([]byte, 2*2*4), Stride: 8}

	ScaleImage(img, f, src, dst, 2, 2, 1, 1, nil, ctx)

	want := f.Convert(img.GetPixel(0, 0))
	for _, off := range []int{0, 4, 8, 12} {
		got := uint32(ctx.Buffer[off]) | uint32(ctx.Buffer[off+1])<<8 | uint32(ctx.Buffer[off+2])<<16 | uint32(ctx.Buffer[off+3])<<24
		if got != want {
			t.Errorf("pixel at offset %d = %#x, want %#x", off, got, want)
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
