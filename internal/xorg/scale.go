package xorg

// ScaleMaps are precomputed integer lookup tables mapping output-space
// coordinates to capture-space coordinates (C2). They are a pure
// function of (outW, outH, capW, capH) and must be rebuilt whenever any
// of those four dimensions changes; a zero-dimensioned ScaleMaps means
// "not usable; recompute".
type ScaleMaps struct {
	XMap []int
	YMap []int

	OutW, OutH int
	CapW, CapH int
}

// usable reports whether the maps were computed for exactly the given
// dimensions (invariant 3, §8: map consistency).
func (m *ScaleMaps) usable(outW, outH, capW, capH int) bool {
	return m != nil && m.XMap != nil && m.YMap != nil &&
		m.OutW == outW && m.OutH == outH && m.CapW == capW && m.CapH == capH
}

func clampIndex(scaled, limit int) int {
	if scaled >= limit {
		return limit - 1
	}
	if scaled < 0 {
		return 0
	}
	return scaled
}

// BuildScaleMaps computes x_map/y_map for the given dimensions. On
// allocation failure (which cannot happen in Go, but the original
// gracefully degrades to per-pixel arithmetic on calloc failure) callers
// should just discard the result and use mapCoord directly — this
// function never returns a partially built map.
func BuildScaleMaps(outW, outH, capW, capH int) *ScaleMaps {
	if outW <= 0 || outH <= 0 || capW <= 0 || capH <= 0 {
		return nil
	}

	xMap := make([]int, outW)
	for x := 0; x < outW; x++ {
		xMap[x] = clampIndex(x*capW/outW, capW)
	}

	yMap := make([]int, outH)
	for y := 0; y < outH; y++ {
		yMap[y] = clampIndex(y*capH/outH, capH)
	}

	return &ScaleMaps{
		XMap: xMap, YMap: yMap,
		OutW: outW, OutH: outH, CapW: capW, CapH: capH,
	}
}

// mapCoord computes x_map[i]/y_map[i] directly without a table, used as
// the fallback when maps are unavailable (allocation failure, or not
// yet built).
func mapCoord(i, outDim, capDim int) int {
	return clampIndex(i*capDim/outDim, capDim)
}

// MapRect maps a capture-space rectangle to output space:
// dst = src * (out/cap), ensuring each dimension is at least 1 pixel.
func MapRect(src Rect, capW, capH, outW, outH int) Rect {
	dst := Rect{
		Left:   src.Left * outW / capW,
		Top:    src.Top * outH / capH,
		Right:  src.Right * outW / capW,
		Bottom: src.Bottom * outH / capH,
	}
	if dst.Right <= dst.Left {
		dst.Right = dst.Left + 1
	}
	if dst.Bottom <= dst.Top {
		dst.Bottom = dst.Top + 1
	}
	return dst
}

// RawContext is the raw-write handle for a display layer: a BGRX
// framebuffer, its stride in bytes, and the accumulated dirty
// rectangle for this open/close bracket. It mirrors
// guac_display_layer_raw_context.
type RawContext struct {
	Buffer []byte
	Stride int
	Dirty  Rect
	hasDirty bool
}

// extendDirty grows ctx.Dirty to include rect, treating an empty
// accumulator as "not yet set" rather than a zero-area rectangle at the
// origin (so the first extend doesn't need special-casing by doing
// `Extend` against an invalid zero rect).
func (ctx *RawContext) extendDirty(rect Rect) {
	if !ctx.hasDirty {
		ctx.Dirty = rect
		ctx.hasDirty = true
		return
	}
	ctx.Dirty = ctx.Dirty.Extend(rect)
}

const bytesPerPixel = 4

// ScaleImage is the scaler (§4.7): it either does a direct row-memcpy
// blit when the fast-path predicate holds, or a nearest-neighbour
// per-pixel scale otherwise, using maps when available and recomputing
// coordinates inline when not.
func ScaleImage(img *Image, f Format, src, dst Rect, outW, outH, capW, capH int, maps *ScaleMaps, ctx *RawContext) {
	if outW <= 0 || outH <= 0 || capW <= 0 || capH <= 0 {
		return
	}

	if CanBlitDirect(outW, outH, capW, capH, src, dst, img, f) {
		blitDirect(img, src, dst, ctx)
		return
	}

	useMaps := maps.usable(outW, outH, capW, capH)

	for dy := dst.Top; dy < dst.Bottom; dy++ {
		var srcAbsY int
		if useMaps {
			srcAbsY = maps.YMap[dy]
		} else {
			srcAbsY = mapCoord(dy, outH, capH)
		}
		if srcAbsY < src.Top || srcAbsY >= src.Bottom {
			continue
		}
		srcY := srcAbsY - src.Top

		rowOff := ctx.Stride*dy + dst.Left*bytesPerPixel
		dstCol := dst.Left

		for dx := dst.Left; dx < dst.Right; dx++ {
			var srcAbsX int
			if useMaps {
				srcAbsX = maps.XMap[dx]
			} else {
				srcAbsX = mapCoord(dx, outW, capW)
			}
			if srcAbsX < src.Left || srcAbsX >= src.Right {
				dstCol++
				continue
			}

			srcX := srcAbsX - src.Left
			pixel := img.GetPixel(srcX, srcY)
			out := f.Convert(pixel)

			off := rowOff + (dstCol-dst.Left)*bytesPerPixel
			putPixel32(ctx.Buffer[off:off+4], out)
			dstCol++
		}
	}

	ctx.extendDirty(dst)
}

func putPixel32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// blitDirect copies (src.Width() * 4) bytes per row, src.Height() rows,
// with no per-pixel arithmetic.
func blitDirect(img *Image, src, dst Rect, ctx *RawContext) {
	rowBytes := src.Width() * bytesPerPixel

	srcOff := src.Top*img.BytesPerLine + src.Left*bytesPerPixel
	dstOff := dst.Top*ctx.Stride + dst.Left*bytesPerPixel

	for y := src.Top; y < src.Bottom; y++ {
		copy(ctx.Buffer[dstOff:dstOff+rowBytes], img.Pix[srcOff:srcOff+rowBytes])
		srcOff += img.BytesPerLine
		dstOff += ctx.Stride
	}

	ctx.extendDirty(dst)
}
