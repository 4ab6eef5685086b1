package xorg

// Image is a neutral description of a captured image, decoupled from any
// particular X binding so the conversion/scale math can be unit tested
// without cgo or a running X server. BitsPerPixel, ByteOrder and the
// channel masks come straight off the XImage the capture backend
// returned; Pix/Stride describe the backing bytes.
type Image struct {
	Width         int
	Height        int
	BitsPerPixel  int
	BytesPerLine  int
	ByteOrder     ByteOrder
	RedMask       uint32
	GreenMask     uint32
	BlueMask      uint32
	Pix           []byte
}

// ByteOrder mirrors Xlib's LSBFirst/MSBFirst image byte order, which is
// independent of host endianness (it describes how the server packed
// the pixel, not the CPU we're running on).
type ByteOrder int

const (
	LSBFirst ByteOrder = iota
	MSBFirst
)

// Format is the immutable-once-set pixel format descriptor (C1). Bit
// depth must be >= 24 and every channel max must be nonzero, or the
// session fails with FormatUnsupported.
type Format struct {
	RedMask, GreenMask, BlueMask             uint32
	RedShift, GreenShift, BlueShift          int
	RedMax, GreenMax, BlueMax                uint32
}

// maskShift returns the position of the lowest set bit in mask, 0 if
// mask is 0.
func maskShift(mask uint32) int {
	if mask == 0 {
		return 0
	}
	shift := 0
	for mask&1 == 0 {
		mask >>= 1
		shift++
	}
	return shift
}

// maskMax returns the maximum value the masked, shifted channel can hold.
func maskMax(mask uint32, shift int) uint32 {
	return mask >> shift
}

// DeriveFormat computes shifts and maxima from an image's channel masks,
// rejecting anything with bit depth below 24 or a zero channel max.
func DeriveFormat(img *Image) (Format, error) {
	if img.BitsPerPixel < 24 {
		return Format{}, ErrFormatUnsupported
	}

	f := Format{
		RedMask:   img.RedMask,
		GreenMask: img.GreenMask,
		BlueMask:  img.BlueMask,
	}
	f.RedShift = maskShift(img.RedMask)
	f.GreenShift = maskShift(img.GreenMask)
	f.BlueShift = maskShift(img.BlueMask)
	f.RedMax = maskMax(img.RedMask, f.RedShift)
	f.GreenMax = maskMax(img.GreenMask, f.GreenShift)
	f.BlueMax = maskMax(img.BlueMask, f.BlueShift)

	if f.RedMax == 0 || f.GreenMax == 0 || f.BlueMax == 0 {
		return Format{}, ErrFormatUnsupported
	}

	return f, nil
}

// Convert maps one source pixel to a packed 0x00RRGGBB output pixel using
// truncating integer division, per the fixed sRGB-ish linear remap.
func (f Format) Convert(p uint32) uint32 {
	r := ((p & f.RedMask) >> f.RedShift) * 255 / f.RedMax
	g := ((p & f.GreenMask) >> f.GreenShift) * 255 / f.GreenMax
	b := ((p & f.BlueMask) >> f.BlueShift) * 255 / f.BlueMax
	return (r << 16) | (g << 8) | b
}

// bgrxMasks are the exact channel masks the fast-path blit requires.
const (
	bgrxRedMask   = 0x00ff0000
	bgrxGreenMask = 0x0000ff00
	bgrxBlueMask  = 0x000000ff
)

// CanBlitDirect reports whether a verbatim byte-copy is valid: output
// geometry equals capture geometry, src and dst rects are identical,
// the image is 32-bpp little-endian, and masks are exactly BGRX.
func CanBlitDirect(outW, outH, capW, capH int, src, dst Rect, img *Image, f Format) bool {
	if outW != capW || outH != capH {
		return false
	}
	if src != dst {
		return false
	}
	if img.BitsPerPixel != 32 || img.ByteOrder != LSBFirst {
		return false
	}
	if f.RedMask != bgrxRedMask || f.GreenMask != bgrxGreenMask || f.BlueMask != bgrxBlueMask {
		return false
	}
	return true
}

// GetPixel reads one source pixel at (x, y) using a bpp-specialised fast
// reader for 32/24-bpp LSB/MSB images, falling back to a generic
// byte-by-byte accessor for anything else (e.g. 16-bpp images would have
// already failed DeriveFormat, but paletted/odd depths could reach here
// in principle).
func (img *Image) GetPixel(x, y int) uint32 {
	bpp := img.BitsPerPixel
	rowStart := y * img.BytesPerLine
	pixStart := rowStart + x*(bpp/8)
	row := img.Pix[pixStart:]

	switch bpp {
	case 32:
		if img.ByteOrder == LSBFirst {
			return uint32(row[0]) | uint32(row[1])<<8 | uint32(row[2])<<16 | uint32(row[3])<<24
		}
		return uint32(row[3]) | uint32(row[2])<<8 | uint32(row[1])<<16 | uint32(row[0])<<24
	case 24:
		if img.ByteOrder == LSBFirst {
			return uint32(row[0]) | uint32(row[1])<<8 | uint32(row[2])<<16
		}
		return uint32(row[2]) | uint32(row[1])<<8 | uint32(row[0])<<16
	default:
		return img.genericPixel(x, y)
	}
}

// genericPixel is the fallback accessor for bit depths the fast readers
// don't specialise (mirrors XGetPixel's generic path).
func (img *Image) genericPixel(x, y int) uint32 {
	bytesPerPixel := img.BitsPerPixel / 8
	if bytesPerPixel == 0 {
		bytesPerPixel = 1
	}
	off := y*img.BytesPerLine + x*bytesPerPixel
	var v uint32
	if img.ByteOrder == LSBFirst {
		for i := bytesPerPixel - 1; i >= 0; i-- {
			v = v<<8 | uint32(img.Pix[off+i])
		}
	} else {
		for i := 0; i < bytesPerPixel; i++ {
			v = v<<8 | uint32(img.Pix[off+i])
		}
	}
	return v
}
