// Package pixconv converts raw RGBA framebuffer reads into the pixel
// formats an external encoder accepts. Conversions are deterministic and
// reuse a caller-supplied destination buffer to avoid per-frame
// allocation.
package pixconv

import (
	"errors"
	"fmt"
)

// Errors returned by Convert.
var (
	ErrUnsupportedFormat     = errors.New("pixconv: unsupported pixel format")
	ErrUnsupportedDimensions = errors.New("pixconv: chroma-subsampled formats require even dimensions")
	ErrSourceSize            = errors.New("pixconv: source buffer size does not match dimensions")
)

// PixelFormat identifies a target pixel layout.
type PixelFormat string

const (
	RGBA PixelFormat = "rgba"    // identity
	RGB  PixelFormat = "rgb24"   // drop alpha
	BGR  PixelFormat = "bgr24"   // swap channels, drop alpha
	BGRA PixelFormat = "bgra"    // swap channels
	I420 PixelFormat = "yuv420p" // planar, 4:2:0 chroma subsampling
	I444 PixelFormat = "yuv444p" // planar, full-resolution chroma
)

// Valid reports whether f names a supported format.
func (f PixelFormat) Valid() bool {
	switch f {
	case RGBA, RGB, BGR, BGRA, I420, I444:
		return true
	}
	return false
}

// BufferSize returns the byte size of one frame in format f.
func BufferSize(width, height int, f PixelFormat) int {
	n := width * height
	switch f {
	case RGBA, BGRA:
		return n * 4
	case RGB, BGR, I444:
		return n * 3
	case I420:
		return n * 3 / 2
	}
	return 0
}

// Convert reshapes src (tightly packed RGBA8, width*height*4 bytes) into
// format f. When dst has sufficient capacity it is reused; otherwise a new
// buffer is allocated. The returned slice is always exactly
// BufferSize(width, height, f) long.
func Convert(dst, src []byte, width, height int, f PixelFormat) ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if len(src) != width*height*4 {
		return nil, fmt.Errorf("%w: got %d bytes for %dx%d", ErrSourceSize, len(src), width, height)
	}
	if f == I420 && (width%2 != 0 || height%2 != 0) {
		return nil, fmt.Errorf("%w: %dx%d", ErrUnsupportedDimensions, width, height)
	}

	need := BufferSize(width, height, f)
	if cap(dst) >= need {
		dst = dst[:need]
	} else {
		dst = make([]byte, need)
	}

	switch f {
	case RGBA:
		copy(dst, src)
	case RGB:
		rgbaToRGB(dst, src)
	case BGR:
		rgbaToBGR(dst, src)
	case BGRA:
		rgbaToBGRA(dst, src)
	case I420:
		rgbaToI420(dst, src, width, height)
	case I444:
		rgbaToI444(dst, src, width, height)
	}
	return dst, nil
}

func rgbaToRGB(dst, src []byte) {
	di := 0
	for si := 0; si < len(src); si += 4 {
		dst[di] = src[si]
		dst[di+1] = src[si+1]
		dst[di+2] = src[si+2]
		di += 3
	}
}

func rgbaToBGR(dst, src []byte) {
	di := 0
	for si := 0; si < len(src); si += 4 {
		dst[di] = src[si+2]
		dst[di+1] = src[si+1]
		dst[di+2] = src[si]
		di += 3
	}
}

func rgbaToBGRA(dst, src []byte) {
	for si := 0; si < len(src); si += 4 {
		dst[si] = src[si+2]
		dst[si+1] = src[si+1]
		dst[si+2] = src[si]
		dst[si+3] = src[si+3]
	}
}

// ITU-R BT.601 luma/chroma transform, matching the reference conversion:
//
//	Y =  0.299 R + 0.587 G + 0.114 B
//	U = -0.147 R - 0.289 G + 0.436 B + 0.5
//	V =  0.615 R - 0.515 G - 0.100 B + 0.5
//
// computed on normalized [0,1] channels, scaled back to 8 bits and clamped.
func yuvFromRGB(r, g, b byte) (y, u, v byte) {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	yf := 0.299*rf + 0.587*gf + 0.114*bf
	uf := -0.147*rf - 0.289*gf + 0.436*bf + 0.5
	vf := 0.615*rf - 0.515*gf - 0.100*bf + 0.5

	return clamp8(yf * 255.0), clamp8(uf * 255.0), clamp8(vf * 255.0)
}

func clamp8(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v + 0.5)
}

// rgbaToI420 packs Y at full resolution followed by U and V planes at half
// resolution in both axes. Chroma samples the top-left pixel of each 2x2
// block, as the reference implementation does.
func rgbaToI420(dst, src []byte, width, height int) {
	ySize := width * height
	cWidth := width / 2
	cHeight := height / 2
	uOff := ySize
	vOff := ySize + cWidth*cHeight

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			si := (row*width + col) * 4
			y, u, v := yuvFromRGB(src[si], src[si+1], src[si+2])
			dst[row*width+col] = y
			if row%2 == 0 && col%2 == 0 {
				ci := (row/2)*cWidth + col/2
				dst[uOff+ci] = u
				dst[vOff+ci] = v
			}
		}
	}
}

func rgbaToI444(dst, src []byte, width, height int) {
	plane := width * height
	for i := 0; i < plane; i++ {
		si := i * 4
		y, u, v := yuvFromRGB(src[si], src[si+1], src[si+2])
		dst[i] = y
		dst[plane+i] = u
		dst[2*plane+i] = v
	}
}

// DecodeI420Luma extracts the Y plane of an I420 buffer. Intended for
// round-trip verification in tests; chroma is lossy by design.
func DecodeI420Luma(buf []byte, width, height int) ([]byte, error) {
	if len(buf) != BufferSize(width, height, I420) {
		return nil, fmt.Errorf("%w: got %d bytes for %dx%d", ErrSourceSize, len(buf), width, height)
	}
	luma := make([]byte, width*height)
	copy(luma, buf[:width*height])
	return luma, nil
}
