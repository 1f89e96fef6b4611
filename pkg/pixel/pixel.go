// Package pixel rewrites pixel colors in a decoded buffer using an ordered
// mapping table under a per-channel fuzz tolerance.
package pixel

import (
	"image"
	"math"

	"github.com/walteh/recolor/pkg/mapping"
)

// Tolerance converts a fuzz percentage to a per-channel absolute distance in
// [0,255]. This is a practical approximation of ImageMagick-style fuzz:
// tol = round(255 * fuzz/100), clamped.
func Tolerance(fuzzPercent float64) uint8 {
	t := int(math.Round(255 * fuzzPercent / 100))
	if t < 0 {
		t = 0
	}
	if t > 255 {
		t = 255
	}
	return uint8(t)
}

// Replace rewrites img in place and returns the number of changed pixels.
//
// Matching is always against a snapshot of the original RGB values, never
// against values already rewritten in this pass. Each pixel carries a claimed
// flag: the first mapping in table order whose tolerance window contains the
// pixel's original color wins, and claimed pixels are excluded from all later
// mappings. Alpha bytes are never written.
func Replace(img *image.NRGBA, table mapping.Table, tolerance uint8) int {
	return replaceBulk(img.Pix, table, tolerance)
}

// replaceBulk is the canonical mask-based path over a flat 4-byte-per-pixel
// NRGBA buffer. replaceScalar must produce identical results.
func replaceBulk(pix []uint8, table mapping.Table, tolerance uint8) int {
	n := len(pix) / 4

	orig := make([]uint8, len(pix))
	copy(orig, pix)

	claimed := make([]bool, n)
	tol := int(tolerance)
	changed := 0

	for _, m := range table {
		oldR, oldG, oldB := int(m.OldRGB.R), int(m.OldRGB.G), int(m.OldRGB.B)
		for i := 0; i < n; i++ {
			if claimed[i] {
				continue
			}
			p := i * 4
			if absDiff(int(orig[p]), oldR) <= tol &&
				absDiff(int(orig[p+1]), oldG) <= tol &&
				absDiff(int(orig[p+2]), oldB) <= tol {
				pix[p] = m.NewRGB.R
				pix[p+1] = m.NewRGB.G
				pix[p+2] = m.NewRGB.B
				claimed[i] = true
				changed++
			}
		}
	}
	return changed
}

// replaceScalar is the per-pixel fallback: one pass over the buffer, first
// matching mapping wins. Semantically identical to replaceBulk because every
// pixel is visited exactly once and matched against its original value.
func replaceScalar(pix []uint8, table mapping.Table, tolerance uint8) int {
	tol := int(tolerance)
	changed := 0

	for p := 0; p+3 < len(pix); p += 4 {
		r, g, b := int(pix[p]), int(pix[p+1]), int(pix[p+2])
		for _, m := range table {
			if absDiff(r, int(m.OldRGB.R)) <= tol &&
				absDiff(g, int(m.OldRGB.G)) <= tol &&
				absDiff(b, int(m.OldRGB.B)) <= tol {
				pix[p] = m.NewRGB.R
				pix[p+1] = m.NewRGB.G
				pix[p+2] = m.NewRGB.B
				changed++
				break
			}
		}
	}
	return changed
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
