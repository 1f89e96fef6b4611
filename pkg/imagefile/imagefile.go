// Package imagefile decodes raster images into a normalized NRGBA buffer and
// re-encodes them under per-format policies. The policy table is consulted
// only at the write boundary so the pixel engine stays format-agnostic.
package imagefile

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // decode only; encoding goes through nativewebp
)

// jpegQuality matches the original tool's save default.
const jpegQuality = 95

// policy describes how one container format is re-encoded after editing.
type policy struct {
	// supportsAlpha is false for containers that cannot carry an alpha
	// channel; their buffers are composited onto black before encoding.
	supportsAlpha bool
	encode        func(w io.Writer, img *image.NRGBA) error
}

var jpegPolicy = policy{
	supportsAlpha: false,
	encode: func(w io.Writer, img *image.NRGBA) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	},
}

var tiffPolicy = policy{
	supportsAlpha: true,
	encode: func(w io.Writer, img *image.NRGBA) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	},
}

// policies keys are lowercased file extensions.
var policies = map[string]policy{
	".png": {
		supportsAlpha: true,
		encode: func(w io.Writer, img *image.NRGBA) error {
			return png.Encode(w, img)
		},
	},
	".jpg":  jpegPolicy,
	".jpeg": jpegPolicy,
	".gif": {
		// gif re-quantizes the edited buffer to a palette; accepted lossy
		// behavior, not a defect.
		supportsAlpha: true,
		encode: func(w io.Writer, img *image.NRGBA) error {
			return gif.Encode(w, img, &gif.Options{NumColors: 256})
		},
	},
	".bmp": {
		supportsAlpha: false,
		encode: func(w io.Writer, img *image.NRGBA) error {
			return bmp.Encode(w, img)
		},
	},
	".tiff": tiffPolicy,
	".tif":  tiffPolicy,
	".webp": {
		// lossless VP8L, same as the original tool's lossless=True save
		supportsAlpha: true,
		encode: func(w io.Writer, img *image.NRGBA) error {
			return nativewebp.Encode(w, img, nil)
		},
	},
}

// CanEncode reports whether files with the given extension can be written
// back after editing.
func CanEncode(ext string) bool {
	_, ok := policies[strings.ToLower(ext)]
	return ok
}

// Decode reads and decodes an image file, normalizing whatever pixel format
// the container holds (palette, grayscale, YCbCr, premultiplied alpha) into a
// fresh NRGBA buffer. The reported format name is returned alongside.
func Decode(path string) (*image.NRGBA, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", errors.Errorf("opening image: %w", err)
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return nil, "", errors.Errorf("decoding image: %w", err)
	}
	return normalize(src), format, nil
}

// normalize redraws src into a zero-origin NRGBA buffer with a dense Pix
// layout (4 bytes per pixel, no row padding).
func normalize(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Encode writes img to path using the policy for its extension. Formats
// without alpha support get the buffer flattened onto a black background
// first; the in-memory img is not modified.
func Encode(path string, img *image.NRGBA) error {
	ext := strings.ToLower(filepath.Ext(path))
	pol, ok := policies[ext]
	if !ok {
		return errors.Errorf("no encoder for %q files", ext)
	}

	out := img
	if !pol.supportsAlpha {
		out = flatten(img)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Errorf("creating image file: %w", err)
	}
	if err := pol.encode(f, out); err != nil {
		f.Close()
		return errors.Errorf("encoding %s image: %w", ext, err)
	}
	if err := f.Close(); err != nil {
		return errors.Errorf("closing image file: %w", err)
	}
	return nil
}

// flatten composites src over an opaque black background.
func flatten(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	for p := 3; p < len(dst.Pix); p += 4 {
		dst.Pix[p] = 0xFF
	}
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	return dst
}
