// Package avatar normalizes uploaded profile images before storage. Every
// accepted image is rescaled to a fixed square and re-encoded as PNG so the
// public avatar endpoint can always serve image/png.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	// Register decoders for accepted upload formats.
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

const (
	// Side is the canonical square dimension of a stored avatar.
	Side = 200

	// MaxBytes is the upload size ceiling.
	MaxBytes = 1000000
)

// AllowedExt reports whether the uploaded filename carries an accepted
// image extension. The check is by name, matching the upload contract.
func AllowedExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Normalize decodes the uploaded image, rescales it to Side x Side, and
// re-encodes it as PNG.
func Normalize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, Side, Side))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
