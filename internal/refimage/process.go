package refimage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	// Registered decoders for uploaded reference images.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
	"golang.org/x/image/draw"

	"veo-prompt-studio/internal/apperr"
	"veo-prompt-studio/internal/prompt"
)

const (
	DefaultMaxDimension = 1024
	DefaultQuality      = 90

	// maxPixels bounds the decoded canvas; headers may claim far more than
	// the upload carries.
	maxPixels = 50_000_000

	failedMessage         = "Gagal memproses gambar. Pastikan file gambar valid."
	failedClothingMessage = "Gagal memproses gambar pakaian. Pastikan file gambar valid."
)

type Options struct {
	MaxDimension int
	Quality      int
}

func (o Options) withDefaults() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Process decodes an uploaded image, scales it to fit within the maximum
// dimension while keeping its aspect ratio, and re-encodes it as a JPEG data
// URI. Images already within bounds keep their size.
func Process(name string, data []byte, opts Options) (prompt.ImageRef, error) {
	opts = opts.withDefaults()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return prompt.ImageRef{}, apperr.Validation(failedMessage, fmt.Errorf("decode %q: %w", name, err))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return prompt.ImageRef{}, apperr.Validation(failedMessage, fmt.Errorf("image %q is %dx%d", name, cfg.Width, cfg.Height))
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return prompt.ImageRef{}, apperr.Validation(failedMessage, fmt.Errorf("decode %q: %w", name, err))
	}

	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), opts.MaxDimension)
	if w <= 0 || h <= 0 {
		return prompt.ImageRef{}, apperr.Validation(failedMessage, fmt.Errorf("image %q has no pixels", name))
	}

	// JPEG has no alpha; flatten onto white so transparent areas don't turn black.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return prompt.ImageRef{}, apperr.Validation(failedMessage, fmt.Errorf("encode %q: %w", name, err))
	}

	return prompt.ImageRef{
		Name: name,
		Data: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Ingest processes an upload for one of a character's image slots. Failures
// carry the notification text for that slot.
func Ingest(slot prompt.ImageSlot, name string, data []byte, opts Options) (prompt.ImageRef, error) {
	ref, err := Process(name, data, opts)
	if err != nil && slot == prompt.SlotClothingReference {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return prompt.ImageRef{}, apperr.Validation(failedClothingMessage, appErr.Err)
		}
	}
	return ref, err
}

// Fit returns the output size for a w x h image bounded by bound. The longer
// side is clamped to bound and the other side scaled and rounded.
func Fit(w, h, bound int) (int, int) {
	if bound <= 0 {
		return w, h
	}
	if w > h {
		if w > bound {
			h = int(math.Round(float64(h) * float64(bound) / float64(w)))
			w = bound
		}
	} else if h > bound {
		w = int(math.Round(float64(w) * float64(bound) / float64(h)))
		h = bound
	}
	return w, h
}
