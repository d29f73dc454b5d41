// Package media stores user-uploaded images (avatars, link thumbnails) and
// renders QR codes for public profiles.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format: only PNG, JPG, JPEG are allowed")
	ErrDecode            = errors.New("failed to decode image")
	ErrTooLarge          = fmt.Errorf("%w: image dimensions are too large", ErrDecode)
)

// DefaultMaxPixels caps the decoded size of an upload at 40 megapixels.
const DefaultMaxPixels = 40_000_000

// Uploader stores an image owned by a profile and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, owner, filename string, r io.Reader) (string, error)
}

// DiskStore writes re-encoded JPEGs below Dir/<owner>/ and serves them
// under URLPrefix.
type DiskStore struct {
	Dir       string
	URLPrefix string
	MaxWidth  uint
	MaxPixels int
}

func NewDiskStore(dir, urlPrefix string, maxWidth uint) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if maxWidth == 0 {
		maxWidth = 800
	}
	return &DiskStore{
		Dir:       dir,
		URLPrefix: strings.TrimRight(urlPrefix, "/"),
		MaxWidth:  maxWidth,
		MaxPixels: DefaultMaxPixels,
	}, nil
}

func (d *DiskStore) Upload(ctx context.Context, owner, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if owner == "" || strings.ContainsAny(owner, `/\.`) {
		return "", fmt.Errorf("invalid owner %q", owner)
	}

	img, err := decode(filename, r, d.MaxPixels)
	if err != nil {
		return "", err
	}

	// Only shrink; small images keep their size.
	if uint(img.Bounds().Dx()) > d.MaxWidth {
		img = resize.Resize(d.MaxWidth, 0, img, resize.Lanczos3)
	}

	dir := filepath.Join(d.Dir, owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.New().String() + ".jpg"
	out, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("error saving image file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("error encoding image: %w", err)
	}
	return d.URLPrefix + "/" + path.Join(owner, name), nil
}

// decode reads the image header first and refuses images above maxPixels
// before any pixel data is decompressed.
func decode(filename string, r io.Reader, maxPixels int) (image.Image, error) {
	var decodeConfig func(io.Reader) (image.Config, error)
	var decodeImage func(io.Reader) (image.Image, error)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		decodeConfig, decodeImage = png.DecodeConfig, png.Decode
	case ".jpg", ".jpeg":
		decodeConfig, decodeImage = jpeg.DecodeConfig, jpeg.Decode
	default:
		return nil, ErrUnsupportedFormat
	}

	var header bytes.Buffer
	cfg, err := decodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, err := decodeImage(io.MultiReader(&header, r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}
