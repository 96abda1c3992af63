// Package upload validates and stores user-submitted event images.
// Files are decoded before they are accepted, so a renamed executable or a
// corrupt file never reaches disk, and stored names are generated rather
// than taken from the client.
package upload

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// MaxUploadSize is the largest accepted image, in bytes.
const MaxUploadSize = 5 * 1024 * 1024

// Supported MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// Result describes a stored upload.
type Result struct {
	Filename string // stored name relative to the upload directory
	MimeType string
	Width    int
	Height   int
	Size     int64
}

// Validator validates image uploads and stores accepted files.
type Validator struct {
	uploadDir string
}

// NewValidator creates a validator that stores files under uploadDir.
func NewValidator(uploadDir string) *Validator {
	return &Validator{uploadDir: uploadDir}
}

// ValidateAndStore reads an upload, verifies it is a real image of a
// supported type within the size cap, and writes it under a generated name.
func (v *Validator) ValidateAndStore(reader io.Reader) (*Result, error) {
	// An extra byte past the cap distinguishes "exactly at cap" from "over".
	data, err := io.ReadAll(io.LimitReader(reader, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > MaxUploadSize {
		return nil, fmt.Errorf("image exceeds %d byte limit", MaxUploadSize)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image type; use JPG, PNG, GIF or WebP")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	orientation := readExifOrientation(bytes.NewReader(data))
	img = applyOrientation(img, orientation)

	bounds := img.Bounds()

	// Re-encoding strips EXIF metadata, location tags included.
	encoded, err := encodeImage(img, format)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	filename := uuid.New().String() + extensionFor(format)
	if err := os.MkdirAll(v.uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(v.uploadDir, filename), encoded, 0644); err != nil {
		return nil, fmt.Errorf("saving image: %w", err)
	}

	return &Result{
		Filename: filename,
		MimeType: mimeTypeFor(format),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Size:     int64(len(encoded)),
	}, nil
}

// Remove deletes a stored upload. Missing files are not an error.
func (v *Validator) Remove(filename string) error {
	safe := filepath.Base(filename)
	if safe == "." || safe == ".." || safe == "" {
		return fmt.Errorf("invalid filename")
	}
	if err := os.Remove(filepath.Join(v.uploadDir, safe)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting upload: %w", err)
	}
	return nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image to bytes in the given format.
// WebP input is re-encoded as JPEG since pure Go has no WebP encoder.
func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func extensionFor(format string) string {
	switch format {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

func mimeTypeFor(format string) string {
	switch format {
	case "png":
		return MimeTypePNG
	case "gif":
		return MimeTypeGIF
	default:
		return MimeTypeJPEG
	}
}
