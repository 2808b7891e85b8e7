// Package document handles uploaded ID card documents: media-type gating,
// image decoding and PDF image extraction. Only documents that pass the
// gate ever reach the normalizer.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// MediaType is the declared type of an uploaded document.
type MediaType string

const (
	MediaJPEG MediaType = "image/jpeg"
	MediaPNG  MediaType = "image/png"
	MediaPDF  MediaType = "application/pdf"
)

// ErrUnsupportedMedia is returned for documents whose declared media type
// is not one of JPEG, PNG or PDF. Such documents are rejected before any
// preprocessing is attempted.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// Document is an uploaded ID card: an opaque byte buffer plus its declared
// media type. It is owned transiently by a single pipeline invocation.
type Document struct {
	Data      []byte
	MediaType MediaType
	Filename  string
}

// extensionTypes maps file extensions to media types for uploads that only
// carry a filename.
var extensionTypes = map[string]MediaType{
	".jpg":  MediaJPEG,
	".jpeg": MediaJPEG,
	".png":  MediaPNG,
	".pdf":  MediaPDF,
}

// TypeForFilename resolves a media type from a file extension.
func TypeForFilename(name string) (MediaType, bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", false
	}
	mt, ok := extensionTypes[strings.ToLower(name[idx:])]
	return mt, ok
}

// Supported reports whether the media type is accepted at the pipeline
// boundary.
func Supported(mt MediaType) bool {
	switch mt {
	case MediaJPEG, MediaPNG, MediaPDF:
		return true
	default:
		return false
	}
}

// Validate checks the document against the accepted media types.
func Validate(doc Document) error {
	if !Supported(doc.MediaType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedMedia, doc.MediaType)
	}
	if len(doc.Data) == 0 {
		return errors.New("document buffer is empty")
	}
	return nil
}

// Decode resolves a document into a single image. JPEG and PNG buffers are
// decoded directly; PDF buffers yield the first embedded image of the
// first page carrying one. The caller must have validated the document.
func Decode(doc Document) (image.Image, error) {
	switch doc.MediaType {
	case MediaJPEG, MediaPNG:
		img, _, err := image.Decode(bytes.NewReader(doc.Data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.MediaType, err)
		}
		return img, nil
	case MediaPDF:
		return firstPDFImage(doc.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMedia, doc.MediaType)
	}
}
