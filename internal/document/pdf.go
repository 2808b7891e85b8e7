package document

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// firstPDFImage extracts embedded images from a PDF buffer and returns the
// one on the lowest page number. An ID card upload is expected to carry a
// single scanned image; anything beyond the first is ignored.
func firstPDFImage(data []byte) (image.Image, error) {
	tempDir, err := os.MkdirTemp("", "idverify-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	pdfPath := filepath.Join(tempDir, "upload.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("stage pdf buffer: %w", err)
	}

	outDir := filepath.Join(tempDir, "out")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("create extraction directory: %w", err)
	}
	if err := api.ExtractImagesFile(pdfPath, outDir, nil, nil); err != nil {
		return nil, fmt.Errorf("extract images from pdf: %w", err)
	}

	img, err := lowestPageImage(outDir)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// lowestPageImage walks the extraction directory and returns the decoded
// image with the smallest page number. pdfcpu names extracted files
// page_<num>_image_<idx>.<ext> (newer versions use <name>_<page>_...).
func lowestPageImage(dir string) (image.Image, error) {
	type candidate struct {
		page int
		path string
	}
	var candidates []candidate

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		page, perr := pageFromFilename(info.Name())
		if perr != nil {
			return nil // not an extracted page image
		}
		candidates = append(candidates, candidate{page: page, path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan extracted images: %w", err)
	}
	if len(candidates) == 0 {
		return nil, errors.New("pdf contains no embedded images")
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].page != candidates[j].page {
			return candidates[i].page < candidates[j].page
		}
		return candidates[i].path < candidates[j].path
	})

	f, err := os.Open(candidates[0].path) //nolint:gosec // G304: path comes from our own temp dir
	if err != nil {
		return nil, fmt.Errorf("open extracted image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode extracted image: %w", err)
	}
	return img, nil
}

// pageFromFilename parses the page number out of a pdfcpu extraction
// filename. The page number is the first numeric underscore-separated
// segment.
func pageFromFilename(name string) (int, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, part := range strings.Split(base, "_") {
		if n, err := strconv.Atoi(part); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, errors.New("no page number in filename")
}
