// Package assemble builds the final book artifacts from approved page
// images: the multi-page PDF and the concatenated narration video.
package assemble

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

const (
	pdfDPI  = 150
	mmPerIn = 25.4
)

// BuildPDF combines the images, one full-bleed page each, into a PDF at a
// fixed DPI. Unreadable entries are skipped rather than failing the build;
// an error is returned only when no page could be placed at all.
func BuildPDF(imagePaths []string, outPath string) error {
	if len(imagePaths) == 0 {
		return errors.New("assemble: no images for pdf")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	for _, p := range imagePaths {
		w, h, err := imageSize(p)
		if err != nil {
			continue
		}
		wMM := float64(w) / pdfDPI * mmPerIn
		hMM := float64(h) / pdfDPI * mmPerIn
		orientation := "P"
		if wMM > hMM {
			orientation = "L"
		}
		pdf.AddPageFormat(orientation, fpdf.SizeType{Wd: wMM, Ht: hMM})
		pdf.ImageOptions(p, 0, 0, wMM, hMM, false, fpdf.ImageOptions{}, 0, "")
	}
	if pdf.PageCount() == 0 {
		return errors.New("assemble: no readable images for pdf")
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("assemble: ensure pdf directory: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("assemble: write pdf: %w", err)
	}
	return nil
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
