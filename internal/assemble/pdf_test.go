package assemble

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestBuildPDFNoImages(t *testing.T) {
	if err := BuildPDF(nil, filepath.Join(t.TempDir(), "out.pdf")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestBuildPDFNoReadableImages(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.png")
	if err := os.WriteFile(bogus, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := BuildPDF([]string{bogus}, filepath.Join(dir, "out.pdf")); err == nil {
		t.Fatal("expected error when no page could be placed")
	}
}

func TestBuildPDFWritesDocument(t *testing.T) {
	dir := t.TempDir()
	portrait := writeImageFixture(t, dir, "p1.png", 600, 800)
	landscape := writeImageFixture(t, dir, "p2.png", 800, 600)
	bogus := filepath.Join(dir, "bogus.png")
	if err := os.WriteFile(bogus, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "book_pdfs", "story_book.pdf")
	if err := BuildPDF([]string{portrait, bogus, landscape}, out); err != nil {
		t.Fatalf("BuildPDF: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a pdf, starts with %.8q", data)
	}
}

func writeImageFixture(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 250, G: 240, B: 230, A: 255})
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}
