// Package overlay composites the narration text panel onto a generated page
// image. The panel is a translucent rounded rectangle with a blurred drop
// shadow; narration is word-wrapped to the panel's interior width.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// Position selects where the panel sits on the page.
type Position string

const (
	Top    Position = "top"
	Bottom Position = "bottom"
)

const (
	fontSize      = 44
	cornerRadius  = 28
	outlineWidth  = 4
	textInset     = 20
	lineSpacing   = 4
	shadowOffsetX = 6
	shadowOffsetY = 8
	shadowSigma   = 6
)

var (
	panelFill    = color.NRGBA{R: 214, G: 186, B: 140, A: 205}
	panelOutline = color.NRGBA{R: 120, G: 90, B: 50, A: 200}
	textColor    = color.NRGBA{R: 45, G: 30, B: 15, A: 255}
	shadowColor  = color.NRGBA{A: 80}
)

// Render draws the narration panel over the image at path and overwrites the
// file in place. Output dimensions always equal input dimensions. Rendering
// is not idempotent: a second call composites a second panel, so callers
// apply it exactly once per artifact version.
func Render(path, text string, pos Position) error {
	base, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("overlay: open %s: %w", path, err)
	}
	w := base.Bounds().Dx()
	h := base.Bounds().Dy()

	margin := int(float64(w) * 0.05)
	panelH := int(float64(h) * 0.22)
	var panelTop int
	if pos == Top {
		panelTop = margin
	} else {
		panelTop = h - int(float64(h)*0.015) - panelH
	}
	pl := margin
	pr := w - margin

	shadow := gg.NewContext(w, h)
	shadow.SetColor(shadowColor)
	shadow.DrawRoundedRectangle(
		float64(pl+shadowOffsetX), float64(panelTop+shadowOffsetY),
		float64(pr-pl), float64(panelH), cornerRadius)
	shadow.Fill()

	dc := gg.NewContext(w, h)
	dc.DrawImage(imaging.Blur(shadow.Image(), shadowSigma), 0, 0)
	dc.DrawRoundedRectangle(float64(pl), float64(panelTop), float64(pr-pl), float64(panelH), cornerRadius)
	dc.SetColor(panelFill)
	dc.FillPreserve()
	dc.SetColor(panelOutline)
	dc.SetLineWidth(outlineWidth)
	dc.Stroke()

	face, err := newFace(fontSize)
	if err != nil {
		return fmt.Errorf("overlay: load font: %w", err)
	}
	dc.SetFontFace(face)
	dc.SetColor(textColor)

	maxWidth := float64(pr-pl) - 2*textInset
	lines := wrapText(text, maxWidth, func(s string) float64 {
		lineW, _ := dc.MeasureString(s)
		return lineW
	})
	lineH := dc.FontHeight() + lineSpacing
	y := float64(panelTop+textInset) + dc.FontHeight()*0.8
	for _, line := range lines {
		dc.DrawString(line, float64(pl+textInset), y)
		y += lineH
	}

	out := imaging.Overlay(base, dc.Image(), image.Pt(0, 0), 1.0)
	if err := imaging.Save(out, path); err != nil {
		return fmt.Errorf("overlay: save %s: %w", path, err)
	}
	return nil
}

// wrapText greedily packs words so no line exceeds maxWidth under the given
// measurement. A single word wider than the panel stays on its own line.
func wrapText(text string, maxWidth float64, measure func(string) float64) []string {
	words := strings.Fields(text)
	var lines []string
	var cur []string
	for _, word := range words {
		cur = append(cur, word)
		if measure(strings.Join(cur, " ")) > maxWidth && len(cur) > 1 {
			lines = append(lines, strings.Join(cur[:len(cur)-1], " "))
			cur = []string{word}
		}
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}

func newFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
