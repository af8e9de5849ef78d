// Package refimg re-encodes reference images into self-contained data URIs
// under a pixel and quality budget, capping per-request payload size to the
// generation service.
package refimg

import (
	"bytes"
	"encoding/base64"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

// Size and quality budgets. Character references are tighter than location
// plates because several of them share one request.
const (
	CharacterMaxSide = 512
	LocationMaxSide  = 1024
	VideoSeedMaxSide = 1280

	LocationJPEGQuality  = 70
	DefaultJPEGQuality   = 75
	TitleBaseJPEGQuality = 80
	VideoSeedJPEGQuality = 80
	BaseJPEGQuality      = 85
)

// Encoder loads, downsizes and re-encodes image assets.
type Encoder struct {
	Logger zerolog.Logger
}

// EncodeFile returns the asset as a data URI. Images whose longer side
// exceeds maxSide are downscaled to it with the aspect ratio preserved;
// smaller images are never upscaled. Sources with transparency re-encode as
// PNG, everything else as JPEG at the given quality. A missing or unreadable
// source returns "" with a warning; it is never fatal.
func (e Encoder) EncodeFile(path string, maxSide, quality int) string {
	img, err := imaging.Open(path)
	if err != nil {
		e.Logger.Warn().Str("path", path).Err(err).Msg("refimg: reference image unavailable")
		return ""
	}

	hasAlpha := !isOpaque(img)
	bounds := img.Bounds()
	if maxSide > 0 && (bounds.Dx() > maxSide || bounds.Dy() > maxSide) {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	mime := "image/jpeg"
	if hasAlpha {
		mime = "image/png"
		err = imaging.Encode(&buf, img, imaging.PNG)
	} else {
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		e.Logger.Warn().Str("path", path).Err(err).Msg("refimg: re-encode failed")
		return ""
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func isOpaque(img image.Image) bool {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	return true
}
