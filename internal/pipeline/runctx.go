// Package pipeline turns a storybook manifest into page images, a PDF and
// narrated video clips. It runs as three coarse phases (generate-images,
// regen-page and finalize), each reported through the job tracker.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"storybook/internal/domain"
	"storybook/internal/project"
	"storybook/internal/providers/grok"
	"storybook/internal/refimg"
	"storybook/internal/retry"
)

// CreativeClient is the slice of the creative model service the pipeline
// consumes.
type CreativeClient interface {
	RewriteText(ctx context.Context, instruction, input string) (string, error)
	GenerateImage(ctx context.Context, prompt string, imageURLs []string) (*grok.Generation, error)
	GenerateVideo(ctx context.Context, req grok.VideoRequest) (*grok.Generation, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// RunContext is the immutable per-phase state every pipeline stage reads: the
// manifest, the resolved style prompt and the character reference cache. It
// is built once at phase start and shared read-only for the phase's duration.
type RunContext struct {
	manifest   *domain.Manifest
	store      *project.Store
	client     CreativeClient
	encoder    refimg.Encoder
	logger     zerolog.Logger
	style      string
	charIDs    []string
	charRefs   map[string]string
	imageRetry retry.Policy
}

// NewRunContext resolves the style prompt and eagerly encodes every character
// reference so each page generation reuses the same cached data URIs.
func NewRunContext(m *domain.Manifest, store *project.Store, client CreativeClient, logger zerolog.Logger, imageRetry retry.Policy) *RunContext {
	rc := &RunContext{
		manifest:   m,
		store:      store,
		client:     client,
		encoder:    refimg.Encoder{Logger: logger},
		logger:     logger,
		style:      m.StylePrompt(),
		charIDs:    m.CharacterIDs(),
		imageRetry: imageRetry,
	}
	rc.charRefs = make(map[string]string, len(rc.charIDs))
	for _, id := range rc.charIDs {
		path, err := store.Path(m.Characters[id].Path)
		if err != nil {
			logger.Warn().Str("character", id).Err(err).Msg("pipeline: bad character asset path")
			continue
		}
		if uri := rc.encoder.EncodeFile(path, refimg.CharacterMaxSide, refimg.DefaultJPEGQuality); uri != "" {
			rc.charRefs[id] = uri
		}
	}
	return rc
}

// generateImage wraps the creative model's image call with the run's bounded
// fixed-delay retry policy. Video calls are deliberately not retried: a
// failed clip degrades the run instead of aborting it, while a failed image
// is fatal to its page.
func (rc *RunContext) generateImage(ctx context.Context, prompt string, refs []string) (*grok.Generation, error) {
	var gen *grok.Generation
	err := rc.imageRetry.Do(ctx, func(ctx context.Context) error {
		g, err := rc.client.GenerateImage(ctx, prompt, refs)
		if err != nil {
			rc.logger.Warn().Err(err).Msg("pipeline: image generation attempt failed")
			return err
		}
		gen = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// downloadTo fetches a generated asset and writes it at the artifact key.
func (rc *RunContext) downloadTo(ctx context.Context, url, key string) error {
	data, err := rc.client.Download(ctx, url)
	if err != nil {
		return err
	}
	_, err = rc.store.Write(key, data)
	return err
}
