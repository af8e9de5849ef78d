package pipeline

import (
	"context"
	"fmt"

	"storybook/internal/domain"
	"storybook/internal/overlay"
	"storybook/internal/project"
	"storybook/internal/refimg"
)

// buildPageImage runs one page through the full pipeline: resolve the scene,
// secure a base image (chaining an environment-only generation when nothing
// else is available), assemble references under the three-image budget,
// generate, download to the artifact key and composite the narration overlay.
// Any error aborts the page; the rewritten narration is returned on success.
func (rc *RunContext) buildPageImage(ctx context.Context, page domain.Page, pageIndex int, imageKey string) (string, error) {
	desc, err := rc.rewriteOr(ctx, page.RawDescription)
	if err != nil {
		return "", fmt.Errorf("rewrite description: %w", err)
	}
	narration, err := rc.rewriteOr(ctx, page.RawNarrationText)
	if err != nil {
		return "", fmt.Errorf("rewrite narration: %w", err)
	}

	requested := rc.requestedCharacters(page.IncludeCharacters)

	loc := page.Location
	if loc == "" {
		combined := fmt.Sprintf("%s %s %s", desc, narration, page.MotionPrompt)
		loc = ResolveLocation(rc.manifest, combined)
	}

	baseImage := page.BaseImage
	if baseImage == "" && loc != "" {
		if l, ok := rc.manifest.Locations[loc]; ok {
			baseImage = l.Plate
			if baseImage == "" && len(l.Refs) > 0 {
				baseImage = l.Refs[0]
			}
		}
	}

	if baseImage == "" {
		envKey, err := rc.generateEnvironment(ctx, desc, loc, pageIndex)
		if err != nil {
			return "", err
		}
		baseImage = envKey
	}

	var baseURI string
	if path, err := rc.store.Path(baseImage); err == nil {
		baseURI = rc.encoder.EncodeFile(path, refimg.LocationMaxSide, refimg.BaseJPEGQuality)
	}
	refs := rc.assembleRefs(baseURI, requested)

	plate := plateInstruction
	if page.ScaleHint != "" {
		plate += page.ScaleHint
	}

	prompt := fmt.Sprintf("%s %s %s Children's book illustration: %s. %s Do NOT include any text in the illustration.",
		rc.consistencyRules(requested), noTextDirective, plate, desc, rc.style)

	gen, err := rc.generateImage(ctx, prompt, refs)
	if err != nil {
		return "", fmt.Errorf("page generation: %w", err)
	}
	if err := rc.downloadTo(ctx, gen.URL, imageKey); err != nil {
		return "", fmt.Errorf("download page image: %w", err)
	}

	imgPath, err := rc.store.Path(imageKey)
	if err != nil {
		return "", err
	}
	if err := overlay.Render(imgPath, narration, overlay.Bottom); err != nil {
		return "", fmt.Errorf("render overlay: %w", err)
	}
	return narration, nil
}

// generateEnvironment performs the chained environment-only generation: an
// empty scene grounded on at most one location reference, whose result
// becomes the base plate for the character-composition call. This is the only
// place the pipeline issues two generation calls for a single page.
func (rc *RunContext) generateEnvironment(ctx context.Context, desc, loc string, pageIndex int) (string, error) {
	var envRefs []string
	if loc != "" {
		for _, ref := range rc.manifest.Locations[loc].Refs {
			path, err := rc.store.Path(ref)
			if err != nil {
				continue
			}
			if uri := rc.encoder.EncodeFile(path, refimg.LocationMaxSide, refimg.LocationJPEGQuality); uri != "" {
				envRefs = append(envRefs, uri)
				break
			}
		}
	}

	prompt := fmt.Sprintf("%s Create ONLY the environment/background for a children's book page. "+
		"Do NOT include any characters or animals. Scene: %s. %s",
		noTextDirective, desc, rc.style)

	gen, err := rc.generateImage(ctx, prompt, envRefs)
	if err != nil {
		return "", fmt.Errorf("environment generation: %w", err)
	}
	envKey := project.EnvImageKey(pageIndex)
	if err := rc.downloadTo(ctx, gen.URL, envKey); err != nil {
		return "", fmt.Errorf("download environment image: %w", err)
	}
	return envKey, nil
}

// buildTitlePage generates the cover. The title behaves like a page except
// that every known character is requested, the base image never triggers the
// environment chain, and the literal title text is overlaid at the top.
func (rc *RunContext) buildTitlePage(ctx context.Context, title *domain.Title, extraInstruction string) error {
	desc, err := rc.rewriteOr(ctx, title.RawDescription)
	if err != nil {
		return fmt.Errorf("rewrite title description: %w", err)
	}
	if extraInstruction != "" {
		desc += " Additional instruction: " + extraInstruction
	}

	refs := make([]string, 0, maxInputImages)
	if title.BaseImage != "" {
		if path, err := rc.store.Path(title.BaseImage); err == nil {
			if uri := rc.encoder.EncodeFile(path, refimg.LocationMaxSide, refimg.TitleBaseJPEGQuality); uri != "" {
				refs = append(refs, uri)
			}
		}
	}
	for _, id := range rc.charIDs {
		if len(refs) >= maxInputImages {
			break
		}
		if uri := rc.charRefs[id]; uri != "" {
			refs = append(refs, uri)
		}
	}

	prompt := fmt.Sprintf("%s %s If a base image is provided, preserve its composition as the scene plate. "+
		"Insert characters naturally with correct perspective and shadows. "+
		"Create a warm children's book cover: %s. %s Do NOT include any text in the illustration.",
		rc.consistencyRules(rc.charIDs), noTextDirective, desc, rc.style)

	gen, err := rc.generateImage(ctx, prompt, refs)
	if err != nil {
		return fmt.Errorf("title generation: %w", err)
	}
	if err := rc.downloadTo(ctx, gen.URL, project.TitleImageKey); err != nil {
		return fmt.Errorf("download title image: %w", err)
	}

	imgPath, err := rc.store.Path(project.TitleImageKey)
	if err != nil {
		return err
	}
	if err := overlay.Render(imgPath, title.Text(), overlay.Top); err != nil {
		return fmt.Errorf("render title overlay: %w", err)
	}
	return nil
}
