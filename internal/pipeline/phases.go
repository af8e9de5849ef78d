package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"

	"storybook/internal/assemble"
	"storybook/internal/domain"
	"storybook/internal/infra"
	"storybook/internal/jobs"
	"storybook/internal/project"
	"storybook/internal/providers/grok"
	"storybook/internal/refimg"
	"storybook/internal/retry"
)

// Video defaults applied when a page leaves them unset.
const (
	defaultClipSeconds = 10
	clipAspectRatio    = "16:9"
	clipResolution     = "720p"
	defaultMotion      = "Gentle scene movement and character expressions"
)

// Service runs the three storybook phases as background units of work, each
// reporting through the job tracker. Phases share nothing beyond the manifest
// and the project directory.
type Service struct {
	cfg        *infra.Config
	jobs       *jobs.Tracker
	logger     zerolog.Logger
	newClient  func(apiKey string) (CreativeClient, error)
	runCommand assemble.CommandRunner
}

// NewService wires the default xAI client factory and command runner.
func NewService(cfg *infra.Config, tracker *jobs.Tracker, logger zerolog.Logger) *Service {
	s := &Service{
		cfg:        cfg,
		jobs:       tracker,
		logger:     logger,
		runCommand: assemble.Exec,
	}
	s.newClient = func(apiKey string) (CreativeClient, error) {
		return grok.NewClient(grok.Options{
			APIKey:     apiKey,
			BaseURL:    cfg.XAIBaseURL,
			ChatModel:  cfg.ChatModel,
			ImageModel: cfg.ImageModel,
			VideoModel: cfg.VideoModel,
			Logger:     &logger,
		})
	}
	return s
}

// RunImages generates the title page and every content page in order. One
// unrecoverable page failure aborts the remaining pages: images are
// prerequisites for everything downstream, unlike the page-isolating video
// stage in finalize.
func (s *Service) RunImages(ctx context.Context, store *project.Store, jobID string) {
	s.runPhase(jobID, func() (domain.JobStatus, error) {
		rc, err := s.prepare(store, jobID)
		if err != nil {
			return "", err
		}
		log := s.logFunc(jobID)

		log("Starting image generation...", 5)

		if title := rc.manifest.Title; title != nil {
			log("Generating title page...", 10)
			if err := rc.buildTitlePage(ctx, title, ""); err != nil {
				return "", fmt.Errorf("title page: %w", err)
			}
			log("Title page done.", 15)
		}

		total := len(rc.manifest.Pages)
		for i, page := range rc.manifest.Pages {
			pct := 15 + int(float64(i+1)/float64(total)*80)
			log(fmt.Sprintf("Generating page %d/%d...", i+1, total), pct)
			if _, err := rc.buildPageImage(ctx, page, i+1, project.PageImageKey(i+1)); err != nil {
				return "", fmt.Errorf("page %d: %w", i+1, err)
			}
			log(fmt.Sprintf("Page %d done.", i+1), pct)
		}

		log("All images ready. Review each page, then finalize.", -1)
		return domain.JobStatusReview, nil
	})
}

// RunRegenPage regenerates a single page image in place: index 0 is the
// title page, content pages are 1-based. Every other artifact is untouched.
func (s *Service) RunRegenPage(ctx context.Context, store *project.Store, jobID string, pageIndex int, extraInstruction string) {
	s.runPhase(jobID, func() (domain.JobStatus, error) {
		rc, err := s.prepare(store, jobID)
		if err != nil {
			return "", err
		}
		log := s.logFunc(jobID)

		if pageIndex == 0 {
			title := rc.manifest.Title
			if title == nil {
				return "", fmt.Errorf("%w: no title page configured", domain.ErrPageOutOfRange)
			}
			log("Regenerating title page...", 10)
			if err := rc.buildTitlePage(ctx, title, extraInstruction); err != nil {
				return "", fmt.Errorf("title page: %w", err)
			}
		} else {
			if pageIndex < 1 || pageIndex > len(rc.manifest.Pages) {
				return "", fmt.Errorf("%w: %d", domain.ErrPageOutOfRange, pageIndex)
			}
			page := rc.manifest.Pages[pageIndex-1]
			if extraInstruction != "" {
				page.RawDescription += " Additional instruction: " + extraInstruction
			}
			log(fmt.Sprintf("Regenerating page %d...", pageIndex), 10)
			if _, err := rc.buildPageImage(ctx, page, pageIndex, project.PageImageKey(pageIndex)); err != nil {
				return "", fmt.Errorf("page %d: %w", pageIndex, err)
			}
		}

		log(fmt.Sprintf("Page %d regenerated.", pageIndex), -1)
		return domain.JobStatusDone, nil
	})
}

// RunFinalize builds the PDF from approved images and then generates one
// narrated clip per page, concatenating whatever succeeded. Both sub-stages
// are best-effort: their failures are logged, never fatal to the job.
func (s *Service) RunFinalize(ctx context.Context, store *project.Store, jobID string) {
	s.runPhase(jobID, func() (domain.JobStatus, error) {
		rc, err := s.prepare(store, jobID)
		if err != nil {
			return "", err
		}
		log := s.logFunc(jobID)

		s.buildPDF(store, log, len(rc.manifest.Pages))
		clips := s.generateClips(ctx, rc, store, log)

		if len(clips) > 0 {
			log("Assembling final video...", 92)
			listPath, err := store.Path(project.VideosDir + "/concat_list.txt")
			if err == nil {
				var finalPath string
				finalPath, err = store.Path(project.FinalVideoKey)
				if err == nil {
					err = assemble.ConcatClips(ctx, s.runCommand, s.cfg.FFmpegPath, clips, listPath, finalPath)
				}
			}
			if err != nil {
				log("Video assembly failed: "+err.Error(), -1)
			} else {
				log("Final video ready.", 99)
			}
		}

		log("All done!", -1)
		return domain.JobStatusDone, nil
	})
}

// buildPDF collects the title and every existing page image in index order
// and combines them. Missing pages are skipped; zero images produce no PDF
// and no error.
func (s *Service) buildPDF(store *project.Store, log func(string, int), pageCount int) {
	log("Building PDF...", 10)

	var imagePaths []string
	if store.Exists(project.TitleImageKey) {
		if p, err := store.Path(project.TitleImageKey); err == nil {
			imagePaths = append(imagePaths, p)
		}
	}
	for i := 1; i <= pageCount; i++ {
		key := project.PageImageKey(i)
		if !store.Exists(key) {
			continue
		}
		if p, err := store.Path(key); err == nil {
			imagePaths = append(imagePaths, p)
		}
	}
	if len(imagePaths) == 0 {
		log("No page images found, skipping PDF.", -1)
		return
	}

	pdfPath, err := store.Path(project.PDFKey)
	if err == nil {
		err = assemble.BuildPDF(imagePaths, pdfPath)
	}
	if err != nil {
		log("PDF build failed: "+err.Error(), -1)
		return
	}
	log("PDF created.", 30)
}

// generateClips requests one clip per content page. Each page is isolated: a
// rewrite, generation or download failure is logged and the loop continues.
func (s *Service) generateClips(ctx context.Context, rc *RunContext, store *project.Store, log func(string, int)) []string {
	log("Generating videos...", 35)

	var clips []string
	total := len(rc.manifest.Pages)
	for i, page := range rc.manifest.Pages {
		n := i + 1
		pct := 35 + int(float64(n)/float64(total)*55)

		imgKey := project.PageImageKey(n)
		if !store.Exists(imgKey) {
			log(fmt.Sprintf("Skipping video %d - image missing", n), -1)
			continue
		}

		narration, err := rc.rewriteOr(ctx, page.RawNarrationText)
		if err != nil {
			log(fmt.Sprintf("Video %d failed: %v", n, err), -1)
			continue
		}

		imgPath, err := store.Path(imgKey)
		if err != nil {
			log(fmt.Sprintf("Video %d failed: %v", n, err), -1)
			continue
		}
		seedURI := rc.encoder.EncodeFile(imgPath, refimg.VideoSeedMaxSide, refimg.VideoSeedJPEGQuality)
		if seedURI == "" {
			log(fmt.Sprintf("Skipping video %d - seed image unreadable", n), -1)
			continue
		}

		motion := page.MotionPrompt
		if motion == "" {
			motion = defaultMotion
		}
		duration := page.DurationSeconds
		if duration <= 0 {
			duration = defaultClipSeconds
		}

		log(fmt.Sprintf("Generating video %d/%d...", n, total), pct)
		prompt := fmt.Sprintf("%s. %s ABSOLUTE RULE: Off-screen narrator voiceover only. "+
			"Characters do NOT speak. NO mouth movement. No lip sync. No speech bubbles. "+
			"Read as voiceover: '%s'. Keep the on-screen text panel readable.",
			motion, rc.style, narration)

		gen, err := rc.client.GenerateVideo(ctx, grok.VideoRequest{
			Prompt:          prompt,
			ImageURL:        seedURI,
			DurationSeconds: duration,
			AspectRatio:     clipAspectRatio,
			Resolution:      clipResolution,
		})
		if err != nil {
			log(fmt.Sprintf("Video %d failed: %v", n, err), -1)
			continue
		}

		vidKey := project.PageVideoKey(n)
		if err := rc.downloadTo(ctx, gen.URL, vidKey); err != nil {
			log(fmt.Sprintf("Video %d failed: %v", n, err), -1)
			continue
		}
		if p, err := store.Path(vidKey); err == nil {
			clips = append(clips, p)
		}
		log(fmt.Sprintf("Video %d done.", n), pct)
	}
	return clips
}

// prepare loads and validates the manifest, resolves the API key and builds
// the phase's immutable run context. Errors here are configuration errors
// surfaced before any generation call.
func (s *Service) prepare(store *project.Store, jobID string) (*RunContext, error) {
	m, err := store.ReadManifest()
	if err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(m.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(s.cfg.XAIAPIKey)
	}
	if apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	client, err := s.newClient(apiKey)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With().Str("job_id", jobID).Str("project_id", store.ID()).Logger()
	policy := retry.Policy{MaxAttempts: s.cfg.ImageRetryAttempts, Delay: s.cfg.ImageRetryDelay}
	return NewRunContext(m, store, client, logger, policy), nil
}

// runPhase is the phase boundary: any error or panic is captured into the
// job log with a terminal error status, and never re-raised to the caller.
func (s *Service) runPhase(jobID string, fn func() (domain.JobStatus, error)) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%v", r)
			s.logger.Error().Str("job_id", jobID).Str("panic", msg).Msg("pipeline: phase panicked")
			s.jobs.Append(jobID, "FATAL: "+msg)
			s.jobs.Append(jobID, string(debug.Stack()))
			s.jobs.SetError(jobID, msg)
		}
	}()

	status, err := fn()
	if err != nil {
		s.logger.Error().Str("job_id", jobID).Err(err).Msg("pipeline: phase failed")
		s.jobs.Append(jobID, "FATAL: "+err.Error())
		s.jobs.SetError(jobID, err.Error())
		return
	}
	s.jobs.SetProgress(jobID, 100)
	s.jobs.SetStatus(jobID, status)
}

// logFunc reports one line to both the structured log and the job's log,
// optionally bumping progress (negative means leave it unchanged).
func (s *Service) logFunc(jobID string) func(msg string, progress int) {
	return func(msg string, progress int) {
		s.logger.Info().Str("job_id", jobID).Msg(msg)
		s.jobs.Append(jobID, msg)
		if progress >= 0 {
			s.jobs.SetProgress(jobID, progress)
		}
	}
}
