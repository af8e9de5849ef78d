package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"storybook/internal/project"
)

// startPhase opens the project, requires a saved manifest, creates a job and
// launches the phase in the background. Phases take over their own error
// reporting through the tracker once started.
func (a *App) startPhase(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, store *project.Store, jobID string)) {
	store, ok := a.openStore(w, chi.URLParam(r, "projectID"))
	if !ok {
		return
	}
	if !store.HasManifest() {
		a.error(w, http.StatusBadRequest, "bad_request", "no manifest found")
		return
	}
	jobID := a.Tracker.Create(store.ID())
	go run(context.Background(), store, jobID)
	a.json(w, http.StatusOK, map[string]string{"job_id": jobID})
}

// GenerateImages starts the full image generation phase.
func (a *App) GenerateImages(w http.ResponseWriter, r *http.Request) {
	a.startPhase(w, r, a.Service.RunImages)
}

// RegenPage starts a single-page regeneration. page_index 0 targets the
// title page; content pages are 1-based.
func (a *App) RegenPage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid form")
		return
	}
	pageIndex, err := strconv.Atoi(r.FormValue("page_index"))
	if err != nil || pageIndex < 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "page_index must be a non-negative integer")
		return
	}
	extra := r.FormValue("extra_instruction")

	a.startPhase(w, r, func(ctx context.Context, store *project.Store, jobID string) {
		a.Service.RunRegenPage(ctx, store, jobID, pageIndex, extra)
	})
}

// Finalize starts the PDF and video assembly phase.
func (a *App) Finalize(w http.ResponseWriter, r *http.Request) {
	a.startPhase(w, r, a.Service.RunFinalize)
}

// GetJob returns a point-in-time snapshot of a job for polling clients.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := a.Tracker.Snapshot(chi.URLParam(r, "jobID"))
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	a.json(w, http.StatusOK, job)
}
