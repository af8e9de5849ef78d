package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storybook/internal/project"
)

// NewProject allocates a short project id and creates its directory.
func (a *App) NewProject(w http.ResponseWriter, r *http.Request) {
	pid := uuid.NewString()[:8]
	if _, err := project.Open(a.Cfg.ProjectsDir, pid); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: create project dir")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create project")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"project_id": pid})
}

// UploadAsset stores a multipart reference image under
// assets/<asset_type>s/<slug><ext>. Asset type and slug name the file; the
// original filename only contributes its extension.
func (a *App) UploadAsset(w http.ResponseWriter, r *http.Request) {
	store, ok := a.openStore(w, chi.URLParam(r, "projectID"))
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(a.Cfg.MaxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}
	assetType := strings.TrimSpace(r.FormValue("asset_type"))
	slug := strings.TrimSpace(r.FormValue("slug"))
	if assetType == "" || slug == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset_type and slug are required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, a.Cfg.MaxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to read upload")
		return
	}
	if int64(len(data)) > a.Cfg.MaxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds size limit")
		return
	}

	ext := path.Ext(header.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := fmt.Sprintf("assets/%ss/%s%s", assetType, slug, ext)
	cleanKey, err := store.Write(key, data)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid asset destination")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"ok": true, "path": cleanKey})
}

// SaveManifest validates and persists the manifest body.
func (a *App) SaveManifest(w http.ResponseWriter, r *http.Request) {
	store, ok := a.openStore(w, chi.URLParam(r, "projectID"))
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, a.Cfg.MaxUploadBytes))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read body")
		return
	}
	if err := store.WriteManifest(body); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_manifest", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{"ok": true})
}

// Outputs reports the downloadable artifacts that exist so far: the PDF, the
// final video, the title image and every page image in sorted key order.
func (a *App) Outputs(w http.ResponseWriter, r *http.Request) {
	store, ok := a.openStore(w, chi.URLParam(r, "projectID"))
	if !ok {
		return
	}
	base := "/api/projects/" + store.ID() + "/files/"

	fileURL := func(key string) *string {
		if !store.Exists(key) {
			return nil
		}
		u := base + key
		return &u
	}

	images := []string{}
	if keys, err := store.Glob(project.ImagesDir + "/page_*.png"); err == nil {
		for _, key := range keys {
			images = append(images, base+key)
		}
	}

	a.json(w, http.StatusOK, map[string]any{
		"pdf":    fileURL(project.PDFKey),
		"video":  fileURL(project.FinalVideoKey),
		"title":  fileURL(project.TitleImageKey),
		"images": images,
	})
}

// ServeFile streams a project artifact addressed by its relative key.
func (a *App) ServeFile(w http.ResponseWriter, r *http.Request) {
	store, ok := a.openStore(w, chi.URLParam(r, "projectID"))
	if !ok {
		return
	}
	key := chi.URLParam(r, "*")
	p, err := store.Path(key)
	if err != nil || !store.Exists(key) {
		a.error(w, http.StatusNotFound, "not_found", "file not found")
		return
	}
	http.ServeFile(w, r, p)
}
