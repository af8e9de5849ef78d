package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"storybook/internal/infra"
	"storybook/internal/jobs"
	"storybook/internal/pipeline"
	"storybook/internal/project"
)

// App carries the handler dependencies: job tracker, pipeline service and
// the projects base directory.
type App struct {
	Cfg     *infra.Config
	Logger  zerolog.Logger
	Tracker *jobs.Tracker
	Service *pipeline.Service
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, tracker *jobs.Tracker, service *pipeline.Service) *App {
	return &App{Cfg: cfg, Logger: logger, Tracker: tracker, Service: service}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]any{
		"error":   errCode,
		"message": msg,
	})
}

// openStore resolves the project id from the URL into a store, writing the
// error response itself on failure.
func (a *App) openStore(w http.ResponseWriter, projectID string) (*project.Store, bool) {
	store, err := project.Open(a.Cfg.ProjectsDir, projectID)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid project id")
		return nil, false
	}
	return store, true
}
