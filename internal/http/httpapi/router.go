package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"storybook/internal/http/handlers"
	"storybook/internal/middleware"
)

func NewRouter(app *handlers.App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS([]string{"*"}),
	)

	r.Get("/api/healthz", app.Health)

	r.Route("/api/projects", func(r chi.Router) {
		r.Post("/new", app.NewProject)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Post("/assets", app.UploadAsset)
			r.Post("/manifest", app.SaveManifest)
			r.Post("/generate-images", app.GenerateImages)
			r.Post("/regen-page", app.RegenPage)
			r.Post("/finalize", app.Finalize)
			r.Get("/outputs", app.Outputs)
			r.Get("/files/*", app.ServeFile)
		})
	})

	r.Get("/api/jobs/{jobID}", app.GetJob)

	return r
}
