package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fieldaudit/internal/auditservice"
)

// NewRouter creates a chi router with all API routes, for mounting under
// /api. token enables Bearer auth when non-empty. sseHandler, if non-nil,
// is mounted at GET /events behind the same auth.
func NewRouter(svc *auditservice.Service, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(token))

	r.Route("/form", func(r chi.Router) {
		r.Get("/", h.GetForm)
		r.Put("/fields/{name}", h.SetField)
		r.Post("/tables/{table}/rows", h.AddRow)
		r.Delete("/tables/{table}/rows/{index}", h.RemoveRow)
		r.Post("/sections/{section}/notes-pages", h.AddNotesPage)
		r.Put("/ink/{field}", h.SetInk)
		r.Delete("/ink/{field}", h.ClearInk)
		r.Post("/reset", h.Reset)
	})
	r.Get("/status", h.Status)
	r.Get("/report", h.Report)
	r.Get("/schema", h.Schema)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
