package handlers

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	medwebui "github.com/medgrove/med-web-ui"
)

// NewRouter wires HTTP routes to the handlers.
func NewRouter(m Main) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	staticFS, err := fs.Sub(medwebui.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/", m.HandleHome)
	r.Route("/api", func(api chi.Router) {
		api.Get("/health", m.HandleHealth)
		api.Post("/stream", m.HandleStream)
		api.Post("/chat", m.HandleChat)
		api.Post("/clear", m.HandleClear)
	})

	return r
}
