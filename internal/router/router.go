package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/moments-app/moments/internal/api"
	"github.com/moments-app/moments/internal/catalog"
	"github.com/moments-app/moments/internal/config"
	"github.com/moments-app/moments/internal/gallery"
	"github.com/moments-app/moments/internal/handler"
	"github.com/rs/zerolog/log"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	Controller *gallery.Controller
	Catalog    catalog.Catalog
	Config     *config.Config
	Router     chi.Router
}

// New creates a new Server with a fully configured chi router.
func New(ctrl *gallery.Controller, cat catalog.Catalog, cfg *config.Config) *Server {
	s := &Server{Controller: ctrl, Catalog: cat, Config: cfg}

	h := &handler.Handler{
		Controller: ctrl,
		Catalog:    cat,
		Config:     cfg,
	}

	r := chi.NewRouter()

	// CORS — must be before other middleware to handle preflight OPTIONS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(api.RequestLogger)
	r.Use(middleware.Recoverer)

	// Wrong verbs are rejected before any handler or catalog access.
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	// Health check.
	r.Get("/health", s.Health)

	// Gallery page and local gallery API.
	r.Group(func(r chi.Router) {
		r.Use(api.SessionMiddleware)

		r.Get("/", h.Index)

		r.Route("/api/gallery", func(r chi.Router) {
			r.Get("/", h.ListGallery)
			r.Post("/", h.SubmitImage)
			r.Get("/state", h.GetState)
			r.Post("/preview", h.PreviewImage)
			r.Post("/deselect", h.DeselectImage)
			r.Get("/payloads/{filename}", h.GetPayload)
			r.Post("/records/{id}/like", h.ToggleLike)
			r.Post("/records/{id}/select", h.SelectImage)
		})
	})

	// Remote catalog gateway endpoints.
	r.Route("/functions", func(r chi.Router) {
		r.Get("/getImages", h.ListCatalog)
		r.Post("/uploadImage", h.UploadCatalog)
	})

	s.Router = r
	return s
}

// Health returns a simple health-check response.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		log.Error().Err(err).Msg("Health: failed to encode response")
	}
}
