package handler

import (
	"github.com/moments-app/moments/internal/catalog"
	"github.com/moments-app/moments/internal/config"
	"github.com/moments-app/moments/internal/gallery"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Controller *gallery.Controller
	Catalog    catalog.Catalog
	Config     *config.Config
}
