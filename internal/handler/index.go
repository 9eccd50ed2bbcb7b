package handler

import (
	"net/http"

	"github.com/moments-app/moments/internal/model"
	"github.com/moments-app/moments/internal/web"
	"github.com/rs/zerolog"
)

type indexData struct {
	Records []model.ImageRecord
	Likes   map[int64]bool
}

// Index renders the gallery page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Records: h.Controller.Records(),
		Likes:   h.Controller.Likes(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.Index.Execute(w, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Index: failed to render page")
	}
}
