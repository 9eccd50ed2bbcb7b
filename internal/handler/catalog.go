package handler

import (
	"encoding/json"
	"net/http"

	"github.com/moments-app/moments/internal/catalog"
	"github.com/rs/zerolog"
)

// The two catalog endpoints keep the original wire contract: bare JSON on
// success, a plain-text body on failure, and the cause logged only for
// operator diagnostics.

// ListCatalog handles GET /functions/getImages.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Catalog.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("catalog list failed")
		http.Error(w, "Error fetching images", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("ListCatalog: failed to encode response")
	}
}

// UploadCatalog handles POST /functions/uploadImage -- multipart upload of
// one image field plus a description, stored remotely with the description
// attached as metadata.
func (h *Handler) UploadCatalog(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.Config.MaxUploadBytes); err != nil {
		http.Error(w, "Invalid upload request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		// Missing file is a client error, distinct from upstream failure.
		http.Error(w, "Missing image file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	description := r.FormValue("description")

	publicID, err := h.Catalog.Upload(r.Context(), header.Filename, file)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("catalog upload failed")
		http.Error(w, "Error uploading image", http.StatusInternalServerError)
		return
	}

	// The binary is stored at this point; a tagging failure still reports
	// an error to the caller. Acknowledged inconsistency window.
	if err := h.Catalog.AttachDescription(r.Context(), publicID, description); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("public_id", publicID).Msg("catalog context attach failed")
		http.Error(w, "Error adding context", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(catalog.Entry{PublicID: publicID, Description: description}); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("UploadCatalog: failed to encode response")
	}
}
