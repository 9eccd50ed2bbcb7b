package handler

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/moments-app/moments/internal/api"
	"github.com/moments-app/moments/internal/gallery"
	"github.com/moments-app/moments/internal/model"
	"github.com/rs/zerolog"
)

// galleryResponse is the payload of GET /api/gallery: records newest first
// plus the like map. Payload bodies are fetched separately by filename.
type galleryResponse struct {
	Records []model.ImageRecord `json:"records"`
	Likes   map[int64]bool      `json:"likes"`
}

// ListGallery handles GET /api/gallery.
func (h *Handler) ListGallery(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, galleryResponse{
		Records: h.Controller.Records(),
		Likes:   h.Controller.Likes(),
	})
}

// SubmitImage handles POST /api/gallery -- multipart upload of one image
// plus a description.
func (h *Handler) SubmitImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.Config.MaxUploadBytes); err != nil {
		api.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		api.BadRequest(w, "please select an image")
		return
	}
	defer file.Close()

	sessionID := api.GetSessionID(r.Context())
	description := r.FormValue("description")

	rec, err := h.Controller.Submit(r.Context(), sessionID, header.Filename,
		header.Header.Get("Content-Type"), file, description)
	if err != nil {
		if errors.Is(err, gallery.ErrNoFile) {
			api.BadRequest(w, "please select an image")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("submit failed")
		api.Internal(w, "failed to store image")
		return
	}

	api.WriteJSON(w, http.StatusOK, rec)
}

// ToggleLike handles POST /api/gallery/records/{id}/like.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.BadRequest(w, "invalid record id")
		return
	}

	liked, err := h.Controller.ToggleLike(id)
	if err != nil {
		if errors.Is(err, gallery.ErrUnknownRecord) {
			api.NotFound(w, "record not found")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("toggle like failed")
		api.Internal(w, "failed to save like")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{"id": id, "liked": liked})
}

// GetPayload handles GET /api/gallery/payloads/{filename} -- serves the
// stored image bytes decoded from the persisted data URI.
func (h *Handler) GetPayload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	uri, ok := h.Controller.Payload(filename)
	if !ok {
		api.NotFound(w, "payload not found")
		return
	}

	contentType, data, err := decodeDataURI(uri)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("filename", filename).Msg("corrupt payload")
		api.Internal(w, "corrupt payload")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("GetPayload: failed to write response")
	}
}

// PreviewImage handles POST /api/gallery/preview -- registers the chosen
// file and kicks off the asynchronous preview encode. The preview shows up
// in the session state once it finishes.
func (h *Handler) PreviewImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.Config.MaxUploadBytes); err != nil {
		api.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		api.BadRequest(w, "please select an image")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.BadRequest(w, "failed to read image: "+err.Error())
		return
	}

	sessionID := api.GetSessionID(r.Context())
	h.Controller.ChooseFile(sessionID, header.Filename, data)

	api.WriteJSON(w, http.StatusAccepted, h.Controller.State(sessionID))
}

// SelectImage handles POST /api/gallery/records/{id}/select.
func (h *Handler) SelectImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.BadRequest(w, "invalid record id")
		return
	}

	sessionID := api.GetSessionID(r.Context())
	if err := h.Controller.Select(sessionID, id); err != nil {
		api.NotFound(w, "record not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, h.Controller.State(sessionID))
}

// DeselectImage handles POST /api/gallery/deselect.
func (h *Handler) DeselectImage(w http.ResponseWriter, r *http.Request) {
	sessionID := api.GetSessionID(r.Context())
	h.Controller.Deselect(sessionID)
	api.WriteJSON(w, http.StatusOK, h.Controller.State(sessionID))
}

// GetState handles GET /api/gallery/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, h.Controller.State(api.GetSessionID(r.Context())))
}

// decodeDataURI splits "data:<type>;base64,<payload>" into its content
// type and raw bytes.
func decodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("not a data URI")
	}
	contentType, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, errors.New("not a base64 data URI")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return contentType, data, nil
}
