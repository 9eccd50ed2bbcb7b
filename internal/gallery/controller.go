package gallery

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/moments-app/moments/internal/imageproc"
	"github.com/moments-app/moments/internal/model"
	"github.com/rs/zerolog/log"
)

// ErrUnknownRecord is returned for operations referencing a record ID that
// does not exist in the store.
var ErrUnknownRecord = errors.New("unknown record")

// ComposePhase is the compose facet of the view state machine.
type ComposePhase string

const (
	ComposeIdle       ComposePhase = "idle"
	ComposeFileChosen ComposePhase = "file-chosen"
	ComposeSubmitting ComposePhase = "submitting"
)

// ComposeState describes the upload form: which file is chosen and its
// live preview, if the preview encode has finished.
type ComposeState struct {
	Phase    ComposePhase `json:"phase"`
	Filename string       `json:"filename,omitempty"`
	Preview  string       `json:"preview,omitempty"`
}

// ViewState is the transient, per-session UI state. None of it survives a
// server restart.
type ViewState struct {
	SelectedID *int64       `json:"selected_id,omitempty"`
	Compose    ComposeState `json:"compose"`
	Flare      bool         `json:"flare"`
}

type session struct {
	view          ViewState
	cancelPreview context.CancelFunc
	flareTimer    *time.Timer
}

// Controller coordinates the gallery: it caches the store snapshot, owns
// the uploader, and tracks per-session view state. All mutations are
// serialised by a mutex since the HTTP server is concurrent even though
// the modeled flow is a single user.
type Controller struct {
	mu       sync.Mutex
	store    Store
	uploader *Uploader
	snap     *model.Snapshot
	sessions map[string]*session

	flareTTL   time.Duration
	previewDim int
}

// NewController loads the store snapshot and returns a ready controller.
func NewController(store Store, uploader *Uploader, flareTTL time.Duration, previewDim int) (*Controller, error) {
	snap, err := store.Load()
	if err != nil {
		return nil, err
	}
	if flareTTL <= 0 {
		flareTTL = time.Second
	}
	if previewDim <= 0 {
		previewDim = 320
	}
	return &Controller{
		store:      store,
		uploader:   uploader,
		snap:       snap,
		sessions:   map[string]*session{},
		flareTTL:   flareTTL,
		previewDim: previewDim,
	}, nil
}

// session returns the view state for id, creating it lazily. Callers must
// hold c.mu.
func (c *Controller) session(id string) *session {
	s, ok := c.sessions[id]
	if !ok {
		s = &session{view: ViewState{Compose: ComposeState{Phase: ComposeIdle}}}
		c.sessions[id] = s
	}
	return s
}

// Records returns all records newest first.
func (c *Controller) Records() []model.ImageRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.ImageRecord, len(c.snap.Records))
	copy(out, c.snap.Records)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// Likes returns a copy of the like map. A missing entry means "not liked".
func (c *Controller) Likes() map[int64]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[int64]bool, len(c.snap.Likes))
	for id, liked := range c.snap.Likes {
		out[id] = liked
	}
	return out
}

// Payload returns the encoded payload for a stored filename.
func (c *Controller) Payload(filename string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	uri, ok := c.snap.Payloads[filename]
	return uri, ok
}

// ToggleLike flips the like flag for a record and persists the like map
// immediately. It returns the new flag value.
func (c *Controller) ToggleLike(id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasRecord(id) {
		return false, ErrUnknownRecord
	}

	liked := !c.snap.Likes[id]
	c.snap.Likes[id] = liked
	if err := c.store.SaveLikes(c.snap.Likes); err != nil {
		c.snap.Likes[id] = !liked
		return false, err
	}
	return liked, nil
}

func (c *Controller) hasRecord(id int64) bool {
	for _, rec := range c.snap.Records {
		if rec.ID == id {
			return true
		}
	}
	return false
}

// Select opens the full-screen view on a record.
func (c *Controller) Select(sessionID string, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasRecord(id) {
		return ErrUnknownRecord
	}
	c.session(sessionID).view.SelectedID = &id
	return nil
}

// Deselect closes the full-screen view.
func (c *Controller) Deselect(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session(sessionID).view.SelectedID = nil
}

// ChooseFile moves the session's compose state to file-chosen and starts
// an asynchronous preview encode. Choosing another file supersedes a still
// running encode: the stale result is dropped, never applied.
func (c *Controller) ChooseFile(sessionID, filename string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session(sessionID)
	if s.cancelPreview != nil {
		s.cancelPreview()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelPreview = cancel
	s.view.Compose = ComposeState{Phase: ComposeFileChosen, Filename: filename}

	dim := c.previewDim
	go func() {
		uri, err := imageproc.Preview(data, dim)

		c.mu.Lock()
		defer c.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("filename", filename).Msg("preview encode failed")
			return
		}
		if s.view.Compose.Phase == ComposeFileChosen && s.view.Compose.Filename == filename {
			s.view.Compose.Preview = uri
		}
	}()
}

// Submit runs the upload for a session: compose moves to submitting, the
// uploader persists record and payload, and on success the compose state
// resets and the celebratory flare turns on for the configured duration.
func (c *Controller) Submit(ctx context.Context, sessionID, filename, contentType string, file io.Reader, description string) (model.ImageRecord, error) {
	c.mu.Lock()
	s := c.session(sessionID)
	if s.cancelPreview != nil {
		s.cancelPreview()
		s.cancelPreview = nil
	}
	s.view.Compose = ComposeState{Phase: ComposeSubmitting}
	c.mu.Unlock()

	rec, err := c.uploader.Submit(ctx, filename, contentType, file, description)

	c.mu.Lock()
	defer c.mu.Unlock()

	s.view.Compose = ComposeState{Phase: ComposeIdle}
	if err != nil {
		return model.ImageRecord{}, err
	}

	// Refresh the cached snapshot from the store the uploader wrote.
	snap, loadErr := c.store.Load()
	if loadErr != nil {
		return model.ImageRecord{}, loadErr
	}
	c.snap = snap

	s.view.Flare = true
	if s.flareTimer != nil {
		s.flareTimer.Stop()
	}
	s.flareTimer = time.AfterFunc(c.flareTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		s.view.Flare = false
	})

	return rec, nil
}

// State returns a copy of the session's view state.
func (c *Controller) State(sessionID string) ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := c.session(sessionID).view
	if view.SelectedID != nil {
		id := *view.SelectedID
		view.SelectedID = &id
	}
	return view
}
