package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/moments-app/moments/internal/imageproc"
	"github.com/moments-app/moments/internal/model"
)

// ErrNoFile is returned when Submit is called without a file.
var ErrNoFile = errors.New("no file selected")

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Uploader turns a selected file plus description into a durable gallery
// record: it generates a filename, encodes the payload as a data URI, and
// persists record and payload together through the store.
type Uploader struct {
	store Store
	now   func() time.Time
}

// NewUploader creates an Uploader writing to store.
func NewUploader(store Store) *Uploader {
	return &Uploader{store: store, now: time.Now}
}

// generateFilename builds image_<millis>_<6 base36 chars>.<ext> from the
// original filename. Collisions are treated as negligible: the namespace is
// single-user and the suffix is not required to be cryptographic.
func (u *Uploader) generateFilename(original string) string {
	ext := "bin"
	if idx := strings.LastIndex(original, "."); idx >= 0 && idx < len(original)-1 {
		ext = original[idx+1:]
	}

	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = base36[rand.IntN(len(base36))]
	}

	return fmt.Sprintf("image_%d_%s.%s", u.now().UnixMilli(), suffix, ext)
}

// Submit stores the file under a freshly generated filename and appends a
// new record, persisting both collections atomically. On any failure before
// the write, neither collection is touched.
func (u *Uploader) Submit(ctx context.Context, filename, contentType string, file io.Reader, description string) (model.ImageRecord, error) {
	if file == nil || filename == "" {
		return model.ImageRecord{}, ErrNoFile
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return model.ImageRecord{}, fmt.Errorf("encode payload: %w", err)
	}
	if len(data) == 0 {
		return model.ImageRecord{}, ErrNoFile
	}
	if err := ctx.Err(); err != nil {
		return model.ImageRecord{}, err
	}

	snap, err := u.store.Load()
	if err != nil {
		return model.ImageRecord{}, fmt.Errorf("load store: %w", err)
	}

	// IDs must stay unique and strictly increasing even when the clock
	// does not advance between submits.
	id := u.now().UnixMilli()
	for _, rec := range snap.Records {
		if rec.ID >= id {
			id = rec.ID + 1
		}
	}

	rec := model.ImageRecord{
		ID:          id,
		Src:         u.generateFilename(filename),
		Description: description,
	}

	records := append(snap.Records, rec)
	payloads := snap.Payloads
	payloads[rec.Src] = imageproc.DataURI(data, contentType)

	if err := u.store.ApplyAtomic(records, payloads, nil); err != nil {
		return model.ImageRecord{}, fmt.Errorf("persist upload: %w", err)
	}

	return rec, nil
}
