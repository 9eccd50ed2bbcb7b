package gallery

import (
	"encoding/json"

	"github.com/moments-app/moments/internal/model"
)

// Collection names used as persistence keys by both store drivers.
const (
	colRecords  = "records"
	colPayloads = "payloads"
	colLikes    = "likes"
)

// schemaVersion tags every persisted collection so future format changes
// can migrate instead of silently misparsing.
const schemaVersion = 1

// Store persists the three gallery collections. Each Save replaces the
// named collection in full. ApplyAtomic writes every non-nil collection in
// one transaction, so a crash can never leave a record without its payload.
//
// Load treats a missing or unparseable collection as empty; it never fails
// because one collection is corrupt, and the other two still load.
type Store interface {
	Load() (*model.Snapshot, error)
	SaveRecords(records []model.ImageRecord) error
	SavePayloads(payloads map[string]string) error
	SaveLikes(likes map[int64]bool) error

	// ApplyAtomic persists all provided collections or none. A nil
	// argument leaves that collection untouched; an empty non-nil value
	// replaces it with the empty collection.
	ApplyAtomic(records []model.ImageRecord, payloads map[string]string, likes map[int64]bool) error

	Close() error
}

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// encodeCollection wraps v in the versioned envelope.
func encodeCollection(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Version: schemaVersion, Data: data})
}

// decodeCollection unwraps raw into v. It reports false when the envelope
// is malformed or carries an unknown version; callers treat that as an
// absent collection.
func decodeCollection(raw []byte, v interface{}) bool {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	if env.Version != schemaVersion {
		return false
	}
	return json.Unmarshal(env.Data, v) == nil
}

// decodeSnapshot assembles a snapshot from the raw collection bodies,
// applying empty defaults for anything missing or unparseable.
func decodeSnapshot(raw map[string][]byte) *model.Snapshot {
	snap := model.NewSnapshot()
	if body, ok := raw[colRecords]; ok {
		var records []model.ImageRecord
		if decodeCollection(body, &records) && records != nil {
			snap.Records = records
		}
	}
	if body, ok := raw[colPayloads]; ok {
		var payloads map[string]string
		if decodeCollection(body, &payloads) && payloads != nil {
			snap.Payloads = payloads
		}
	}
	if body, ok := raw[colLikes]; ok {
		var likes map[int64]bool
		if decodeCollection(body, &likes) && likes != nil {
			snap.Likes = likes
		}
	}
	return snap
}

// encodeChanged encodes every non-nil collection, keyed by collection name.
func encodeChanged(records []model.ImageRecord, payloads map[string]string, likes map[int64]bool) (map[string][]byte, error) {
	changed := map[string][]byte{}
	if records != nil {
		body, err := encodeCollection(records)
		if err != nil {
			return nil, err
		}
		changed[colRecords] = body
	}
	if payloads != nil {
		body, err := encodeCollection(payloads)
		if err != nil {
			return nil, err
		}
		changed[colPayloads] = body
	}
	if likes != nil {
		body, err := encodeCollection(likes)
		if err != nil {
			return nil, err
		}
		changed[colLikes] = body
	}
	return changed, nil
}
