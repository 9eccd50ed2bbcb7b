package model

// ImageRecord describes one uploaded image. Records are immutable after
// creation and are only removed by clearing the whole store.
type ImageRecord struct {
	// ID is the creation timestamp in unix milliseconds. IDs are unique
	// within a store and define the display order (descending).
	ID          int64  `json:"id"`
	Src         string `json:"src"`
	Description string `json:"description"`
}

// Snapshot holds the three gallery collections loaded together at startup:
// the record list in insertion order, the payload map keyed by filename,
// and the like map keyed by record ID.
type Snapshot struct {
	Records  []ImageRecord
	Payloads map[string]string
	Likes    map[int64]bool
}

// NewSnapshot returns an empty snapshot with non-nil maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Records:  []ImageRecord{},
		Payloads: map[string]string{},
		Likes:    map[int64]bool{},
	}
}
