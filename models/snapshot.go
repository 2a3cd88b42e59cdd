package models

import "time"

// Snapshot is one rendered page: its serialized markup and the visible text
// of each element that directly contains text, in document order.
type Snapshot struct {
	// URL is the page that was rendered.
	URL string

	// Markup is the full serialized page source.
	Markup string

	// Fragments are the element texts. Empty fragments are dropped.
	Fragments []string

	// Engine records which renderer produced the snapshot: "browser", "http" or "file".
	Engine string

	// FetchedAt is when rendering finished.
	FetchedAt time.Time
}
