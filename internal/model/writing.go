// Package model defines core data structures and types for the writing manager.
package model

import "time"

// WritingID is the server-assigned identifier of a writing. It is opaque to
// clients and never changes after creation.
type WritingID string

// Status of a writing. Moving between the two is just a matter of saving with
// the other value; there is no separate unpublish operation.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// DefaultTitle is substituted when a writing is saved with an empty title.
const DefaultTitle = "Untitled"

type Writing struct {
	ID WritingID `json:"id"`

	Title string `json:"title"`

	// Content is the rich-text markup produced by the editing surface. The
	// rest of the system treats it as an opaque blob.
	Content string `json:"content"`

	// Excerpt is a plain-text summary derived from Content at save time.
	Excerpt string `json:"excerpt"`

	Status Status `json:"status"`

	CreatedDate  time.Time `json:"created_date"`
	ModifiedDate time.Time `json:"modified_date"`
}

// WritingInput is the payload for create and update operations.
type WritingInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
	Status  Status `json:"status"`
}

// Pagination describes the server's view of a paged query. TotalItems counts
// everything matching the query, which can be more than what has been loaded
// locally so far.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// SaveState is the autosave status of the one currently open writing.
type SaveState string

const (
	// StateSaved means the open writing matches what the server last accepted.
	StateSaved SaveState = "saved"
	// StateUnsaved means there are local edits not yet sent.
	StateUnsaved SaveState = "unsaved"
	// StateSaving means an autosave or save request is in flight.
	StateSaving SaveState = "saving"
)
