// Package repository implements the writing service's storage backends.
package repository

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/yusufhabibalfatha/nulis/internal/model"
)

// ErrNotFound is returned when no writing exists for an id.
var ErrNotFound = errors.New("writing not found")

type WritingRepository interface {
	Init() error

	// List returns one page of writings matching search (title match),
	// newest first, plus the total number of matches across all pages.
	List(page, perPage int, search string) ([]model.Writing, int, error)
	Get(id model.WritingID) (*model.Writing, error)
	Create(in model.WritingInput) (*model.Writing, error)
	Update(id model.WritingID, in model.WritingInput) (*model.Writing, error)

	// Autosave updates only the content and the modified date.
	Autosave(id model.WritingID, content string) (*model.Writing, error)
	Delete(id model.WritingID) error
}

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}
