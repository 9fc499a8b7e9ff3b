// Package view derives display-ready sequences from the collection store
// without mutating it.
package view

import (
	"slices"
	"sync"
	"time"

	"github.com/yusufhabibalfatha/nulis/internal/model"
)

// StatusFilter selects which writings a list view shows. Filtering is applied
// client-side against what has been paged in so far; it never issues a new
// remote query, so counts only cover loaded pages.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterDraft     StatusFilter = "draft"
	FilterPublished StatusFilter = "published"
)

// FilterByStatus returns the writings matching the filter. The input slice is
// never modified.
func FilterByStatus(writings []model.Writing, filter StatusFilter) []model.Writing {
	if filter == FilterAll || filter == "" {
		out := make([]model.Writing, len(writings))
		copy(out, writings)
		return out
	}

	out := make([]model.Writing, 0, len(writings))
	for _, w := range writings {
		if string(w.Status) == string(filter) {
			out = append(out, w)
		}
	}
	return out
}

// SortByModified returns a copy sorted by modified date, newest first. The
// underlying cache order reflects load order and must stay untouched for
// pagination to stay stable, so this sort is purely presentational.
func SortByModified(writings []model.Writing) []model.Writing {
	out := make([]model.Writing, len(writings))
	copy(out, writings)

	slices.SortStableFunc(out, func(a, b model.Writing) int {
		return -a.ModifiedDate.Compare(b.ModifiedDate)
	})
	return out
}

// Counts summarizes the loaded cache by status. These are local figures; the
// server-wide total lives in the pagination state.
type Counts struct {
	Total     int
	Draft     int
	Published int
}

func CountByStatus(writings []model.Writing) Counts {
	c := Counts{Total: len(writings)}
	for _, w := range writings {
		switch w.Status {
		case model.StatusDraft:
			c.Draft++
		case model.StatusPublished:
			c.Published++
		}
	}
	return c
}

// SearchDebouncer turns raw keystrokes into committed queries: fn runs with
// the latest term once input has been quiet for the full delay. At most one
// fire is pending at any moment; every new input restarts the clock.
type SearchDebouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func(term string)
	timer *time.Timer
	term  string
}

func NewSearchDebouncer(delay time.Duration, fn func(term string)) *SearchDebouncer {
	return &SearchDebouncer{delay: delay, fn: fn}
}

// Input feeds one keystroke's worth of search term.
func (d *SearchDebouncer) Input(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.term = term
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *SearchDebouncer) fire() {
	d.mu.Lock()
	term := d.term
	d.mu.Unlock()
	d.fn(term)
}

// Stop cancels any pending fire.
func (d *SearchDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
