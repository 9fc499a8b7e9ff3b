package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yusufhabibalfatha/nulis/internal/db"
	"github.com/yusufhabibalfatha/nulis/internal/model"
)

func newTestRepo(t *testing.T) *DBWritingRepository {
	t.Helper()
	SetLogger(zerolog.Nop())
	db.SetLogger(zerolog.Nop())

	repo := NewDBWritingRepository(db.NewSQLite(":memory:"))
	if err := repo.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return repo
}

func TestDBRepositoryCreate(t *testing.T) {
	repo := newTestRepo(t)

	t.Run("Assigns id and dates", func(t *testing.T) {
		created, err := repo.Create(model.WritingInput{
			Title:   "First",
			Content: "<p>Hello</p>",
			Excerpt: "Hello",
			Status:  model.StatusDraft,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created.ID == "" {
			t.Error("Expected an assigned id")
		}
		if created.CreatedDate.IsZero() || created.ModifiedDate.IsZero() {
			t.Error("Expected dates to be set")
		}
		if created.ModifiedDate.Before(created.CreatedDate) {
			t.Error("Expected modified >= created")
		}
	})

	t.Run("Empty title becomes Untitled", func(t *testing.T) {
		created, err := repo.Create(model.WritingInput{Status: model.StatusDraft})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created.Title != model.DefaultTitle {
			t.Errorf("Expected %q, got %q", model.DefaultTitle, created.Title)
		}
	})

	t.Run("Invalid status becomes draft", func(t *testing.T) {
		created, err := repo.Create(model.WritingInput{Title: "x", Status: "bogus"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created.Status != model.StatusDraft {
			t.Errorf("Expected draft, got %q", created.Status)
		}
	})
}

func TestDBRepositoryGet(t *testing.T) {
	repo := newTestRepo(t)

	created, err := repo.Create(model.WritingInput{
		Title:   "Readable",
		Content: "<p>Round trip through zstd</p>",
		Status:  model.StatusPublished,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("Round trips content", func(t *testing.T) {
		got, err := repo.Get(created.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Content != "<p>Round trip through zstd</p>" {
			t.Errorf("Unexpected content: %q", got.Content)
		}
		if got.Status != model.StatusPublished {
			t.Errorf("Expected published, got %q", got.Status)
		}
	})

	t.Run("Unknown id", func(t *testing.T) {
		_, err := repo.Get("nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestDBRepositoryUpdate(t *testing.T) {
	repo := newTestRepo(t)

	created, err := repo.Create(model.WritingInput{Title: "Before", Content: "old", Status: model.StatusDraft})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := repo.Update(created.ID, model.WritingInput{
		Title:   "After",
		Content: "new",
		Status:  model.StatusPublished,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Title != "After" || updated.Content != "new" {
		t.Errorf("Unexpected updated writing: %+v", updated)
	}
	if updated.Status != model.StatusPublished {
		t.Errorf("Expected published, got %q", updated.Status)
	}
	if !updated.CreatedDate.Equal(created.CreatedDate) {
		t.Error("Expected created date to be immutable")
	}
	if updated.ModifiedDate.Before(created.ModifiedDate) {
		t.Error("Expected modified date to advance")
	}

	t.Run("Persisted", func(t *testing.T) {
		got, err := repo.Get(created.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Title != "After" {
			t.Errorf("Expected persisted title, got %q", got.Title)
		}
	})
}

func TestDBRepositoryAutosave(t *testing.T) {
	repo := newTestRepo(t)

	created, err := repo.Create(model.WritingInput{Title: "Keep me", Content: "v1", Status: model.StatusDraft})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	saved, err := repo.Autosave(created.ID, "v2")
	if err != nil {
		t.Fatalf("Autosave failed: %v", err)
	}

	if saved.Content != "v2" {
		t.Errorf("Expected new content, got %q", saved.Content)
	}
	if saved.Title != "Keep me" {
		t.Errorf("Expected title untouched, got %q", saved.Title)
	}
	if saved.Status != model.StatusDraft {
		t.Errorf("Expected status untouched, got %q", saved.Status)
	}

	t.Run("Unknown id", func(t *testing.T) {
		_, err := repo.Autosave("nope", "x")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestDBRepositoryDelete(t *testing.T) {
	repo := newTestRepo(t)

	created, err := repo.Create(model.WritingInput{Title: "Doomed"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := repo.Get(created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	t.Run("Deleting twice", func(t *testing.T) {
		if err := repo.Delete(created.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestDBRepositoryList(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < 25; i++ {
		title := fmt.Sprintf("Writing %02d", i)
		if i%5 == 0 {
			title = fmt.Sprintf("Journal %02d", i)
		}
		if _, err := repo.Create(model.WritingInput{Title: title, Status: model.StatusDraft}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	t.Run("Pages and totals", func(t *testing.T) {
		page1, total, err := repo.List(1, 10, "")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if total != 25 {
			t.Errorf("Expected total 25, got %d", total)
		}
		if len(page1) != 10 {
			t.Errorf("Expected 10 writings on page 1, got %d", len(page1))
		}

		page3, _, err := repo.List(3, 10, "")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(page3) != 5 {
			t.Errorf("Expected 5 writings on page 3, got %d", len(page3))
		}
	})

	t.Run("Search narrows matches", func(t *testing.T) {
		matches, total, err := repo.List(1, 10, "Journal")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if total != 5 {
			t.Errorf("Expected 5 matches, got %d", total)
		}
		for _, w := range matches {
			if w.Title[:7] != "Journal" {
				t.Errorf("Unexpected match: %q", w.Title)
			}
		}
	})

	t.Run("Empty page beyond the end", func(t *testing.T) {
		writings, total, err := repo.List(9, 10, "")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if total != 25 {
			t.Errorf("Expected total 25, got %d", total)
		}
		if len(writings) != 0 {
			t.Errorf("Expected no writings, got %d", len(writings))
		}
	})
}
