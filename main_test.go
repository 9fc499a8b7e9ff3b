package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yusufhabibalfatha/nulis/internal/config"
	"github.com/yusufhabibalfatha/nulis/internal/db"
	"github.com/yusufhabibalfatha/nulis/internal/model"
	"github.com/yusufhabibalfatha/nulis/internal/repository"
)

type testEnvelope struct {
	Success    bool              `json:"success"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      string            `json:"error"`
}

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	appLogger = zerolog.Nop()
	db.SetLogger(appLogger)
	repository.SetLogger(appLogger)

	config.AppConfig = &config.Config{}
	config.ApplyDefaults(config.AppConfig)

	repo := repository.NewDBWritingRepository(db.NewSQLite(":memory:"))
	if err := repo.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	writingRepo = repo

	mux := http.NewServeMux()
	mux.HandleFunc(config.PostsPath, handlePosts)
	mux.HandleFunc(config.PostsIDPrefix+"{id}", handlePostByID)
	mux.HandleFunc(config.AutosaveIDPrefix+"{id}", handleAutosave)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return rec, env
}

func createTestWriting(t *testing.T, mux *http.ServeMux, title, content string) model.Writing {
	t.Helper()

	body := fmt.Sprintf(`{"title":%q,"content":%q,"status":"draft"}`, title, content)
	rec, env := doRequest(t, mux, http.MethodPost, config.PostsPath, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create returned %d: %s", rec.Code, rec.Body.String())
	}

	var w model.Writing
	if err := json.Unmarshal(env.Data, &w); err != nil {
		t.Fatalf("Failed to decode writing: %v", err)
	}
	return w
}

func TestHandlePostsCreate(t *testing.T) {
	mux := newTestMux(t)

	t.Run("Creates a writing", func(t *testing.T) {
		created := createTestWriting(t, mux, "Morning pages", "<p>Some thoughts</p>")
		if created.ID == "" {
			t.Error("Expected an assigned id")
		}
		if created.Title != "Morning pages" {
			t.Errorf("Unexpected title: %q", created.Title)
		}
	})

	t.Run("Derives the excerpt", func(t *testing.T) {
		created := createTestWriting(t, mux, "Excerpted", "<p>Visible text here</p>")
		if !strings.Contains(created.Excerpt, "Visible text here") {
			t.Errorf("Expected derived excerpt, got %q", created.Excerpt)
		}
	})

	t.Run("Rejects a malformed body", func(t *testing.T) {
		rec, env := doRequest(t, mux, http.MethodPost, config.PostsPath, "{not json")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
		if env.Error != config.ErrInvalidRequest {
			t.Errorf("Unexpected error message: %q", env.Error)
		}
	})

	t.Run("Rejects unsupported methods", func(t *testing.T) {
		rec, _ := doRequest(t, mux, http.MethodPatch, config.PostsPath, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", rec.Code)
		}
	})
}

func TestHandlePostsList(t *testing.T) {
	mux := newTestMux(t)

	for i := 0; i < 15; i++ {
		title := fmt.Sprintf("Writing %02d", i)
		if i%3 == 0 {
			title = fmt.Sprintf("Journal %02d", i)
		}
		createTestWriting(t, mux, title, "body")
	}

	t.Run("First page with pagination", func(t *testing.T) {
		rec, env := doRequest(t, mux, http.MethodGet, config.PostsPath+"?page=1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var writings []model.Writing
		if err := json.Unmarshal(env.Data, &writings); err != nil {
			t.Fatalf("Failed to decode writings: %v", err)
		}
		if len(writings) != 10 {
			t.Errorf("Expected 10 writings, got %d", len(writings))
		}
		if env.Pagination == nil {
			t.Fatal("Expected pagination")
		}
		if env.Pagination.TotalItems != 15 || env.Pagination.TotalPages != 2 {
			t.Errorf("Unexpected pagination: %+v", env.Pagination)
		}
		if !env.Pagination.HasNext || env.Pagination.HasPrev {
			t.Errorf("Unexpected pagination flags: %+v", env.Pagination)
		}
	})

	t.Run("Last page", func(t *testing.T) {
		_, env := doRequest(t, mux, http.MethodGet, config.PostsPath+"?page=2", "")

		var writings []model.Writing
		if err := json.Unmarshal(env.Data, &writings); err != nil {
			t.Fatalf("Failed to decode writings: %v", err)
		}
		if len(writings) != 5 {
			t.Errorf("Expected 5 writings, got %d", len(writings))
		}
		if env.Pagination.HasNext || !env.Pagination.HasPrev {
			t.Errorf("Unexpected pagination flags: %+v", env.Pagination)
		}
	})

	t.Run("Search filters by title", func(t *testing.T) {
		_, env := doRequest(t, mux, http.MethodGet, config.PostsPath+"?search=Journal", "")
		if env.Pagination.TotalItems != 5 {
			t.Errorf("Expected 5 matches, got %d", env.Pagination.TotalItems)
		}
	})

	t.Run("Rejects a bad page number", func(t *testing.T) {
		rec, env := doRequest(t, mux, http.MethodGet, config.PostsPath+"?page=zero", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
		if env.Error != config.ErrInvalidPage {
			t.Errorf("Unexpected error message: %q", env.Error)
		}
	})
}

func TestHandlePostByID(t *testing.T) {
	mux := newTestMux(t)
	created := createTestWriting(t, mux, "Target", "<p>v1</p>")

	t.Run("Get", func(t *testing.T) {
		rec, env := doRequest(t, mux, http.MethodGet, config.PostsIDPrefix+string(created.ID), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var got model.Writing
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatalf("Failed to decode writing: %v", err)
		}
		if got.ID != created.ID || got.Content != "<p>v1</p>" {
			t.Errorf("Unexpected writing: %+v", got)
		}
	})

	t.Run("Get unknown id", func(t *testing.T) {
		rec, env := doRequest(t, mux, http.MethodGet, config.PostsIDPrefix+"missing", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
		if env.Error != config.ErrWritingNotFound {
			t.Errorf("Unexpected error message: %q", env.Error)
		}
	})

	t.Run("Put", func(t *testing.T) {
		body := `{"title":"Renamed","content":"<p>v2</p>","status":"published"}`
		rec, env := doRequest(t, mux, http.MethodPut, config.PostsIDPrefix+string(created.ID), body)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var got model.Writing
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatalf("Failed to decode writing: %v", err)
		}
		if got.Title != "Renamed" || got.Status != model.StatusPublished {
			t.Errorf("Unexpected writing: %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		rec, _ := doRequest(t, mux, http.MethodDelete, config.PostsIDPrefix+string(created.ID), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		rec, _ = doRequest(t, mux, http.MethodGet, config.PostsIDPrefix+string(created.ID), "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 after delete, got %d", rec.Code)
		}
	})
}

func TestHandleAutosave(t *testing.T) {
	mux := newTestMux(t)
	created := createTestWriting(t, mux, "Draft", "<p>v1</p>")

	t.Run("Updates only the content", func(t *testing.T) {
		rec, env := doRequest(t, mux, http.MethodPost, config.AutosaveIDPrefix+string(created.ID), `{"content":"<p>v2</p>"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var got model.Writing
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatalf("Failed to decode writing: %v", err)
		}
		if got.Content != "<p>v2</p>" {
			t.Errorf("Expected new content, got %q", got.Content)
		}
		if got.Title != "Draft" {
			t.Errorf("Expected title untouched, got %q", got.Title)
		}
	})

	t.Run("Unknown id", func(t *testing.T) {
		rec, _ := doRequest(t, mux, http.MethodPost, config.AutosaveIDPrefix+"missing", `{"content":"x"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("Rejects GET", func(t *testing.T) {
		rec, _ := doRequest(t, mux, http.MethodGet, config.AutosaveIDPrefix+string(created.ID), "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", rec.Code)
		}
	})
}
