package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yusufhabibalfatha/nulis/internal/config"
	"github.com/yusufhabibalfatha/nulis/internal/model"
	"github.com/yusufhabibalfatha/nulis/internal/repository"
	"github.com/yusufhabibalfatha/nulis/internal/util"
)

// apiEnvelope is the response wrapper shared by every endpoint.
type apiEnvelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env apiEnvelope) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		appLogger.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiEnvelope{Success: false, Error: msg})
}

func repoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, config.ErrWritingNotFound)
		return
	}
	appLogger.Error().Err(err).Msg("Repository error")
	writeError(w, http.StatusInternalServerError, config.ErrInternalServer)
}

// handlePosts serves GET (list) and POST (create) on /posts.
func handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page := 1
		if raw := r.URL.Query().Get(config.QueryPage); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				writeError(w, http.StatusBadRequest, config.ErrInvalidPage)
				return
			}
			page = parsed
		}
		search := r.URL.Query().Get(config.QuerySearch)

		perPage := config.AppConfig.Content.PerPage
		writings, total, err := writingRepo.List(page, perPage, search)
		if err != nil {
			repoError(w, err)
			return
		}

		totalPages := (total + perPage - 1) / perPage
		if totalPages < 1 {
			totalPages = 1
		}

		writeJSON(w, http.StatusOK, apiEnvelope{
			Success: true,
			Data:    writings,
			Pagination: &model.Pagination{
				CurrentPage: page,
				TotalPages:  totalPages,
				TotalItems:  total,
				HasNext:     page < totalPages,
				HasPrev:     page > 1,
			},
		})

	case http.MethodPost:
		var in model.WritingInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrInvalidRequest)
			return
		}
		if in.Excerpt == "" {
			in.Excerpt = util.Excerpt(in.Content, config.AppConfig.Content.ExcerptLength)
		}

		writing, err := writingRepo.Create(in)
		if err != nil {
			repoError(w, err)
			return
		}

		appLogger.Info().Str("id", string(writing.ID)).Str("title", writing.Title).Msg("Writing created")
		writeJSON(w, http.StatusCreated, apiEnvelope{Success: true, Data: writing})

	default:
		writeError(w, http.StatusMethodNotAllowed, config.ErrMethodNotAllowed)
	}
}

// handlePostByID serves GET, PUT and DELETE on /posts/{id}.
func handlePostByID(w http.ResponseWriter, r *http.Request) {
	id := model.WritingID(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusNotFound, config.ErrWritingNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writing, err := writingRepo.Get(id)
		if err != nil {
			repoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, apiEnvelope{Success: true, Data: writing})

	case http.MethodPut:
		var in model.WritingInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrInvalidRequest)
			return
		}
		if in.Excerpt == "" {
			in.Excerpt = util.Excerpt(in.Content, config.AppConfig.Content.ExcerptLength)
		}

		writing, err := writingRepo.Update(id, in)
		if err != nil {
			repoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, apiEnvelope{Success: true, Data: writing})

	case http.MethodDelete:
		if err := writingRepo.Delete(id); err != nil {
			repoError(w, err)
			return
		}
		appLogger.Info().Str("id", string(id)).Msg("Writing deleted")
		writeJSON(w, http.StatusOK, apiEnvelope{Success: true})

	default:
		writeError(w, http.StatusMethodNotAllowed, config.ErrMethodNotAllowed)
	}
}

// handleAutosave serves POST /auto-save/{id}: a lightweight content-only
// update that echoes the stored writing back.
func handleAutosave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, config.ErrMethodNotAllowed)
		return
	}

	id := model.WritingID(r.PathValue("id"))

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, config.ErrInvalidRequest)
		return
	}

	writing, err := writingRepo.Autosave(id, body.Content)
	if err != nil {
		repoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, apiEnvelope{Success: true, Data: writing})
}
