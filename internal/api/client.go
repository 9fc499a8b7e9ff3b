// Package api implements the client for the writing service's JSON API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/yusufhabibalfatha/nulis/internal/config"
	"github.com/yusufhabibalfatha/nulis/internal/model"
)

var apiLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

// RemoteError is a failure reported by the writing service or its transport.
// Message carries the service-supplied error when one exists, otherwise a
// generic description of the transport status.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf(config.ErrRemoteStatusFmt, e.Status)
}

// envelope is the response wrapper every endpoint of the service uses.
type envelope struct {
	Success    bool              `json:"success"`
	Data       json.RawMessage   `json:"data,omitempty"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Client is a thin translator between typed operations and the HTTP API. It
// performs no retries, caching or batching; callers own all of that.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// List fetches one page of writings matching search. The returned pagination
// is normalized: when the service omits it, the result is treated as the only
// page.
func (c *Client) List(ctx context.Context, page int, search string) ([]model.Writing, model.Pagination, error) {
	params := url.Values{}
	params.Set(config.QueryPage, strconv.Itoa(page))
	if search != "" {
		params.Set(config.QuerySearch, search)
	}

	env, err := c.do(ctx, http.MethodGet, config.PostsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	var writings []model.Writing
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &writings); err != nil {
			return nil, model.Pagination{}, fmt.Errorf("error decoding writings: %w", err)
		}
	}

	return writings, normalizePagination(env.Pagination, page, len(writings)), nil
}

func (c *Client) Get(ctx context.Context, id model.WritingID) (model.Writing, error) {
	env, err := c.do(ctx, http.MethodGet, config.PostsIDPrefix+url.PathEscape(string(id)), nil)
	if err != nil {
		return model.Writing{}, err
	}

	var writing model.Writing
	if err := json.Unmarshal(env.Data, &writing); err != nil {
		return model.Writing{}, fmt.Errorf("error decoding writing: %w", err)
	}
	return writing, nil
}

func (c *Client) Create(ctx context.Context, in model.WritingInput) (model.Writing, error) {
	env, err := c.do(ctx, http.MethodPost, config.PostsPath, in)
	if err != nil {
		return model.Writing{}, err
	}

	var writing model.Writing
	if err := json.Unmarshal(env.Data, &writing); err != nil {
		return model.Writing{}, fmt.Errorf("error decoding created writing: %w", err)
	}
	return writing, nil
}

func (c *Client) Update(ctx context.Context, id model.WritingID, in model.WritingInput) (model.Writing, error) {
	env, err := c.do(ctx, http.MethodPut, config.PostsIDPrefix+url.PathEscape(string(id)), in)
	if err != nil {
		return model.Writing{}, err
	}

	var writing model.Writing
	if err := json.Unmarshal(env.Data, &writing); err != nil {
		return model.Writing{}, fmt.Errorf("error decoding updated writing: %w", err)
	}
	return writing, nil
}

// Autosave sends only the content payload. The service may or may not echo
// the updated writing back; when it does not, nil is returned with no error.
func (c *Client) Autosave(ctx context.Context, id model.WritingID, content string) (*model.Writing, error) {
	body := struct {
		Content string `json:"content"`
	}{Content: content}

	env, err := c.do(ctx, http.MethodPost, config.AutosaveIDPrefix+url.PathEscape(string(id)), body)
	if err != nil {
		return nil, err
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, nil
	}

	var writing model.Writing
	if err := json.Unmarshal(env.Data, &writing); err != nil {
		return nil, fmt.Errorf("error decoding autosaved writing: %w", err)
	}
	return &writing, nil
}

func (c *Client) Delete(ctx context.Context, id model.WritingID) error {
	_, err := c.do(ctx, http.MethodDelete, config.PostsIDPrefix+url.PathEscape(string(id)), nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	if body != nil {
		req.Header.Set(config.HCType, config.CTypeJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteError{Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{Status: resp.StatusCode, Message: err.Error()}
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil {
			msg = env.Error
		}
		apiLogger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("Remote call failed")
		return nil, &RemoteError{Status: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return nil, &RemoteError{Status: resp.StatusCode, Message: config.ErrRemoteNoMessage}
	}

	if !env.Success {
		return nil, &RemoteError{Status: resp.StatusCode, Message: env.Error}
	}

	return &env, nil
}

// normalizePagination fills in the fields the service left out. A missing
// pagination block means the result is the whole dataset for the query.
func normalizePagination(p *model.Pagination, page, count int) model.Pagination {
	if p == nil {
		return model.Pagination{
			CurrentPage: page,
			TotalPages:  page,
			TotalItems:  count,
			HasNext:     false,
			HasPrev:     page > 1,
		}
	}

	norm := *p
	if norm.CurrentPage == 0 {
		norm.CurrentPage = page
	}
	if norm.TotalPages == 0 {
		norm.TotalPages = norm.CurrentPage
	}
	norm.HasNext = norm.CurrentPage < norm.TotalPages
	norm.HasPrev = norm.CurrentPage > 1
	return norm
}
