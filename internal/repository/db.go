package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yusufhabibalfatha/nulis/internal/cache"
	"github.com/yusufhabibalfatha/nulis/internal/db"
	"github.com/yusufhabibalfatha/nulis/internal/model"
	"github.com/yusufhabibalfatha/nulis/internal/util"
	"github.com/yusufhabibalfatha/nulis/internal/util/compression"
)

type DBWritingRepository struct { // implements WritingRepository
	db db.DB

	// Hot path for single reads; invalidated on every write.
	writingCache *cache.Cache[string, *model.Writing]

	compressor compression.Compressor
}

func NewDBWritingRepository(db db.DB) *DBWritingRepository {
	return &DBWritingRepository{
		db: db,

		writingCache: cache.NewCache[string, *model.Writing](),

		compressor: compression.ZstdCompressor{},
	}
}

func (r *DBWritingRepository) Init() error {
	return r.db.Init()
}

func (r *DBWritingRepository) List(page, perPage int, search string) ([]model.Writing, int, error) {
	if page < 1 {
		page = 1
	}

	pattern := "%" + search + "%"

	var total int
	row := r.db.QueryRow(`SELECT COUNT(*) FROM writings WHERE title LIKE ?`, pattern)
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting writings: %w", err)
	}

	rows, err := r.db.Query(
		`SELECT id, title, content, excerpt, status, created_at, modified_at
		 FROM writings WHERE title LIKE ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		pattern, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying writings: %w", err)
	}
	defer rows.Close()

	writings := make([]model.Writing, 0)
	for rows.Next() {
		writing, err := r.scanWriting(rows)
		if err != nil {
			return nil, 0, err
		}
		writings = append(writings, *writing)
	}

	return writings, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *DBWritingRepository) scanWriting(row scanner) (*model.Writing, error) {
	var writing model.Writing
	var compressed []byte

	err := row.Scan(&writing.ID, &writing.Title, &compressed, &writing.Excerpt,
		&writing.Status, &writing.CreatedDate, &writing.ModifiedDate)
	if err != nil {
		return nil, fmt.Errorf("error scanning writing: %w", err)
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content: %w", err)
	}
	writing.Content = string(content)

	return &writing, nil
}

func (r *DBWritingRepository) Get(id model.WritingID) (*model.Writing, error) {
	if writing, ok := r.writingCache.Get(string(id)); ok {
		return writing, nil
	}

	row := r.db.QueryRow(
		`SELECT id, title, content, excerpt, status, created_at, modified_at
		 FROM writings WHERE id = ?`, string(id))

	writing, err := r.scanWriting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r.writingCache.Set(string(id), writing)
	return writing, nil
}

func (r *DBWritingRepository) Create(in model.WritingInput) (*model.Writing, error) {
	now := time.Now().UTC()

	writing := &model.Writing{
		ID:           model.WritingID(uuid.New().String()),
		Title:        in.Title,
		Content:      in.Content,
		Excerpt:      in.Excerpt,
		Status:       in.Status,
		CreatedDate:  now,
		ModifiedDate: now,
	}
	if writing.Title == "" {
		writing.Title = model.DefaultTitle
	}
	if !writing.Status.Valid() {
		writing.Status = model.StatusDraft
	}

	compressed, err := r.compressor.Compress([]byte(writing.Content))
	if err != nil {
		return nil, fmt.Errorf("error compressing content: %w", err)
	}

	res, err := r.db.Exec(
		`INSERT INTO writings (id, title, content, excerpt, status, content_hash, created_at, modified_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(writing.ID), writing.Title, compressed, writing.Excerpt, string(writing.Status),
		util.ContentHash(compressed), writing.CreatedDate, writing.ModifiedDate,
	)
	if err != nil {
		return nil, fmt.Errorf("error saving writing: %w", err)
	}

	repoLogger.Debug().Interface("result", res).Str("id", string(writing.ID)).Msg("Writing created")

	r.writingCache.Set(string(writing.ID), writing)
	return writing, nil
}

func (r *DBWritingRepository) Update(id model.WritingID, in model.WritingInput) (*model.Writing, error) {
	existing, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	writing := *existing
	writing.Title = in.Title
	writing.Content = in.Content
	writing.Excerpt = in.Excerpt
	writing.Status = in.Status
	writing.ModifiedDate = time.Now().UTC()
	if writing.Title == "" {
		writing.Title = model.DefaultTitle
	}
	if !writing.Status.Valid() {
		writing.Status = existing.Status
	}

	compressed, err := r.compressor.Compress([]byte(writing.Content))
	if err != nil {
		return nil, fmt.Errorf("error compressing content: %w", err)
	}

	_, err = r.db.Exec(
		`UPDATE writings SET title = ?, content = ?, excerpt = ?, status = ?, content_hash = ?, modified_at = ?
		 WHERE id = ?`,
		writing.Title, compressed, writing.Excerpt, string(writing.Status),
		util.ContentHash(compressed), writing.ModifiedDate, string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("error updating writing: %w", err)
	}

	r.writingCache.Set(string(id), &writing)
	return &writing, nil
}

func (r *DBWritingRepository) Autosave(id model.WritingID, content string) (*model.Writing, error) {
	existing, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	writing := *existing
	writing.Content = content
	writing.ModifiedDate = time.Now().UTC()

	compressed, err := r.compressor.Compress([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("error compressing content: %w", err)
	}

	_, err = r.db.Exec(
		`UPDATE writings SET content = ?, content_hash = ?, modified_at = ? WHERE id = ?`,
		compressed, util.ContentHash(compressed), writing.ModifiedDate, string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("error auto-saving writing: %w", err)
	}

	r.writingCache.Set(string(id), &writing)
	return &writing, nil
}

func (r *DBWritingRepository) Delete(id model.WritingID) error {
	res, err := r.db.Exec(`DELETE FROM writings WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("error deleting writing: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	r.writingCache.Delete(string(id))
	return nil
}
