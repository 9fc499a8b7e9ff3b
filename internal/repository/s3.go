package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/yusufhabibalfatha/nulis/internal/cache"
	"github.com/yusufhabibalfatha/nulis/internal/model"
	"github.com/yusufhabibalfatha/nulis/internal/util/compression"
)

const s3KeyPrefix = "writings/"

// S3WritingRepository stores each writing as one JSON object. Listing pages
// are cut in memory after fetching the matching objects; fine for a personal
// corpus, not for anything bigger.
type S3WritingRepository struct { // implements WritingRepository
	client     *s3.Client
	bucket     string
	compressor compression.Compressor

	writingCache *cache.Cache[string, *model.Writing]
}

func NewS3WritingRepository(accessKeyID, accessKeySecret, baseEndpoint, bucket string) (*S3WritingRepository, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(baseEndpoint)
	})

	return &S3WritingRepository{
		client:     client,
		bucket:     bucket,
		compressor: compression.GzipCompressor{},

		writingCache: cache.NewCache[string, *model.Writing](),
	}, nil
}

func (r *S3WritingRepository) Init() error {
	// Nothing to create up front; the bucket is expected to exist.
	_, err := r.client.ListObjectsV2(context.TODO(), &s3.ListObjectsV2Input{
		Bucket:  aws.String(r.bucket),
		Prefix:  aws.String(s3KeyPrefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("error reaching bucket %s: %w", r.bucket, err)
	}
	return nil
}

func (r *S3WritingRepository) key(id model.WritingID) string {
	return s3KeyPrefix + string(id) + ".json"
}

func (r *S3WritingRepository) List(page, perPage int, search string) ([]model.Writing, int, error) {
	if page < 1 {
		page = 1
	}

	all, err := r.loadAll()
	if err != nil {
		return nil, 0, err
	}

	if search != "" {
		needle := strings.ToLower(search)
		matched := all[:0]
		for _, w := range all {
			if strings.Contains(strings.ToLower(w.Title), needle) {
				matched = append(matched, w)
			}
		}
		all = matched
	}

	slices.SortStableFunc(all, func(a, b model.Writing) int {
		return -a.CreatedDate.Compare(b.CreatedDate)
	})

	total := len(all)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return all[start:end], total, nil
}

func (r *S3WritingRepository) loadAll() ([]model.Writing, error) {
	var writings []model.Writing

	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(s3KeyPrefix),
	})

	for paginator.HasMorePages() {
		entries, err := paginator.NextPage(context.TODO())
		if err != nil {
			return nil, fmt.Errorf("error listing writings: %w", err)
		}

		for _, entry := range entries.Contents {
			writing, err := r.fetch(aws.ToString(entry.Key))
			if err != nil {
				repoLogger.Error().Err(err).Str("key", aws.ToString(entry.Key)).Msg("Skipping unreadable object")
				continue
			}
			writings = append(writings, *writing)
		}
	}

	return writings, nil
}

func (r *S3WritingRepository) fetch(key string) (*model.Writing, error) {
	out, err := r.client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", key, err)
	}

	if aws.ToString(out.ContentEncoding) == "gzip" {
		if data, err = r.compressor.Decompress(data); err != nil {
			return nil, fmt.Errorf("error decompressing %s: %w", key, err)
		}
	}

	var writing model.Writing
	if err := json.Unmarshal(data, &writing); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", key, err)
	}
	return &writing, nil
}

func (r *S3WritingRepository) put(writing *model.Writing) error {
	data, err := json.Marshal(writing)
	if err != nil {
		return fmt.Errorf("error encoding writing: %w", err)
	}

	compressed, err := r.compressor.Compress(data)
	if err != nil {
		return fmt.Errorf("error compressing writing: %w", err)
	}

	_, err = r.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:          aws.String(r.bucket),
		Key:             aws.String(r.key(writing.ID)),
		Body:            bytes.NewReader(compressed),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return fmt.Errorf("error storing writing: %w", err)
	}

	r.writingCache.Set(string(writing.ID), writing)
	return nil
}

func (r *S3WritingRepository) Get(id model.WritingID) (*model.Writing, error) {
	if writing, ok := r.writingCache.Get(string(id)); ok {
		return writing, nil
	}

	writing, err := r.fetch(r.key(id))
	if err != nil {
		return nil, err
	}

	r.writingCache.Set(string(id), writing)
	return writing, nil
}

func (r *S3WritingRepository) Create(in model.WritingInput) (*model.Writing, error) {
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

	if err := r.put(writing); err != nil {
		return nil, err
	}
	return writing, nil
}

func (r *S3WritingRepository) Update(id model.WritingID, in model.WritingInput) (*model.Writing, error) {
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

	if err := r.put(&writing); err != nil {
		return nil, err
	}
	return &writing, nil
}

func (r *S3WritingRepository) Autosave(id model.WritingID, content string) (*model.Writing, error) {
	existing, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	writing := *existing
	writing.Content = content
	writing.ModifiedDate = time.Now().UTC()

	if err := r.put(&writing); err != nil {
		return nil, err
	}
	return &writing, nil
}

func (r *S3WritingRepository) Delete(id model.WritingID) error {
	if _, err := r.Get(id); err != nil {
		return err
	}

	_, err := r.client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	})
	if err != nil {
		return fmt.Errorf("error deleting writing: %w", err)
	}

	r.writingCache.Delete(string(id))
	return nil
}
