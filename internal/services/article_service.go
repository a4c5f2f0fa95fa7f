package services

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/core/article"
)

const (
	// Texts above directTokens are summarized chunk by chunk first.
	directTokens  = 8000
	chunkTokens   = 4000
	overlapTokens = 100
	chunkWorkers  = 4
)

// Summarizer is satisfied by AdvisoryService.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

var _ Summarizer = (*AdvisoryService)(nil)

type ArticleSummary struct {
	Summary    string `json:"summary"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

// ArticleService summarizes pasted or uploaded articles. storage may be nil,
// in which case uploads are not archived.
type ArticleService struct {
	summarizer Summarizer
	extractor  core.TextExtractor
	storage    core.ObjectClient
	bucket     string
}

func NewArticleService(summarizer Summarizer, extractor core.TextExtractor, storage core.ObjectClient, bucket string) *ArticleService {
	return &ArticleService{summarizer: summarizer, extractor: extractor, storage: storage, bucket: bucket}
}

func (s *ArticleService) SummarizeText(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &core.ValidationError{
			Message: "Text is required",
			Fields:  map[string]string{"text": "required"},
		}
	}
	if article.ApproxTokens(text) <= directTokens {
		return s.summarizer.Summarize(ctx, text)
	}

	chunks := article.Chunk(text, chunkTokens, overlapTokens)
	partials := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkWorkers)
	for i, c := range chunks {
		g.Go(func() error {
			sum, err := s.summarizer.Summarize(gctx, c)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			partials[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	return s.summarizer.Summarize(ctx, strings.Join(partials, "\n\n"))
}

// SummarizeUpload archives the file when storage is configured, extracts its
// text and summarizes it.
func (s *ArticleService) SummarizeUpload(ctx context.Context, userID, filename, contentType string, data []byte) (*ArticleSummary, error) {
	if len(data) == 0 {
		return nil, &core.ValidationError{
			Message: "File is empty",
			Fields:  map[string]string{"file": "required"},
		}
	}
	contentType = article.ResolveContentType(filename, contentType)

	out := &ArticleSummary{}
	if s.storage != nil && s.bucket != "" {
		key := objectKey(userID, filename)
		if _, err := s.storage.UploadFile(ctx, s.bucket, key, bytes.NewReader(data), contentType); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("article archive failed")
		} else {
			out.ArchiveKey = key
		}
	}

	text, err := s.extractor.ExtractText(ctx, data, contentType)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, &core.ValidationError{
			Message: "No readable text in file",
			Fields:  map[string]string{"file": "no text"},
		}
	}

	out.Summary, err = s.SummarizeText(ctx, text)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SummarizeArchived re-summarizes an upload previously archived under key.
// Keys outside the caller's own prefix are reported as not found.
func (s *ArticleService) SummarizeArchived(ctx context.Context, userID, key string) (*ArticleSummary, error) {
	if s.storage == nil || s.bucket == "" {
		return nil, &core.NotFoundError{Resource: "archived article"}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, &core.ValidationError{
			Message: "Archive key is required",
			Fields:  map[string]string{"archiveKey": "required"},
		}
	}
	if path.Clean(key) != key || !strings.HasPrefix(key, userPrefix(userID)) {
		return nil, &core.NotFoundError{Resource: "archived article"}
	}

	data, err := s.storage.GetFile(ctx, s.bucket, key)
	if err != nil {
		return nil, err
	}
	text, err := s.extractor.ExtractText(ctx, data, article.ResolveContentType(path.Base(key), ""))
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, &core.ValidationError{
			Message: "No readable text in file",
			Fields:  map[string]string{"archiveKey": "no text"},
		}
	}

	summary, err := s.SummarizeText(ctx, text)
	if err != nil {
		return nil, err
	}
	return &ArticleSummary{Summary: summary, ArchiveKey: key}, nil
}

func userPrefix(userID string) string {
	return path.Join("users", userID, "articles") + "/"
}

// objectKey lays out archived uploads as users/<id>/articles/<uuid>/<name>.
func objectKey(userID, filename string) string {
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "." || filename == "/" || filename == "" {
		filename = "article"
	}
	filename = strings.ReplaceAll(filename, " ", "_")
	return userPrefix(userID) + path.Join(uuid.NewString(), filename)
}
