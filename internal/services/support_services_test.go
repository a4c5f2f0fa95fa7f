package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/ChatbotX/internal/core"
	"github.com/markdave123-py/ChatbotX/internal/core/article"
	db "github.com/markdave123-py/ChatbotX/internal/core/database"
	"github.com/markdave123-py/ChatbotX/internal/models"
)

func TestUserService_Reconcile(t *testing.T) {
	store := db.NewMemoryClient()
	svc := NewUserService(store)
	ctx := context.Background()

	p := models.Principal{UserID: "u-1", Email: "ada@example.com", FirstName: "Ada"}
	created, err := svc.Reconcile(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)

	same, err := svc.Reconcile(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt, same.UpdatedAt, "unchanged claims do not rewrite the row")

	p.LastName = "Lovelace"
	updated, err := svc.Reconcile(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", updated.LastName)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err := svc.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", got.LastName)

	_, err = svc.Get(ctx, "missing")
	var nErr *core.NotFoundError
	assert.ErrorAs(t, err, &nErr)

	_, err = svc.Reconcile(ctx, models.Principal{})
	assert.Error(t, err)
}

func TestWatchlistService_Add(t *testing.T) {
	store := db.NewMemoryClient()
	_, err := store.UpsertUser(context.Background(), &models.User{ID: "u-1"})
	require.NoError(t, err)
	svc := NewWatchlistService(store)

	name := " Apple Inc. "
	item, err := svc.Add(context.Background(), "u-1", " aapl", &name)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", item.Symbol)
	require.NotNil(t, item.CompanyName)
	assert.Equal(t, "Apple Inc.", *item.CompanyName)

	blank := "  "
	item, err = svc.Add(context.Background(), "u-1", "msft", &blank)
	require.NoError(t, err)
	assert.Nil(t, item.CompanyName)

	_, err = svc.Add(context.Background(), "u-1", "  ", nil)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	items, err := svc.List(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "MSFT", items[0].Symbol)
}

func TestEmotionalStateService(t *testing.T) {
	store := db.NewMemoryClient()
	_, err := store.UpsertUser(context.Background(), &models.User{ID: "u-1"})
	require.NoError(t, err)

	llm := &fakeLLM{jsonText: `{"sentiment":"pessimistic","rating":2,"confidence":0.64}`}
	svc := NewEmotionalStateService(store, NewAdvisoryService(llm))
	ctx := context.Background()

	latest, err := svc.Latest(ctx, "u-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	state, err := svc.Record(ctx, "u-1", models.SentimentOptimistic, 0.73, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.73, state.Confidence)

	_, err = svc.Record(ctx, "u-1", "euphoric", 1.2, nil)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "sentiment")
	assert.Contains(t, vErr.Fields, "confidence")

	state, sent, err := svc.RecordFromText(ctx, "u-1", "Markets keep falling and I'm worried")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPessimistic, sent.Sentiment)
	assert.Equal(t, models.SentimentPessimistic, state.Sentiment)
	require.NotNil(t, state.Notes)
	assert.Equal(t, "Markets keep falling and I'm worried", *state.Notes)

	latest, err = svc.Latest(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, state.ID, latest.ID)

	_, _, err = svc.RecordFromText(ctx, "u-1", " ")
	assert.ErrorAs(t, err, &vErr)
}

type fakeObjectClient struct {
	mu      sync.Mutex
	keys    []string
	objects map[string][]byte
	err     error
}

func (f *fakeObjectClient) UploadFile(_ context.Context, bucket, key string, data io.Reader, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.keys = append(f.keys, key)
	f.objects[key] = body
	return "https://" + bucket + ".example/" + key, nil
}

func (f *fakeObjectClient) GetFile(_ context.Context, _, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[key]
	if !ok {
		return nil, &core.NotFoundError{Resource: "archived article"}
	}
	return body, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractText(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

func TestArticleService_SummarizeText(t *testing.T) {
	llm := &fakeLLM{text: "Short summary."}
	svc := NewArticleService(NewAdvisoryService(llm), fakeExtractor{}, nil, "")

	out, err := svc.SummarizeText(context.Background(), "Fed holds rates.")
	require.NoError(t, err)
	assert.Equal(t, "Short summary.", out)
	assert.Equal(t, 1, llm.calls())

	_, err = svc.SummarizeText(context.Background(), "  ")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestArticleService_SummarizeLongTextInChunks(t *testing.T) {
	llm := &fakeLLM{text: "partial"}
	svc := NewArticleService(NewAdvisoryService(llm), fakeExtractor{}, nil, "")

	line := strings.Repeat("x", 400) // 100 tokens
	text := strings.Repeat(line+"\n", 200)

	out, err := svc.SummarizeText(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "partial", out)
	assert.Greater(t, llm.calls(), 2)
	assert.Contains(t, llm.lastPrompt(), "partial\n\npartial")
}

func TestArticleService_SummarizeSingleLineInChunks(t *testing.T) {
	llm := &fakeLLM{text: "partial"}
	svc := NewArticleService(NewAdvisoryService(llm), fakeExtractor{}, nil, "")

	text := strings.Repeat("Markets rallied on strong earnings. ", 1200) // ~10800 tokens, no newlines

	out, err := svc.SummarizeText(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "partial", out)
	assert.Greater(t, llm.calls(), 3)
	for _, p := range llm.prompts[:llm.calls()-1] {
		assert.LessOrEqual(t, article.ApproxTokens(p), chunkTokens+overlapTokens)
	}
}

func TestArticleService_SummarizeUpload(t *testing.T) {
	llm := &fakeLLM{text: "Earnings beat."}
	objects := &fakeObjectClient{}
	svc := NewArticleService(NewAdvisoryService(llm), fakeExtractor{text: "Q3 earnings beat estimates."}, objects, "articles")

	out, err := svc.SummarizeUpload(context.Background(), "u-1", "q3 report.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "Earnings beat.", out.Summary)
	assert.True(t, strings.HasPrefix(out.ArchiveKey, "users/u-1/articles/"))
	assert.True(t, strings.HasSuffix(out.ArchiveKey, "/q3_report.pdf"))
	assert.Equal(t, []string{out.ArchiveKey}, objects.keys)
}

func TestArticleService_SummarizeUploadArchiveFailureIsTolerated(t *testing.T) {
	svc := NewArticleService(
		NewAdvisoryService(&fakeLLM{text: "ok"}),
		fakeExtractor{text: "body"},
		&fakeObjectClient{err: errors.New("access denied")},
		"articles",
	)

	out, err := svc.SummarizeUpload(context.Background(), "u-1", "a.txt", "text/plain", []byte("body"))
	require.NoError(t, err)
	assert.Empty(t, out.ArchiveKey)
	assert.Equal(t, "ok", out.Summary)
}

func TestArticleService_SummarizeUploadRejectsEmpty(t *testing.T) {
	svc := NewArticleService(NewAdvisoryService(&fakeLLM{text: "ok"}), fakeExtractor{}, nil, "")
	var vErr *core.ValidationError

	_, err := svc.SummarizeUpload(context.Background(), "u-1", "a.txt", "text/plain", nil)
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.SummarizeUpload(context.Background(), "u-1", "a.txt", "text/plain", []byte("   "))
	assert.ErrorAs(t, err, &vErr)
}

func TestArticleService_SummarizeArchived(t *testing.T) {
	llm := &fakeLLM{text: "Guidance raised."}
	objects := &fakeObjectClient{}
	svc := NewArticleService(NewAdvisoryService(llm), fakeExtractor{text: "Guidance raised for FY25."}, objects, "articles")
	ctx := context.Background()

	up, err := svc.SummarizeUpload(ctx, "u-1", "guidance.txt", "text/plain", []byte("Guidance raised for FY25."))
	require.NoError(t, err)
	require.NotEmpty(t, up.ArchiveKey)

	out, err := svc.SummarizeArchived(ctx, "u-1", up.ArchiveKey)
	require.NoError(t, err)
	assert.Equal(t, "Guidance raised.", out.Summary)
	assert.Equal(t, up.ArchiveKey, out.ArchiveKey)

	var nErr *core.NotFoundError
	for name, call := range map[string]func() error{
		"other user": func() error {
			_, err := svc.SummarizeArchived(ctx, "u-2", up.ArchiveKey)
			return err
		},
		"escaping prefix": func() error {
			_, err := svc.SummarizeArchived(ctx, "u-2", "users/u-2/articles/../../u-1/articles/x.txt")
			return err
		},
		"unknown key": func() error {
			_, err := svc.SummarizeArchived(ctx, "u-1", "users/u-1/articles/missing/a.txt")
			return err
		},
		"archive disabled": func() error {
			_, err := NewArticleService(NewAdvisoryService(llm), fakeExtractor{}, nil, "").SummarizeArchived(ctx, "u-1", up.ArchiveKey)
			return err
		},
	} {
		assert.ErrorAs(t, call(), &nErr, name)
	}

	_, err = svc.SummarizeArchived(ctx, "u-1", "  ")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
