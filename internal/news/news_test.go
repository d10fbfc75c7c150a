package news

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"weatherbot/internal/config"
	"weatherbot/internal/domain"
	"weatherbot/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []domain.GatewayCall
}

func (l *callLog) Record(_ context.Context, call domain.GatewayCall) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
	return nil
}

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	return newRecordedGateway(t, handler, nil)
}

func newRecordedGateway(t *testing.T, handler http.HandlerFunc, rec domain.CallRecorder) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults().News
	cfg.APIBase = srv.URL + "/v2"
	cfg.APIKey = "news-key"
	client := provider.NewClient(provider.ClientConfig{HTTPClient: srv.Client(), Recorder: rec, Logger: logger})
	return NewGateway(client, cfg, logger)
}

func articlesJSON(k int) string {
	items := make([]string, k)
	for i := range items {
		items[i] = fmt.Sprintf(`{"title":"T%d","description":"D%d","url":"https://example.com/%d","publishedAt":"2026-10-19T10:00:00Z"}`, i, i, i)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestFormat(t *testing.T) {
	got := Format("Москва", []Article{
		{Title: "A", Description: "a", URL: "https://a"},
		{Title: "B", Description: "b", URL: "https://b"},
	}, 5)
	assert.Equal(t, "Последние новости о Москва:\n\nA\na\nhttps://a\n\nB\nb\nhttps://b", got)
}

func TestFormat_Limit(t *testing.T) {
	arts := make([]Article, 8)
	for i := range arts {
		arts[i] = Article{Title: fmt.Sprintf("T%d", i), URL: "u"}
	}
	got := Format("Paris", arts, 5)
	assert.Contains(t, got, "T4")
	assert.NotContains(t, got, "T5")
	assert.Equal(t, got, Format("Paris", arts, 5))
}

func TestFormat_NoArticles(t *testing.T) {
	assert.Equal(t, "Последние новости о Paris:\n\n", Format("Paris", nil, 5))
}

func TestLatest_Success(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/everything", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Moscow", q.Get("q"))
		assert.Equal(t, "news-key", q.Get("apiKey"))
		assert.Equal(t, "ru", q.Get("language"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.Equal(t, "5", q.Get("pageSize"))
		fmt.Fprintf(w, `{"status":"ok","totalResults":3,"articles":%s}`, articlesJSON(3))
	})

	got := g.Latest(context.Background(), "Moscow")
	assert.True(t, strings.HasPrefix(got, "Последние новости о Moscow:\n\n"), got)
	assert.Equal(t, 3, strings.Count(got, "https://example.com/"))
	assert.Less(t, strings.Index(got, "T0"), strings.Index(got, "T2"))
}

func TestLatest_NullDescription(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok","articles":[{"title":"T","description":null,"url":"https://x"}]}`)
	})
	got := g.Latest(context.Background(), "Moscow")
	assert.Contains(t, got, "T\n\nhttps://x")
}

func TestLatest_ProviderFailure(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`)
	})
	got := g.Latest(context.Background(), "Moscow")
	assert.Equal(t, "Не удалось найти новости для города: Moscow. Причина: Your API key is invalid", got)
}

func TestLatest_ProviderFailureRecordsCode(t *testing.T) {
	rec := &callLog{}
	g := newRecordedGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"status":"error","code":"rateLimited","message":"Too many requests"}`)
	}, rec)

	got := g.Latest(context.Background(), "Moscow")
	assert.Equal(t, "Не удалось найти новости для города: Moscow. Причина: Too many requests", got)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, domain.OutcomeProviderError, rec.calls[0].Outcome)
	assert.Equal(t, "rateLimited: Too many requests", rec.calls[0].Detail)
}

func TestLatest_ProviderFailureWithoutCode(t *testing.T) {
	rec := &callLog{}
	g := newRecordedGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","message":"boom"}`)
	}, rec)

	g.Latest(context.Background(), "Moscow")
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "boom", rec.calls[0].Detail)
}

func TestLatest_MissingArticles(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	got := g.Latest(context.Background(), "Moscow")
	assert.True(t, strings.HasPrefix(got, "Произошла ошибка при получении новостей: "), got)
}

func TestLatest_MalformedJSON(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})
	got := g.Latest(context.Background(), "Moscow")
	assert.True(t, strings.HasPrefix(got, "Произошла ошибка при получении новостей: "), got)
}
