// Package news fetches and renders the latest articles mentioning a city.
package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"weatherbot/internal/config"
	"weatherbot/internal/domain"
	"weatherbot/internal/provider"
)

const kindNews = "news"

// ErrMissingArticles is returned for an "ok" response without an articles array.
var ErrMissingArticles = errors.New("missing field: articles")

type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Response is the body of the NewsAPI "everything" endpoint.
type Response struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []Article `json:"articles"`
}

// Format renders up to limit articles, in provider order, under a header
// naming city. A non-positive limit renders all of them.
func Format(city string, articles []Article, limit int) string {
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	blocks := make([]string, len(articles))
	for i, a := range articles {
		blocks[i] = a.Title + "\n" + a.Description + "\n" + a.URL
	}
	return fmt.Sprintf("Последние новости о %s:\n\n%s", city, strings.Join(blocks, "\n\n"))
}

// Gateway turns a city name into a displayable news digest. Latest never
// fails: provider and transport errors become text.
type Gateway struct {
	client *provider.Client
	cfg    config.NewsConfig
	logger *slog.Logger
}

func NewGateway(client *provider.Client, cfg config.NewsConfig, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{client: client, cfg: cfg, logger: logger}
}

// Latest searches for articles mentioning city, newest first.
func (g *Gateway) Latest(ctx context.Context, city string) string {
	start := time.Now()
	params := url.Values{
		"q":        {city},
		"apiKey":   {g.cfg.APIKey},
		"language": {g.cfg.Language},
		"sortBy":   {g.cfg.SortBy},
		"pageSize": {strconv.Itoa(g.cfg.PageSize)},
	}

	var resp Response
	err := g.client.GetJSON(ctx, strings.TrimRight(g.cfg.APIBase, "/")+"/everything", params, &resp)
	if err == nil && resp.Status == "ok" && resp.Articles == nil {
		err = ErrMissingArticles
	}

	call := domain.GatewayCall{Kind: kindNews, City: city, Duration: time.Since(start)}
	var reply string
	switch {
	case err != nil:
		call.Outcome, call.Detail = domain.OutcomeTransportError, err.Error()
		reply = fmt.Sprintf("Произошла ошибка при получении новостей: %s", err)
	case resp.Status == "ok":
		call.Outcome = domain.OutcomeOK
		reply = Format(city, resp.Articles, g.cfg.PageSize)
	default:
		call.Outcome, call.Detail = domain.OutcomeProviderError, resp.Message
		if resp.Code != "" {
			call.Detail = resp.Code + ": " + resp.Message
		}
		reply = fmt.Sprintf("Не удалось найти новости для города: %s. Причина: %s", city, resp.Message)
	}
	g.client.Observe(ctx, call)
	return reply
}
