package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"weatherbot/internal/config"
	"weatherbot/internal/domain"
	"weatherbot/internal/provider"
)

const (
	kindWeather  = "weather"
	kindForecast = "forecast"
)

// Gateway turns a city name into a displayable current-weather or forecast
// message. Its methods never fail: provider and transport errors become text.
type Gateway struct {
	client *provider.Client
	cfg    config.WeatherConfig
	logger *slog.Logger
}

func NewGateway(client *provider.Client, cfg config.WeatherConfig, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{client: client, cfg: cfg, logger: logger}
}

// Current fetches the current weather for city. Success is a numeric cod of 200.
func (g *Gateway) Current(ctx context.Context, city string) string {
	start := time.Now()
	var resp CurrentResponse
	err := g.client.GetJSON(ctx, g.endpoint("weather"), g.params(city), &resp)
	if err == nil && resp.Cod.IsNumber(200) {
		err = resp.Validate()
	}

	call := domain.GatewayCall{Kind: kindWeather, City: city, Duration: time.Since(start)}
	var reply string
	switch {
	case err != nil:
		call.Outcome, call.Detail = domain.OutcomeTransportError, err.Error()
		reply = fmt.Sprintf("Произошла ошибка при получении данных о погоде: %s", err)
	case resp.Cod.IsNumber(200):
		call.Outcome = domain.OutcomeOK
		reply = FormatCurrent(&resp)
	default:
		msg := resp.MessageText()
		call.Outcome, call.Detail = domain.OutcomeProviderError, msg
		reply = fmt.Sprintf("Не удалось найти информацию о погоде для города: %s. Причина: %s", city, msg)
	}
	g.client.Observe(ctx, call)
	return reply
}

// Forecast fetches the 5-day/3-hour forecast for city. Unlike Current, this
// endpoint signals success with the string "200".
func (g *Gateway) Forecast(ctx context.Context, city string) string {
	start := time.Now()
	var resp ForecastResponse
	err := g.client.GetJSON(ctx, g.endpoint("forecast"), g.params(city), &resp)
	if err == nil && resp.Cod.IsString("200") {
		err = resp.Validate()
	}

	call := domain.GatewayCall{Kind: kindForecast, City: city, Duration: time.Since(start)}
	var reply string
	switch {
	case err != nil:
		call.Outcome, call.Detail = domain.OutcomeTransportError, err.Error()
		reply = fmt.Sprintf("Произошла ошибка при получении данных о прогнозе погоды: %s", err)
	case resp.Cod.IsString("200"):
		call.Outcome = domain.OutcomeOK
		reply = FormatForecast(&resp)
	default:
		msg := resp.MessageText()
		call.Outcome, call.Detail = domain.OutcomeProviderError, msg
		reply = fmt.Sprintf("Не удалось найти информацию о прогнозе погоды для города: %s. Причина: %s", city, msg)
	}
	g.client.Observe(ctx, call)
	return reply
}

func (g *Gateway) endpoint(path string) string {
	return strings.TrimRight(g.cfg.APIBase, "/") + "/" + path
}

func (g *Gateway) params(city string) url.Values {
	return url.Values{
		"q":     {city},
		"appid": {g.cfg.APIKey},
		"units": {g.cfg.Units},
		"lang":  {g.cfg.Lang},
	}
}
