package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"weatherbot/internal/domain"
	"weatherbot/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// secretParams are query parameters whose values never reach logs or users.
var secretParams = []string{"appid", "apiKey", "apikey"}

// Client performs the single GET each gateway needs and reports the outcome
// to metrics and an optional call recorder.
type Client struct {
	http     *http.Client
	recorder domain.CallRecorder
	logger   *slog.Logger
}

type ClientConfig struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Recorder   domain.CallRecorder // optional
	Logger     *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = SharedHTTPClient(cfg.Timeout)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{http: cfg.HTTPClient, recorder: cfg.Recorder, logger: cfg.Logger}
}

// GetJSON issues one GET to endpoint?params and decodes the body into out.
// The HTTP status is not checked: providers report failures inside the JSON
// body, and a body that is not JSON is a decode error.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	u.RawQuery = params.Encode()
	safe := Redact(u)

	// Spans carry only the redacted URL.
	ctx, span := otel.Tracer("weatherbot/provider").Start(ctx, "GET "+u.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.full", safe),
			attribute.String("server.address", u.Hostname()),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.logger.Debug("provider request", "url", safe)

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error embeds the full URL including the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		err = fmt.Errorf("request %s: %w", safe, err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.SetStatus(codes.Error, "decode response")
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

// Observe publishes a finished call to metrics, the log and the recorder.
// Recorder failures are logged and never affect the reply.
func (c *Client) Observe(ctx context.Context, call domain.GatewayCall) {
	if call.At.IsZero() {
		call.At = time.Now()
	}
	metrics.GatewayRequest(call.Kind, string(call.Outcome)).Inc()
	metrics.GatewayLatency(call.Kind).Observe(call.Duration.Seconds())

	level := slog.LevelInfo
	if call.Outcome != domain.OutcomeOK {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "gateway call",
		"kind", call.Kind,
		"city", call.City,
		"outcome", call.Outcome,
		"detail", call.Detail,
		"duration", call.Duration,
	)

	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, call); err != nil {
		c.logger.Warn("usage record failed", "kind", call.Kind, "err", err)
	}
}

// Redact renders u with secret query values replaced by "***".
func Redact(u *url.URL) string {
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "***")
			changed = true
		}
	}
	if !changed {
		return u.String()
	}
	cp := *u
	cp.RawQuery = q.Encode()
	// Encode escapes the mask; keep it readable.
	cp.RawQuery = strings.ReplaceAll(cp.RawQuery, "%2A%2A%2A", "***")
	return cp.String()
}
