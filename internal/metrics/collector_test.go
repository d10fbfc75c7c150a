package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CounterIsShared(t *testing.T) {
	r := NewRegistry()
	a := r.Counter("x_total", "help", `kind="a"`)
	b := r.Counter("x_total", "help", `kind="a"`)
	a.Inc()
	b.Inc()
	assert.Same(t, a, b)
	assert.Equal(t, int64(2), a.Value())
}

func TestRegistry_Gauge(t *testing.T) {
	r := NewRegistry()
	g := r.Gauge("inflight", "help", "")
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, int64(1), g.Value())
}

func TestHistogram_Buckets(t *testing.T) {
	r := NewRegistry()
	h := r.Histogram("lat", "help", "", []float64{1, 0.5})
	h.Observe(0.2)
	h.Observe(0.7)
	h.Observe(3)

	out := r.Render()
	assert.Contains(t, out, `lat_bucket{le="0.5"} 1`)
	assert.Contains(t, out, `lat_bucket{le="1"} 2`)
	assert.Contains(t, out, `lat_bucket{le="+Inf"} 3`)
	assert.Contains(t, out, "lat_count 3")
	assert.Equal(t, int64(3), h.Count())
}

func TestRender_HeadersOncePerName(t *testing.T) {
	r := NewRegistry()
	r.Counter("req_total", "requests", `kind="weather"`).Inc()
	r.Counter("req_total", "requests", `kind="news"`).Inc()

	out := r.Render()
	assert.Equal(t, 1, strings.Count(out, "# TYPE req_total counter"))
	assert.Contains(t, out, `req_total{kind="news"} 1`)
	assert.Contains(t, out, `req_total{kind="weather"} 1`)
	assert.Less(t, strings.Index(out, `kind="news"`), strings.Index(out, `kind="weather"`))
}

func TestHandler_ContentType(t *testing.T) {
	r := NewRegistry()
	rec := httptest.NewRecorder()
	r.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "weatherbot_uptime_seconds")
}

func TestGatewayRequest_Labels(t *testing.T) {
	c := GatewayRequest("forecast", "ok")
	before := c.Value()
	GatewayRequest("forecast", "ok").Inc()
	assert.Equal(t, before+1, c.Value())
	assert.Contains(t, Collector.Render(), `weatherbot_gateway_requests_total{kind="forecast",outcome="ok"}`)
}
