// Package metrics exposes bot counters in the Prometheus text format without
// pulling in the full client library.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the process-wide registry.
var Collector = NewRegistry()

// Registry holds counters, gauges and histograms keyed by name and label set.
type Registry struct {
	mu         sync.Mutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	startTime  time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
		startTime:  time.Now(),
	}
}

// Uptime returns how long the registry has existed.
func (r *Registry) Uptime() time.Duration {
	return time.Since(r.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

func (c *Counter) Inc()         { c.value.Add(1) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

func (g *Gauge) Inc()         { g.value.Add(1) }
func (g *Gauge) Dec()         { g.value.Add(-1) }
func (g *Gauge) Value() int64 { return g.value.Load() }

// Histogram tracks the distribution of observed values.
type Histogram struct {
	name    string
	help    string
	labels  string
	mu      sync.Mutex
	count   int64
	sum     float64
	bounds  []float64
	buckets []int64
}

// Observe records v in every bucket whose upper bound is >= v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	for i, le := range h.bounds {
		if v <= le {
			h.buckets[i]++
		}
	}
}

// Count returns the number of observations.
func (h *Histogram) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func key(name, labels string) string { return name + "{" + labels + "}" }

// Counter returns or creates the counter identified by name and labels.
func (r *Registry) Counter(name, help, labels string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(name, labels)
	if c, ok := r.counters[k]; ok {
		return c
	}
	c := &Counter{name: name, help: help, labels: labels}
	r.counters[k] = c
	return c
}

// Gauge returns or creates the gauge identified by name and labels.
func (r *Registry) Gauge(name, help, labels string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(name, labels)
	if g, ok := r.gauges[k]; ok {
		return g
	}
	g := &Gauge{name: name, help: help, labels: labels}
	r.gauges[k] = g
	return g
}

// Histogram returns or creates the histogram identified by name and labels.
// An implicit +Inf bucket is always appended.
func (r *Registry) Histogram(name, help, labels string, bounds []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(name, labels)
	if h, ok := r.histograms[k]; ok {
		return h
	}
	b := append([]float64(nil), bounds...)
	sort.Float64s(b)
	b = append(b, math.Inf(1))
	h := &Histogram{name: name, help: help, labels: labels, bounds: b, buckets: make([]int64, len(b))}
	r.histograms[k] = h
	return h
}

// Handler renders all metrics in Prometheus text exposition format, sorted
// by name and labels so output is stable between scrapes.
func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		fmt.Fprint(w, r.Render())
	}
}

// Render returns the exposition text.
func (r *Registry) Render() string {
	r.mu.Lock()
	counters := sortedValues(r.counters)
	gauges := sortedValues(r.gauges)
	histograms := sortedValues(r.histograms)
	r.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "# HELP weatherbot_uptime_seconds Time since start in seconds\n")
	fmt.Fprintf(&sb, "# TYPE weatherbot_uptime_seconds gauge\n")
	fmt.Fprintf(&sb, "weatherbot_uptime_seconds %d\n", int64(r.Uptime().Seconds()))

	seen := make(map[string]bool)
	for _, c := range counters {
		writeHeader(&sb, seen, c.name, c.help, "counter")
		fmt.Fprintf(&sb, "%s %d\n", series(c.name, c.labels), c.Value())
	}
	for _, g := range gauges {
		writeHeader(&sb, seen, g.name, g.help, "gauge")
		fmt.Fprintf(&sb, "%s %d\n", series(g.name, g.labels), g.Value())
	}
	for _, h := range histograms {
		writeHeader(&sb, seen, h.name, h.help, "histogram")
		h.mu.Lock()
		for i, le := range h.bounds {
			bound := fmt.Sprintf("%g", le)
			if math.IsInf(le, 1) {
				bound = "+Inf"
			}
			labels := `le="` + bound + `"`
			if h.labels != "" {
				labels = h.labels + "," + labels
			}
			fmt.Fprintf(&sb, "%s %d\n", series(h.name+"_bucket", labels), h.buckets[i])
		}
		fmt.Fprintf(&sb, "%s %d\n", series(h.name+"_count", h.labels), h.count)
		fmt.Fprintf(&sb, "%s %f\n", series(h.name+"_sum", h.labels), h.sum)
		h.mu.Unlock()
	}
	return sb.String()
}

func writeHeader(sb *strings.Builder, seen map[string]bool, name, help, typ string) {
	if seen[name] {
		return
	}
	seen[name] = true
	fmt.Fprintf(sb, "# HELP %s %s\n", name, help)
	fmt.Fprintf(sb, "# TYPE %s %s\n", name, typ)
}

func series(name, labels string) string {
	if labels == "" {
		return name
	}
	return name + "{" + labels + "}"
}

func sortedValues[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// --- Metrics used across the bot ---

var (
	UpdatesTotal  = Collector.Counter("weatherbot_updates_total", "Telegram updates handled", "")
	TurnsInFlight = Collector.Gauge("weatherbot_turns_in_flight", "Conversation turns currently running", "")
)

var latencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// GatewayRequest returns the request counter for a gateway kind and outcome.
func GatewayRequest(kind, outcome string) *Counter {
	return Collector.Counter("weatherbot_gateway_requests_total", "Provider requests by gateway and outcome",
		fmt.Sprintf(`kind=%q,outcome=%q`, kind, outcome))
}

// GatewayLatency returns the latency histogram for a gateway kind.
func GatewayLatency(kind string) *Histogram {
	return Collector.Histogram("weatherbot_gateway_latency_seconds", "Provider request latency in seconds",
		fmt.Sprintf(`kind=%q`, kind), latencyBuckets)
}
