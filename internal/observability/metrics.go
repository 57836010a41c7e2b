package observability

import (
	"net/http"
	"sync"
	"time"
)

// MetricsRegistry holds all registered metrics.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	histos   map[string]*Histogram
}

// Counter is a monotonically increasing metric.
type Counter struct {
	name   string
	help   string
	labels map[string]string
	value  float64
	mu     sync.Mutex
}

// Gauge is a metric that can go up or down.
type Gauge struct {
	name   string
	help   string
	labels map[string]string
	value  float64
	mu     sync.Mutex
}

// Histogram tracks distribution of values.
type Histogram struct {
	name    string
	help    string
	labels  map[string]string
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
	mu      sync.Mutex
}

// NewMetricsRegistry creates a new metrics registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		histos:   make(map[string]*Histogram),
	}
}

// NewCounter creates and registers a counter.
func (r *MetricsRegistry) NewCounter(name, help string, labels map[string]string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Counter{name: name, help: help, labels: labels}
	r.counters[name] = c
	return c
}

// NewGauge creates and registers a gauge.
func (r *MetricsRegistry) NewGauge(name, help string, labels map[string]string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := &Gauge{name: name, help: help, labels: labels}
	r.gauges[name] = g
	return g
}

// NewHistogram creates and registers a histogram.
func (r *MetricsRegistry) NewHistogram(name, help string, labels map[string]string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	if buckets == nil {
		buckets = DefaultBuckets()
	}

	h := &Histogram{
		name:    name,
		help:    help,
		labels:  labels,
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
	r.histos[name] = h
	return h
}

// DefaultBuckets returns default histogram buckets for latency.
func DefaultBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
}

// Inc increments a counter by 1.
func (c *Counter) Inc() {
	c.Add(1)
}

// Add adds a value to the counter.
func (c *Counter) Add(v float64) {
	c.mu.Lock()
	c.value += v
	c.mu.Unlock()
}

// Value returns the counter value.
func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set sets the gauge value.
func (g *Gauge) Set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() {
	g.Add(1)
}

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() {
	g.Add(-1)
}

// Add adds a value to the gauge.
func (g *Gauge) Add(v float64) {
	g.mu.Lock()
	g.value += v
	g.mu.Unlock()
}

// Value returns the gauge value.
func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += v
	h.count++

	for i, bound := range h.buckets {
		if v <= bound {
			h.counts[i]++
		}
	}
}

// ObserveDuration records a duration in the histogram.
func (h *Histogram) ObserveDuration(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Handler returns an HTTP handler for Prometheus metrics.
func (r *MetricsRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WritePrometheus(w)
	})
}

// WritePrometheus writes metrics in Prometheus text format.
func (r *MetricsRegistry) WritePrometheus(w http.ResponseWriter) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Write counters
	for _, c := range r.counters {
		c.mu.Lock()
		writeMetric(w, c.name, "counter", c.help, c.labels, c.value)
		c.mu.Unlock()
	}

	// Write gauges
	for _, g := range r.gauges {
		g.mu.Lock()
		writeMetric(w, g.name, "gauge", g.help, g.labels, g.value)
		g.mu.Unlock()
	}

	// Write histograms
	for _, h := range r.histos {
		h.mu.Lock()
		writeHistogram(w, h)
		h.mu.Unlock()
	}
}

func writeMetric(w http.ResponseWriter, name, metricType, help string, labels map[string]string, value float64) {
	w.Write([]byte("# HELP " + name + " " + help + "\n"))
	w.Write([]byte("# TYPE " + name + " " + metricType + "\n"))
	w.Write([]byte(name + formatLabels(labels) + " "))
	w.Write([]byte(formatFloat(value) + "\n"))
}

func writeHistogram(w http.ResponseWriter, h *Histogram) {
	w.Write([]byte("# HELP " + h.name + " " + h.help + "\n"))
	w.Write([]byte("# TYPE " + h.name + " histogram\n"))

	// Write bucket counts
	var cumulative uint64
	for i, bound := range h.buckets {
		cumulative += h.counts[i]
		labels := copyLabels(h.labels)
		labels["le"] = formatFloat(bound)
		w.Write([]byte(h.name + "_bucket" + formatLabels(labels) + " "))
		w.Write([]byte(formatUint(cumulative) + "\n"))
	}

	// Write +Inf bucket
	labels := copyLabels(h.labels)
	labels["le"] = "+Inf"
	w.Write([]byte(h.name + "_bucket" + formatLabels(labels) + " "))
	w.Write([]byte(formatUint(h.count) + "\n"))

	// Write sum and count
	w.Write([]byte(h.name + "_sum" + formatLabels(h.labels) + " "))
	w.Write([]byte(formatFloat(h.sum) + "\n"))
	w.Write([]byte(h.name + "_count" + formatLabels(h.labels) + " "))
	w.Write([]byte(formatUint(h.count) + "\n"))
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	result := "{"
	first := true
	for k, v := range labels {
		if !first {
			result += ","
		}
		result += k + "=\"" + v + "\""
		first = false
	}
	result += "}"
	return result
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return make(map[string]string)
	}
	result := make(map[string]string, len(labels))
	for k, v := range labels {
		result[k] = v
	}
	return result
}

func formatFloat(v float64) string {
	return string(appendFloat(nil, v))
}

func formatUint(v uint64) string {
	return string(appendUint(nil, v))
}

func appendFloat(b []byte, v float64) []byte {
	return append(b, []byte(floatToString(v))...)
}

func appendUint(b []byte, v uint64) []byte {
	return append(b, []byte(uintToString(v))...)
}

func floatToString(v float64) string {
	if v == float64(int64(v)) {
		return uintToString(uint64(v))
	}
	// Simple float formatting
	intPart := int64(v)
	fracPart := int64((v - float64(intPart)) * 1000000)
	if fracPart < 0 {
		fracPart = -fracPart
	}
	return uintToString(uint64(intPart)) + "." + padZeros(fracPart, 6)
}

func uintToString(v uint64) string {
	if v == 0 {
		return "0"
	}
	var digits [20]byte
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[i:])
}

func padZeros(v int64, width int) string {
	s := uintToString(uint64(v))
	for len(s) < width {
		s = "0" + s
	}
	// Trim trailing zeros
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}

// OrgAtlas-specific metrics

// ServiceMetrics contains all OrgAtlas-specific metrics.
type ServiceMetrics struct {
	Registry *MetricsRegistry

	// Catalog metrics
	CatalogRequestsTotal   *Counter
	CatalogRequestDuration *Histogram
	CatalogEntitiesGauge   *Gauge
	CatalogErrorsTotal     *Counter

	// Chart metrics
	ChartBuildsTotal   *Counter
	ChartBuildDuration *Histogram
	ChartNodesGauge    *Gauge
	ChartEdgesGauge    *Gauge

	// Docs metrics
	DocsBuildsTotal       *Counter
	DocsBuildsFailedTotal *Counter
	DocsBuildDuration     *Histogram

	// Search metrics
	SearchQueriesTotal  *Counter
	SearchQueryDuration *Histogram
	SearchIndexedTotal  *Counter

	// Active SSE clients gauge
	ActiveStreamClients *Gauge
}

// NewServiceMetrics creates OrgAtlas-specific metrics.
func NewServiceMetrics() *ServiceMetrics {
	r := NewMetricsRegistry()

	return &ServiceMetrics{
		Registry: r,

		// Catalog
		CatalogRequestsTotal:   r.NewCounter("orgatlas_catalog_requests_total", "Total catalog API requests", nil),
		CatalogRequestDuration: r.NewHistogram("orgatlas_catalog_request_duration_seconds", "Catalog request duration", nil, nil),
		CatalogEntitiesGauge:   r.NewGauge("orgatlas_catalog_entities", "Entities from the last catalog fetch", nil),
		CatalogErrorsTotal:     r.NewCounter("orgatlas_catalog_errors_total", "Total catalog errors", nil),

		// Chart
		ChartBuildsTotal:   r.NewCounter("orgatlas_chart_builds_total", "Total org chart builds", nil),
		ChartBuildDuration: r.NewHistogram("orgatlas_chart_build_duration_seconds", "Org chart build duration", nil, nil),
		ChartNodesGauge:    r.NewGauge("orgatlas_chart_nodes", "Nodes in the last built chart", nil),
		ChartEdgesGauge:    r.NewGauge("orgatlas_chart_edges", "Edges in the last built chart", nil),

		// Docs
		DocsBuildsTotal:       r.NewCounter("orgatlas_docs_builds_total", "Total docs builds started", nil),
		DocsBuildsFailedTotal: r.NewCounter("orgatlas_docs_builds_failed_total", "Total docs builds failed", nil),
		DocsBuildDuration:     r.NewHistogram("orgatlas_docs_build_duration_seconds", "Docs build duration", nil, nil),

		// Search
		SearchQueriesTotal:  r.NewCounter("orgatlas_search_queries_total", "Total search queries", nil),
		SearchQueryDuration: r.NewHistogram("orgatlas_search_query_duration_seconds", "Search query duration", nil, nil),
		SearchIndexedTotal:  r.NewCounter("orgatlas_search_indexed_total", "Total documents indexed", nil),

		// Streams
		ActiveStreamClients: r.NewGauge("orgatlas_active_stream_clients", "Number of connected SSE clients", nil),
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *ServiceMetrics) Handler() http.Handler {
	return m.Registry.Handler()
}

// RecordCatalogRequest records a catalog API request.
func (m *ServiceMetrics) RecordCatalogRequest(duration time.Duration, entityCount int, err error) {
	m.CatalogRequestsTotal.Inc()
	m.CatalogRequestDuration.Observe(duration.Seconds())
	if err != nil {
		m.CatalogErrorsTotal.Inc()
		return
	}
	m.CatalogEntitiesGauge.Set(float64(entityCount))
}

// RecordChartBuild records an org chart build.
func (m *ServiceMetrics) RecordChartBuild(duration time.Duration, nodeCount, edgeCount int) {
	m.ChartBuildsTotal.Inc()
	m.ChartBuildDuration.Observe(duration.Seconds())
	m.ChartNodesGauge.Set(float64(nodeCount))
	m.ChartEdgesGauge.Set(float64(edgeCount))
}

// RecordDocsBuild records a docs build.
func (m *ServiceMetrics) RecordDocsBuild(duration time.Duration, success bool) {
	m.DocsBuildsTotal.Inc()
	m.DocsBuildDuration.Observe(duration.Seconds())
	if !success {
		m.DocsBuildsFailedTotal.Inc()
	}
}

// RecordSearchQuery records a search query.
func (m *ServiceMetrics) RecordSearchQuery(duration time.Duration) {
	m.SearchQueriesTotal.Inc()
	m.SearchQueryDuration.Observe(duration.Seconds())
}

// RecordIndexed records documents written to the search index.
func (m *ServiceMetrics) RecordIndexed(count int) {
	m.SearchIndexedTotal.Add(float64(count))
}

// Global metrics instance
var globalMetrics *ServiceMetrics
var metricsOnce sync.Once

// Metrics returns the global metrics instance.
func Metrics() *ServiceMetrics {
	metricsOnce.Do(func() {
		globalMetrics = NewServiceMetrics()
	})
	return globalMetrics
}
