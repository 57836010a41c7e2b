// Package api exposes the org chart, entity search, and docs build
// surface over HTTP, with server-sent events for build progress.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orgatlas/orgatlas/internal/catalog"
	"github.com/orgatlas/orgatlas/internal/docs"
	"github.com/orgatlas/orgatlas/internal/graphstore"
	"github.com/orgatlas/orgatlas/internal/observability"
	"github.com/orgatlas/orgatlas/internal/orgchart"
	"github.com/orgatlas/orgatlas/internal/search"
	"github.com/orgatlas/orgatlas/internal/temporal"
)

// buildWatchTimeout bounds how long a docs build is tracked before it is
// marked failed.
const buildWatchTimeout = 30 * time.Minute

// Config holds API server configuration.
type Config struct {
	ListenAddr string   // e.g. ":8080"
	RootName   string   // display name of the synthetic root node
	Kinds      []string // entity kinds included in the org chart
	SourceRoot string   // base directory for docs sources
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr: ":8080",
		RootName:   "Organization",
		Kinds:      []string{"Group"},
		SourceRoot: "./docs-src",
	}
}

// EntityLister lists catalog entities for the requested kinds.
type EntityLister interface {
	EntitiesByKinds(ctx context.Context, kinds ...string) ([]catalog.Entity, error)
}

// ChildrenQuerier answers direct-report queries from the graph store.
// Unknown refs yield graphstore.ErrNotFound.
type ChildrenQuerier interface {
	QueryChildren(ctx context.Context, ref string) ([]string, error)
}

// Searcher answers free-text entity queries.
type Searcher interface {
	Query(ctx context.Context, query string, topK int) ([]search.SearchResult, error)
}

// BuildStarter launches docs build workflows and reports their outcome.
type BuildStarter interface {
	StartDocsBuild(ctx context.Context, input temporal.DocsBuildInput) (string, error)
	// AwaitDocsBuild blocks until the workflow finishes.
	AwaitDocsBuild(ctx context.Context, workflowID string) (*temporal.DocsBuildOutput, error)
}

// Server is the orgatlas HTTP server.
type Server struct {
	config    *Config
	catalog   EntityLister
	publisher docs.Publisher
	children  ChildrenQuerier
	searcher  Searcher
	builds    BuildStarter
	store     *Store
	hub       *Hub
	emitter   *Emitter
	metrics   *observability.ServiceMetrics
	server    *http.Server
}

// NewServer creates a new API server. Optional collaborators (publisher,
// children, searcher, builds) may be nil; their routes then return 503.
func NewServer(config *Config, cat EntityLister, opts ...ServerOption) *Server {
	s := &Server{
		config:  config,
		catalog: cat,
		store:   NewStore(),
		hub:     NewHub(),
		metrics: observability.Metrics(),
	}
	s.emitter = NewEmitter(s.store, s.hub)
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/orgchart", s.handleOrgChart)
	mux.HandleFunc("GET /api/orgchart/stats", s.handleOrgChartStats)
	mux.HandleFunc("GET /api/orgchart/children/{ref}", s.handleChildren)
	mux.HandleFunc("GET /api/entities", s.handleEntities)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/builds", s.handleBuilds)
	mux.HandleFunc("GET /api/builds/stats", s.handleBuildStats)
	mux.HandleFunc("GET /api/builds/{id}", s.handleBuildDetail)
	mux.HandleFunc("GET /api/builds/{id}/logs", s.handleBuildLogs)
	mux.HandleFunc("GET /api/docs/static/{namespace}/{kind}/{name}/", s.handleDocsStatic)
	mux.HandleFunc("POST /api/docs/sync/{namespace}/{kind}/{name}", s.handleDocsSync)
	mux.HandleFunc("GET /api/events", s.handleSSE)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	handler := corsMiddleware(loggingMiddleware(mux))

	s.server = &http.Server{
		Addr:         config.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// ServerOption wires an optional collaborator into the server.
type ServerOption func(*Server)

func WithPublisher(p docs.Publisher) ServerOption  { return func(s *Server) { s.publisher = p } }
func WithChildren(c ChildrenQuerier) ServerOption  { return func(s *Server) { s.children = c } }
func WithSearcher(sr Searcher) ServerOption        { return func(s *Server) { s.searcher = sr } }
func WithBuildStarter(b BuildStarter) ServerOption { return func(s *Server) { s.builds = b } }

// Handler returns the server's root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving.
func (s *Server) Start() error {
	slog.Info("Starting API server", "addr", s.config.ListenAddr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	slog.Info("Stopping API server")
	return s.server.Shutdown(ctx)
}

// handleOrgChart handles GET /api/orgchart?kind=...&format=json|dot|mermaid
func (s *Server) handleOrgChart(w http.ResponseWriter, r *http.Request) {
	kinds := s.config.Kinds
	if kind := r.URL.Query().Get("kind"); kind != "" {
		kinds = strings.Split(kind, ",")
	}

	graph, err := s.buildChart(r.Context(), kinds)
	if err != nil {
		slog.Error("org chart build failed", "error", err)
		http.Error(w, "Failed to build org chart", http.StatusBadGateway)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		respondJSON(w, graph)
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		fmt.Fprint(w, orgchart.ExportDOT(graph))
	case "mermaid":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, orgchart.ExportMermaid(graph))
	default:
		http.Error(w, "Unknown format", http.StatusBadRequest)
	}
}

// handleOrgChartStats handles GET /api/orgchart/stats
func (s *Server) handleOrgChartStats(w http.ResponseWriter, r *http.Request) {
	graph, err := s.buildChart(r.Context(), s.config.Kinds)
	if err != nil {
		slog.Error("org chart build failed", "error", err)
		http.Error(w, "Failed to build org chart", http.StatusBadGateway)
		return
	}
	respondJSON(w, graph.Stats)
}

// handleChildren handles GET /api/orgchart/children/{ref}
func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	if s.children == nil {
		http.Error(w, "Graph store not configured", http.StatusServiceUnavailable)
		return
	}

	ref := r.PathValue("ref")
	if _, err := catalog.ParseRef(ref); err != nil && ref != orgchart.RootID {
		http.Error(w, "Invalid entity reference", http.StatusBadRequest)
		return
	}

	children, err := s.children.QueryChildren(r.Context(), ref)
	if err != nil {
		if errors.Is(err, graphstore.ErrNotFound) {
			http.Error(w, "Unknown entity reference", http.StatusNotFound)
			return
		}
		slog.Error("children query failed", "ref", ref, "error", err)
		http.Error(w, "Query failed", http.StatusBadGateway)
		return
	}
	if children == nil {
		children = []string{}
	}
	respondJSON(w, map[string]any{"ref": ref, "children": children})
}

// handleEntities handles GET /api/entities?kind=...
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	kinds := s.config.Kinds
	if kind := r.URL.Query().Get("kind"); kind != "" {
		kinds = strings.Split(kind, ",")
	}

	entities, err := s.catalog.EntitiesByKinds(r.Context(), kinds...)
	if err != nil {
		slog.Error("catalog listing failed", "error", err)
		http.Error(w, "Catalog unavailable", http.StatusBadGateway)
		return
	}
	respondJSON(w, entities)
}

// handleSearch handles GET /api/search?q=...&limit=...
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		http.Error(w, "Search not configured", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, "Query parameter q required", http.StatusBadRequest)
		return
	}
	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	ctx, span := observability.StartSearchQuerySpan(r.Context(), q, limit)
	defer span.End()

	start := time.Now()
	results, err := s.searcher.Query(ctx, q, limit)
	s.metrics.RecordSearchQuery(time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		slog.Error("search failed", "query", q, "error", err)
		http.Error(w, "Search failed", http.StatusBadGateway)
		return
	}
	observability.RecordSearchResult(span, len(results), time.Since(start))
	respondJSON(w, results)
}

// handleBuilds handles GET /api/builds
func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.store.ListRuns())
}

// handleBuildStats handles GET /api/builds/stats
func (s *Server) handleBuildStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.store.GetStats())
}

// handleBuildDetail handles GET /api/builds/{id}
func (s *Server) handleBuildDetail(w http.ResponseWriter, r *http.Request) {
	run, ok := s.store.GetRun(r.PathValue("id"))
	if !ok {
		http.Error(w, "Build not found", http.StatusNotFound)
		return
	}
	respondJSON(w, run)
}

// handleBuildLogs handles GET /api/builds/{id}/logs?limit=...
func (s *Server) handleBuildLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	respondJSON(w, s.store.GetLogs(r.PathValue("id"), limit))
}

// handleDocsStatic serves published docs:
// GET /api/docs/static/{namespace}/{kind}/{name}/{path...}
func (s *Server) handleDocsStatic(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		http.Error(w, "Docs not configured", http.StatusServiceUnavailable)
		return
	}

	ref := s.refFromPath(r)
	if !s.publisher.Has(ref) {
		http.Error(w, "No published docs for entity", http.StatusNotFound)
		return
	}

	prefix := fmt.Sprintf("/api/docs/static/%s/%s/%s/",
		r.PathValue("namespace"), r.PathValue("kind"), r.PathValue("name"))
	rel := strings.TrimPrefix(r.URL.Path, prefix)

	full, err := s.publisher.Resolve(ref, rel)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, full)
}

// handleDocsSync handles POST /api/docs/sync/{namespace}/{kind}/{name}
func (s *Server) handleDocsSync(w http.ResponseWriter, r *http.Request) {
	if s.builds == nil {
		http.Error(w, "Docs builds not configured", http.StatusServiceUnavailable)
		return
	}

	ref := s.refFromPath(r)
	if _, err := catalog.ParseRef(ref); err != nil {
		http.Error(w, "Invalid entity reference", http.StatusBadRequest)
		return
	}

	var body struct {
		SourceDir string `json:"source_dir"`
		Index     bool   `json:"index"`
	}
	if r.Body != nil {
		// Empty bodies are fine; sync falls back to the configured source root.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.SourceDir == "" {
		body.SourceDir = path.Join(s.config.SourceRoot, r.PathValue("kind"), r.PathValue("name"))
	}

	input := temporal.DocsBuildInput{
		EntityRef: ref,
		SourceDir: body.SourceDir,
		Index:     body.Index,
	}
	workflowID, err := s.builds.StartDocsBuild(r.Context(), input)
	if err != nil {
		slog.Error("docs build start failed", "ref", ref, "error", err)
		http.Error(w, "Failed to start build", http.StatusBadGateway)
		return
	}

	runID := uuid.NewString()
	s.emitter.BuildStarted(runID, ref, workflowID)
	go s.watchBuild(runID, ref, workflowID)

	w.WriteHeader(http.StatusAccepted)
	respondJSON(w, map[string]string{
		"run_id":      runID,
		"workflow_id": workflowID,
		"entity_ref":  ref,
	})
}

// watchBuild follows a started workflow to completion and drives the run's
// lifecycle events.
func (s *Server) watchBuild(runID, entityRef, workflowID string) {
	ctx, cancel := context.WithTimeout(context.Background(), buildWatchTimeout)
	defer cancel()

	out, err := s.builds.AwaitDocsBuild(ctx, workflowID)
	if err != nil {
		slog.Error("docs build failed", "ref", entityRef, "workflow_id", workflowID, "error", err)
		s.emitter.Log(runID, "error", fmt.Sprintf("docs build for %s failed: %v", entityRef, err))
		s.emitter.BuildFailed(runID, err)
		return
	}

	s.emitter.Log(runID, "info", fmt.Sprintf("docs published for %s", entityRef))
	if out.Indexed {
		s.emitter.Log(runID, "info", "search index refreshed")
	}
	s.emitter.BuildCompleted(runID, out.Indexed)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleSSE handles GET /api/events (Server-Sent Events)
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	client, err := NewClient(s.hub, w)
	if err != nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Long-lived stream; lift the server write deadline for this response.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	_ = rc.SetReadDeadline(time.Time{})

	s.hub.Register(client)
	defer s.hub.Unregister(client)

	slog.Info("SSE client connected")

	connEvent := &Event{
		Type:      EventConnected,
		Timestamp: time.Now(),
	}
	data, _ := json.Marshal(connEvent)
	client.send(data)

	go client.KeepAlive(30 * time.Second)

	<-r.Context().Done()
	slog.Info("SSE client disconnected")
}

// buildChart fetches the configured kinds and builds the org chart,
// recording traces and metrics for both steps.
func (s *Server) buildChart(ctx context.Context, kinds []string) (*orgchart.Graph, error) {
	ctx, span := observability.StartCatalogFetchSpan(ctx, kinds)
	start := time.Now()
	entities, err := s.catalog.EntitiesByKinds(ctx, kinds...)
	s.metrics.RecordCatalogRequest(time.Since(start), len(entities), err)
	if err != nil {
		observability.RecordError(span, err)
		span.End()
		return nil, err
	}
	observability.RecordCatalogFetch(span, len(entities), time.Since(start))
	span.End()

	_, buildSpan := observability.StartChartBuildSpan(ctx, len(entities))
	defer buildSpan.End()

	buildStart := time.Now()
	graph := orgchart.Build(entities, s.config.RootName)
	s.metrics.RecordChartBuild(time.Since(buildStart), graph.Stats.TotalNodes, graph.Stats.TotalEdges)
	observability.RecordChartBuild(buildSpan, graph.Stats.TotalNodes, graph.Stats.TotalEdges, graph.Stats.PlaceholderCount)
	return graph, nil
}

func (s *Server) refFromPath(r *http.Request) string {
	return fmt.Sprintf("%s:%s/%s",
		strings.ToLower(r.PathValue("kind")),
		strings.ToLower(r.PathValue("namespace")),
		r.PathValue("name"))
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
