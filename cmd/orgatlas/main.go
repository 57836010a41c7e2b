package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/orgatlas/orgatlas/internal/api"
	"github.com/orgatlas/orgatlas/internal/catalog"
	"github.com/orgatlas/orgatlas/internal/config"
	"github.com/orgatlas/orgatlas/internal/docs"
	neo4jstore "github.com/orgatlas/orgatlas/internal/graphstore/neo4j"
	"github.com/orgatlas/orgatlas/internal/observability"
	"github.com/orgatlas/orgatlas/internal/orgchart"
	"github.com/orgatlas/orgatlas/internal/report"
	"github.com/orgatlas/orgatlas/internal/search"
	qdrantstore "github.com/orgatlas/orgatlas/internal/search/qdrant"
	"github.com/orgatlas/orgatlas/internal/secrets"
	"github.com/orgatlas/orgatlas/internal/server"
	temporalmod "github.com/orgatlas/orgatlas/internal/temporal"
)

func main() {
	var (
		configPath string
		format     string
		outputPath string
		fromStore  bool
		jsonReport bool
		healthAddr string
	)

	rootCmd := &cobra.Command{
		Use:   "orgatlas",
		Short: "Catalog-backed org chart and docs build service",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/orgatlas.yaml", "Config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, healthAddr)
		},
	}
	serveCmd.Flags().StringVar(&healthAddr, "health-addr", ":8081", "Health endpoint listen address")

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Build the org chart from the catalog and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(configPath, format, outputPath, fromStore)
		},
	}
	graphCmd.Flags().StringVar(&format, "format", "json", "Output format: json, dot, mermaid, stats")
	graphCmd.Flags().StringVar(&outputPath, "output", "", "Output file (default: stdout)")
	graphCmd.Flags().BoolVar(&fromStore, "from-store", false, "Load the last synced graph from the graph store instead of the catalog")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the catalog, store the graph, and index entities for search",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(configPath, jsonReport)
		},
	}
	syncCmd.Flags().BoolVar(&jsonReport, "json", false, "Output the sync report as JSON")

	rootCmd.AddCommand(serveCmd, graphCmd, syncCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(configPath string) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		cfg = &config.Config{}
	}
	return cfg
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func newCatalogClient(ctx context.Context, cfg *config.Config) *catalog.HTTPClient {
	token := secrets.GetOrDefault(ctx, string(secrets.SecretCatalogToken), cfg.Catalog.Token)

	opts := []catalog.Option{}
	if token != "" {
		opts = append(opts, catalog.WithToken(token))
	}
	if cfg.Catalog.PageSize > 0 {
		opts = append(opts, catalog.WithPageSize(cfg.Catalog.PageSize))
	}
	return catalog.NewHTTPClient(cfg.Catalog.BaseURL, opts...)
}

func chartKinds(cfg *config.Config) []string {
	if len(cfg.Chart.Kinds) > 0 {
		return cfg.Chart.Kinds
	}
	return []string{"Group"}
}

func rootName(cfg *config.Config) string {
	if cfg.Chart.RootName != "" {
		return cfg.Chart.RootName
	}
	return "Organization"
}

func runServe(configPath, healthAddr string) error {
	cfg := loadConfig(configPath)
	logger := setupLogger(cfg)

	if err := secrets.Init(secrets.DefaultConfig()); err != nil {
		return fmt.Errorf("init secrets: %w", err)
	}

	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "orgatlas",
		OTLPEndpoint: os.Getenv("ORGATLAS_OTLP_ENDPOINT"),
		SampleRate:   1.0,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	cat := newCatalogClient(ctx, cfg)

	apiConfig := &api.Config{
		ListenAddr: cfg.Server.ListenAddr,
		RootName:   rootName(cfg),
		Kinds:      chartKinds(cfg),
		SourceRoot: cfg.Docs.SourceRoot,
	}
	if apiConfig.ListenAddr == "" {
		apiConfig.ListenAddr = ":8080"
	}
	if apiConfig.SourceRoot == "" {
		apiConfig.SourceRoot = "./docs-src"
	}

	var opts []api.ServerOption

	graceful := server.NewGracefulServer(&server.HealthConfig{Version: "0.1.0"}, nil)
	graceful.AddHook(server.TracingShutdownHook(tp.Shutdown))

	// Optional graph store: serves the children endpoint.
	if cfg.Graph.URI != "" {
		password := secrets.GetOrDefault(ctx, string(secrets.SecretGraphPassword), cfg.Graph.Password)
		repo, err := neo4jstore.NewNeo4j(ctx, cfg.Graph.URI, cfg.Graph.Username, password)
		if err != nil {
			return fmt.Errorf("connect graph store: %w", err)
		}
		opts = append(opts, api.WithChildren(repo))
		graceful.AddHook(server.GraphStoreShutdownHook(repo.Close))
		graceful.Health.RegisterCheck("graph", server.GraphHealthChecker(func(ctx context.Context) error {
			_, err := repo.QueryChildren(ctx, orgchart.RootID)
			return err
		}))
		logger.Info("graph store connected", "uri", cfg.Graph.URI)
	}

	// Optional search index: serves the search endpoint.
	if cfg.Search.Host != "" {
		repo, err := qdrantstore.NewQdrant(ctx, cfg.Search.Host, cfg.Search.Port, cfg.Search.Collection)
		if err != nil {
			return fmt.Errorf("connect search store: %w", err)
		}
		if err := repo.EnsureCollection(ctx, search.Dimensions); err != nil {
			return fmt.Errorf("ensure search collection: %w", err)
		}
		opts = append(opts, api.WithSearcher(search.NewIndexer(repo)))
		graceful.AddHook(server.SearchShutdownHook(repo.Close))
		logger.Info("search store connected", "host", cfg.Search.Host)
	}

	// Optional Temporal client: serves the docs sync endpoint.
	if cfg.Temporal.Host != "" {
		tc, err := temporalclient.Dial(temporalclient.Options{
			HostPort:  cfg.Temporal.Host,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			return fmt.Errorf("temporal client: %w", err)
		}
		taskQueue := cfg.Temporal.TaskQueue
		if taskQueue == "" {
			taskQueue = temporalmod.TaskQueue
		}
		opts = append(opts, api.WithBuildStarter(temporalmod.NewStarter(tc, taskQueue)))
		graceful.Shutdown.RegisterHook("temporal-client", 40, func(ctx context.Context) error {
			tc.Close()
			return nil
		})
		graceful.Health.RegisterCheck("temporal", server.TemporalHealthChecker(func(ctx context.Context) error {
			_, err := tc.CheckHealth(ctx, &temporalclient.CheckHealthRequest{})
			return err
		}))
		logger.Info("temporal connected", "host", cfg.Temporal.Host, "task_queue", taskQueue)
	}

	// Optional docs publisher: serves the static docs endpoint.
	if cfg.Docs.Publisher != "" && cfg.Docs.Publisher != "none" {
		factory := docs.NewFactory()
		publisher, err := factory.CreatePublisher(docs.BackendConfig{
			Publisher:  cfg.Docs.Publisher,
			PublishDir: cfg.Docs.PublishDir,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("create docs publisher: %w", err)
		}
		if publisher != nil {
			opts = append(opts, api.WithPublisher(publisher))
		}
	}

	publishDir := cfg.Docs.PublishDir
	if publishDir == "" {
		publishDir = "."
	}
	graceful.Health.RegisterCheck("catalog", server.CatalogHealthChecker(cfg.Catalog.BaseURL, nil))
	graceful.Health.RegisterCheck("disk", server.DiskSpaceHealthChecker(publishDir, 100*1024*1024))
	graceful.Health.RegisterCheck("memory", server.MemoryHealthChecker(0))

	srv := api.NewServer(apiConfig, cat, opts...)

	graceful.AddHook(server.HTTPServerShutdownHook("api-server", srv.Stop))

	if err := graceful.Start(healthAddr); err != nil {
		return fmt.Errorf("start health server: %w", err)
	}

	go func() {
		logger.Info("api server listening", "addr", apiConfig.ListenAddr)
		if err := srv.Start(); err != nil {
			logger.Error("api server stopped", "error", err)
			graceful.Shutdown.Shutdown()
		}
	}()

	graceful.Wait()
	return nil
}

func runGraph(configPath, format, outputPath string, fromStore bool) error {
	cfg := loadConfig(configPath)
	setupLogger(cfg)

	if err := secrets.Init(secrets.DefaultConfig()); err != nil {
		return fmt.Errorf("init secrets: %w", err)
	}

	ctx := context.Background()

	var graph *orgchart.Graph
	if fromStore {
		if cfg.Graph.URI == "" {
			return fmt.Errorf("--from-store requires graph.uri in the config")
		}
		password := secrets.GetOrDefault(ctx, string(secrets.SecretGraphPassword), cfg.Graph.Password)
		repo, err := neo4jstore.NewNeo4j(ctx, cfg.Graph.URI, cfg.Graph.Username, password)
		if err != nil {
			return fmt.Errorf("connect graph store: %w", err)
		}
		defer repo.Close(ctx)

		graph, err = repo.LoadGraph(ctx)
		if err != nil {
			return fmt.Errorf("load graph: %w", err)
		}
	} else {
		cat := newCatalogClient(ctx, cfg)
		entities, err := cat.EntitiesByKinds(ctx, chartKinds(cfg)...)
		if err != nil {
			return fmt.Errorf("fetch catalog: %w", err)
		}
		graph = orgchart.Build(entities, rootName(cfg))
	}

	var out []byte
	var err error
	switch format {
	case "json":
		out, err = orgchart.ExportJSON(graph)
		if err != nil {
			return fmt.Errorf("encode graph: %w", err)
		}
	case "dot":
		out = []byte(orgchart.ExportDOT(graph))
	case "mermaid":
		out = []byte(orgchart.ExportMermaid(graph))
	case "stats":
		out = []byte(orgchart.FormatStats(graph))
	default:
		return fmt.Errorf("unknown format %q (want json, dot, mermaid, or stats)", format)
	}

	if outputPath == "" {
		fmt.Println(string(out))
		return nil
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Wrote %s graph to %s\n", format, outputPath)
	return nil
}

func runSync(configPath string, jsonReport bool) error {
	cfg := loadConfig(configPath)
	logger := setupLogger(cfg)

	if err := secrets.Init(secrets.DefaultConfig()); err != nil {
		return fmt.Errorf("init secrets: %w", err)
	}
	if err := observability.InitGlobalAuditLogger(&observability.AuditConfig{
		Enabled:    true,
		OutputPath: "stderr",
	}); err != nil {
		log.Printf("audit logger: %v", err)
	}
	audit := observability.Audit()

	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "orgatlas-sync",
		OTLPEndpoint: os.Getenv("ORGATLAS_OTLP_ENDPOINT"),
		SampleRate:   1.0,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tp.Shutdown(shutdownCtx)
	}()
	kinds := chartKinds(cfg)
	rep := report.New()
	var syncErrors []string

	audit.LogSyncStart(ctx, kinds)

	// Stage 1: fetch the catalog.
	cat := newCatalogClient(ctx, cfg)
	start := time.Now()
	fetchCtx, fetchSpan := observability.StartCatalogFetchSpan(ctx, kinds)
	entities, err := cat.EntitiesByKinds(fetchCtx, kinds...)
	if err != nil {
		observability.RecordError(fetchSpan, err)
		fetchSpan.End()
		audit.LogSyncError(ctx, "catalog.fetch", err)
		return fmt.Errorf("fetch catalog: %w", err)
	}
	observability.RecordCatalogFetch(fetchSpan, len(entities), time.Since(start))
	fetchSpan.End()
	rep.AddStage("catalog.fetch", time.Since(start), len(entities), 0)
	rep.CollectCatalog(cfg.Catalog.BaseURL, kinds, entities)
	audit.LogCatalogFetch(ctx, kinds, len(entities), time.Since(start))
	logger.Info("fetched catalog", "entities", len(entities))

	// Stage 2: build the chart.
	start = time.Now()
	graph := orgchart.Build(entities, rootName(cfg))
	rep.AddStage("chart.build", time.Since(start), graph.Stats.TotalNodes, 0)
	rep.CollectChart(graph)
	audit.LogChartBuild(ctx, graph.Stats.TotalNodes, graph.Stats.TotalEdges, graph.Stats.PlaceholderCount)

	// Stage 3: store the graph.
	if cfg.Graph.URI != "" {
		password := secrets.GetOrDefault(ctx, string(secrets.SecretGraphPassword), cfg.Graph.Password)
		start = time.Now()
		repo, err := neo4jstore.NewNeo4j(ctx, cfg.Graph.URI, cfg.Graph.Username, password)
		if err != nil {
			syncErrors = append(syncErrors, fmt.Sprintf("graph store: %v", err))
			rep.AddStage("graph.store", time.Since(start), 0, 1)
			audit.LogSyncError(ctx, "graph.store", err)
		} else {
			storeCtx, storeSpan := observability.StartGraphStoreSpan(ctx, graph.Stats.TotalNodes, graph.Stats.TotalEdges)
			if err := repo.StoreGraph(storeCtx, graph); err != nil {
				observability.RecordError(storeSpan, err)
				syncErrors = append(syncErrors, fmt.Sprintf("store graph: %v", err))
				rep.AddStage("graph.store", time.Since(start), 0, 1)
				audit.LogSyncError(ctx, "graph.store", err)
			} else {
				rep.AddStage("graph.store", time.Since(start), graph.Stats.TotalNodes, 0)
				audit.LogGraphStore(ctx, graph.Stats.TotalNodes, graph.Stats.TotalEdges, time.Since(start))
			}
			storeSpan.End()
			repo.Close(ctx)
		}
	}

	// Stage 4: index entities for search.
	if cfg.Search.Host != "" {
		start = time.Now()
		repo, err := qdrantstore.NewQdrant(ctx, cfg.Search.Host, cfg.Search.Port, cfg.Search.Collection)
		if err != nil {
			syncErrors = append(syncErrors, fmt.Sprintf("search store: %v", err))
			rep.AddStage("search.index", time.Since(start), 0, 1)
			audit.LogSyncError(ctx, "search.index", err)
		} else {
			indexCtx, indexSpan := observability.StartSearchIndexSpan(ctx, len(entities))
			if err := repo.EnsureCollection(indexCtx, search.Dimensions); err != nil {
				observability.RecordError(indexSpan, err)
				syncErrors = append(syncErrors, fmt.Sprintf("ensure collection: %v", err))
				rep.AddStage("search.index", time.Since(start), 0, 1)
			} else if err := search.NewIndexer(repo).IndexEntities(indexCtx, entities); err != nil {
				observability.RecordError(indexSpan, err)
				syncErrors = append(syncErrors, fmt.Sprintf("index entities: %v", err))
				rep.AddStage("search.index", time.Since(start), 0, 1)
				audit.LogSyncError(ctx, "search.index", err)
			} else {
				observability.Metrics().RecordIndexed(len(entities))
				rep.AddStage("search.index", time.Since(start), len(entities), 0)
				audit.LogSearchIndex(ctx, len(entities), time.Since(start))
			}
			indexSpan.End()
			repo.Close()
		}
	}

	rep.Finish(syncErrors)
	audit.LogSyncComplete(ctx, rep.Duration, len(entities), graph.Stats.TotalNodes, graph.Stats.TotalEdges)

	if jsonReport {
		data, err := rep.JSON()
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Println(string(data))
	} else {
		rep.PrintSummary(os.Stdout)
	}

	if !rep.Succeeded() {
		return fmt.Errorf("sync finished with %d errors", len(syncErrors))
	}
	return nil
}
