package main

import (
	"context"
	"fmt"
	"log"
	"os"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/orgatlas/orgatlas/internal/catalog"
	"github.com/orgatlas/orgatlas/internal/config"
	"github.com/orgatlas/orgatlas/internal/docs"
	"github.com/orgatlas/orgatlas/internal/search"
	qdrantstore "github.com/orgatlas/orgatlas/internal/search/qdrant"
	"github.com/orgatlas/orgatlas/internal/secrets"
	"github.com/orgatlas/orgatlas/internal/server"
	temporalmod "github.com/orgatlas/orgatlas/internal/temporal"
)

func main() {
	configPath := "configs/orgatlas.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := secrets.Init(secrets.DefaultConfig()); err != nil {
		log.Fatalf("secrets: %v", err)
	}

	ctx := context.Background()

	token := secrets.GetOrDefault(ctx, string(secrets.SecretCatalogToken), cfg.Catalog.Token)
	var catOpts []catalog.Option
	if token != "" {
		catOpts = append(catOpts, catalog.WithToken(token))
	}
	if cfg.Catalog.PageSize > 0 {
		catOpts = append(catOpts, catalog.WithPageSize(cfg.Catalog.PageSize))
	}
	cat := catalog.NewHTTPClient(cfg.Catalog.BaseURL, catOpts...)

	// Build docs backends via factory (supports generator-less operation).
	factory := docs.NewFactory()
	backendCfg := docs.DefaultBackendConfig()
	if cfg.Docs.Generator != "" {
		backendCfg.Generator = cfg.Docs.Generator
	}
	if cfg.Docs.Publisher != "" {
		backendCfg.Publisher = cfg.Docs.Publisher
	}
	if cfg.Docs.Command != "" {
		backendCfg.Command = cfg.Docs.Command
		backendCfg.Args = cfg.Docs.Args
	}
	if cfg.Docs.PublishDir != "" {
		backendCfg.PublishDir = cfg.Docs.PublishDir
	}

	generator, err := factory.CreateGenerator(backendCfg)
	if err != nil {
		log.Fatalf("docs generator: %v", err)
	}
	publisher, err := factory.CreatePublisher(backendCfg)
	if err != nil {
		log.Fatalf("docs publisher: %v", err)
	}

	shutdown := server.NewShutdownHandler(nil)

	// Optional search indexer for the post-publish indexing step.
	var indexer *search.Indexer
	if cfg.Search.Host != "" {
		repo, err := qdrantstore.NewQdrant(ctx, cfg.Search.Host, cfg.Search.Port, cfg.Search.Collection)
		if err != nil {
			log.Fatalf("search store: %v", err)
		}
		shutdown.AddHook(server.SearchShutdownHook(repo.Close))
		if err := repo.EnsureCollection(ctx, search.Dimensions); err != nil {
			log.Fatalf("ensure search collection: %v", err)
		}
		indexer = search.NewIndexer(repo)
	}

	temporalmod.SetDependencies(&temporalmod.Dependencies{
		Catalog:   cat,
		Generator: generator,
		Publisher: publisher,
		Indexer:   indexer,
	})

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	shutdown.RegisterHook("temporal-client", 30, func(ctx context.Context) error {
		c.Close()
		return nil
	})

	taskQueue := cfg.Temporal.TaskQueue
	if taskQueue == "" {
		taskQueue = temporalmod.TaskQueue
	}

	w, err := temporalmod.StartWorker(c, taskQueue)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}
	shutdown.AddHook(server.TemporalWorkerShutdownHook(w.Stop))

	fmt.Printf("Worker started on task queue: %s\n", taskQueue)

	shutdown.Start()
	shutdown.Wait()
	fmt.Println("Worker stopped")
}
