package temporal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orgatlas/orgatlas/internal/catalog"
	"github.com/orgatlas/orgatlas/internal/docs"
	"github.com/orgatlas/orgatlas/internal/observability"
	"github.com/orgatlas/orgatlas/internal/search"
)

// EntityResult is the serializable entity passed between activities.
type EntityResult struct {
	Ref        string
	EntityJSON string
}

// BuildOutput is the serializable result of a generation run.
type BuildOutput struct {
	OutputDir string
	Duration  time.Duration
}

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Catalog   catalog.Client
	Generator docs.Generator
	Publisher docs.Publisher
	Indexer   *search.Indexer
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

// FetchEntityActivity resolves the entity ref against the catalog.
func FetchEntityActivity(ctx context.Context, ref string) (EntityResult, error) {
	parsed, err := catalog.ParseRef(ref)
	if err != nil {
		return EntityResult{}, err
	}

	ctx, span := observability.StartCatalogFetchSpan(ctx, []string{parsed.Kind})
	defer span.End()

	start := time.Now()
	entities, err := deps.Catalog.EntitiesByKind(ctx, parsed.Kind)
	observability.Metrics().RecordCatalogRequest(time.Since(start), len(entities), err)
	if err != nil {
		observability.RecordError(span, err)
		return EntityResult{}, fmt.Errorf("list %s entities: %w", parsed.Kind, err)
	}
	observability.RecordCatalogFetch(span, len(entities), time.Since(start))

	for _, e := range entities {
		if e.Ref() == parsed.String() {
			data, err := json.Marshal(e)
			if err != nil {
				return EntityResult{}, fmt.Errorf("marshal entity: %w", err)
			}
			return EntityResult{Ref: ref, EntityJSON: string(data)}, nil
		}
	}
	return EntityResult{}, fmt.Errorf("entity %q not found in catalog", ref)
}

// GenerateDocsActivity runs the docs generator for the entity.
func GenerateDocsActivity(ctx context.Context, input DocsBuildInput) (BuildOutput, error) {
	if deps.Generator == nil {
		return BuildOutput{}, fmt.Errorf("no docs generator configured")
	}

	ctx, span := observability.StartDocsGenerateSpan(ctx, input.EntityRef)
	defer span.End()

	start := time.Now()
	result, err := deps.Generator.Generate(ctx, docs.BuildRequest{
		EntityRef: input.EntityRef,
		SourceDir: input.SourceDir,
	})
	observability.Metrics().RecordDocsBuild(time.Since(start), err == nil)
	if err != nil {
		observability.RecordError(span, err)
		return BuildOutput{}, err
	}
	observability.RecordDocsBuild(span, result.OutputDir, result.Duration)
	return BuildOutput{OutputDir: result.OutputDir, Duration: result.Duration}, nil
}

// PublishDocsActivity moves the generated site to its serving location.
func PublishDocsActivity(ctx context.Context, entityRef, outputDir string) error {
	if deps.Publisher == nil {
		return fmt.Errorf("no docs publisher configured")
	}

	ctx, span := observability.StartDocsPublishSpan(ctx, entityRef)
	defer span.End()

	if err := deps.Publisher.Publish(ctx, entityRef, outputDir); err != nil {
		observability.RecordError(span, err)
		return err
	}
	return nil
}

// IndexEntityActivity refreshes the search index for the entity.
func IndexEntityActivity(ctx context.Context, entity EntityResult) error {
	if deps.Indexer == nil {
		return nil
	}
	var e catalog.Entity
	if err := json.Unmarshal([]byte(entity.EntityJSON), &e); err != nil {
		return fmt.Errorf("unmarshal entity: %w", err)
	}

	ctx, span := observability.StartSearchIndexSpan(ctx, 1)
	defer span.End()

	if err := deps.Indexer.IndexEntities(ctx, []catalog.Entity{e}); err != nil {
		observability.RecordError(span, err)
		return err
	}
	observability.Metrics().RecordIndexed(1)
	return nil
}
