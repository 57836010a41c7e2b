// Package docs builds and publishes documentation sites for catalog
// entities by delegating to external generator and publisher backends.
package docs

import (
	"context"
	"time"
)

// BuildRequest identifies the entity and source tree to build docs for.
type BuildRequest struct {
	EntityRef string
	SourceDir string
}

// BuildResult describes a completed generation run.
type BuildResult struct {
	EntityRef string
	OutputDir string
	Duration  time.Duration
}

// Generator turns an entity's documentation source into a static site.
type Generator interface {
	// Generate builds the site and returns where the output landed.
	Generate(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// Publisher moves a generated site to its serving location and resolves
// URLs for previously published content.
type Publisher interface {
	// Publish stores the generated site for the given entity.
	Publish(ctx context.Context, entityRef, outputDir string) error
	// Resolve maps an entity ref and relative path to a servable file path.
	Resolve(entityRef, relPath string) (string, error)
	// Has reports whether docs exist for the entity.
	Has(entityRef string) bool
}
