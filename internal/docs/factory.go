package docs

import (
	"fmt"
	"log/slog"
	"time"
)

// BackendConfig holds all configuration needed to create docs backends.
type BackendConfig struct {
	Generator string // "exec", "none"
	Publisher string // "localfs", "none"

	// Generator settings.
	Command string
	Args    []string
	Timeout time.Duration

	// Publisher settings.
	PublishDir string

	Logger *slog.Logger
}

// DefaultBackendConfig returns a config with sensible defaults.
func DefaultBackendConfig() BackendConfig {
	return BackendConfig{
		Generator:  "exec",
		Publisher:  "localfs",
		Command:    "mkdocs",
		Args:       []string{"build", "--site-dir", "{output}"},
		Timeout:    5 * time.Minute,
		PublishDir: "./docs-site",
	}
}

// GeneratorConstructor builds a Generator from config.
type GeneratorConstructor func(cfg BackendConfig) (Generator, error)

// PublisherConstructor builds a Publisher from config.
type PublisherConstructor func(cfg BackendConfig) (Publisher, error)

// Factory creates docs backends from config.
type Factory struct {
	generators map[string]GeneratorConstructor
	publishers map[string]PublisherConstructor
}

// NewFactory creates a factory with the built-in backends pre-registered.
func NewFactory() *Factory {
	f := &Factory{
		generators: make(map[string]GeneratorConstructor),
		publishers: make(map[string]PublisherConstructor),
	}
	f.RegisterGenerator("exec", func(cfg BackendConfig) (Generator, error) {
		if cfg.Command == "" {
			return nil, fmt.Errorf("exec generator: empty command")
		}
		return NewExecGenerator(cfg.Command, cfg.Args, cfg.Timeout, cfg.Logger), nil
	})
	f.RegisterPublisher("localfs", func(cfg BackendConfig) (Publisher, error) {
		return NewLocalPublisher(cfg.PublishDir)
	})
	return f
}

// RegisterGenerator adds a generator constructor under the given name.
func (f *Factory) RegisterGenerator(name string, ctor GeneratorConstructor) {
	f.generators[name] = ctor
}

// RegisterPublisher adds a publisher constructor under the given name.
func (f *Factory) RegisterPublisher(name string, ctor PublisherConstructor) {
	f.publishers[name] = ctor
}

// CreateGenerator builds a Generator from config. Returns nil (no error)
// when the backend is empty or "none", allowing docs-free operation.
func (f *Factory) CreateGenerator(cfg BackendConfig) (Generator, error) {
	if cfg.Generator == "" || cfg.Generator == "none" {
		return nil, nil
	}
	ctor, ok := f.generators[cfg.Generator]
	if !ok {
		return nil, fmt.Errorf("unknown docs generator %q", cfg.Generator)
	}
	return ctor(cfg)
}

// CreatePublisher builds a Publisher from config. Returns nil (no error)
// when the backend is empty or "none".
func (f *Factory) CreatePublisher(cfg BackendConfig) (Publisher, error) {
	if cfg.Publisher == "" || cfg.Publisher == "none" {
		return nil, nil
	}
	ctor, ok := f.publishers[cfg.Publisher]
	if !ok {
		return nil, fmt.Errorf("unknown docs publisher %q", cfg.Publisher)
	}
	return ctor(cfg)
}
