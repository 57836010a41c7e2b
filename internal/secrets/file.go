package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileConfig configures the file-based secrets provider.
type FileConfig struct {
	// Path is the path to the secrets file (flat YAML key: value)
	Path string
}

// FileProvider reads secrets from a mounted file, as written by a secret
// store sidecar or a Kubernetes secret volume. The file is never written
// by the service; Reload picks up rotations.
type FileProvider struct {
	config *FileConfig
	mu     sync.RWMutex
	data   map[string]string
}

// NewFileProvider creates a file-based secrets provider.
func NewFileProvider(config *FileConfig) (*FileProvider, error) {
	if config == nil || config.Path == "" {
		return nil, fmt.Errorf("file path required")
	}

	p := &FileProvider{
		config: config,
		data:   make(map[string]string),
	}
	if err := p.load(); err != nil {
		return nil, fmt.Errorf("load secrets file: %w", err)
	}
	return p, nil
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) Get(ctx context.Context, key string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	val, ok := p.data[key]
	if !ok {
		return "", fmt.Errorf("secret not found: %s", key)
	}
	return val, nil
}

func (p *FileProvider) load() error {
	raw, err := os.ReadFile(p.config.Path)
	if err != nil {
		return err
	}

	parsed := make(map[string]string)
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse %s: %w", p.config.Path, err)
	}

	data := make(map[string]string, len(parsed))
	for k, v := range parsed {
		data[k] = strings.TrimSpace(v)
	}
	p.data = data
	return nil
}

// Reload re-reads the secrets file, picking up rotated values.
func (p *FileProvider) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load()
}
