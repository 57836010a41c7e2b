package docs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalPublisher stores generated sites under a root directory, one
// subdirectory per entity ref.
type LocalPublisher struct {
	root string
}

// NewLocalPublisher creates a publisher rooted at dir.
func NewLocalPublisher(dir string) (*LocalPublisher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("publisher root: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("publisher root: %w", err)
	}
	return &LocalPublisher{root: abs}, nil
}

func (p *LocalPublisher) Publish(ctx context.Context, entityRef, outputDir string) error {
	dest := p.entityDir(entityRef)
	tmp := dest + ".tmp"

	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("publish %s: %w", entityRef, err)
	}
	if err := copyTree(ctx, outputDir, tmp); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("publish %s: %w", entityRef, err)
	}
	// Swap in atomically so readers never see a half-copied site.
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("publish %s: %w", entityRef, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("publish %s: %w", entityRef, err)
	}
	return nil
}

func (p *LocalPublisher) Resolve(entityRef, relPath string) (string, error) {
	if relPath == "" {
		relPath = "index.html"
	}
	full := filepath.Join(p.entityDir(entityRef), filepath.Clean("/"+relPath))
	if !strings.HasPrefix(full, p.root+string(filepath.Separator)) {
		return "", fmt.Errorf("resolve %s: path escapes publish root", entityRef)
	}
	if _, err := os.Stat(full); err != nil {
		return "", fmt.Errorf("resolve %s/%s: %w", entityRef, relPath, err)
	}
	return full, nil
}

func (p *LocalPublisher) Has(entityRef string) bool {
	_, err := os.Stat(p.entityDir(entityRef))
	return err == nil
}

// entityDir flattens the ref into a single safe path segment.
func (p *LocalPublisher) entityDir(entityRef string) string {
	seg := strings.NewReplacer(":", "_", "/", "_").Replace(entityRef)
	return filepath.Join(p.root, seg)
}

func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

var _ Publisher = (*LocalPublisher)(nil)
