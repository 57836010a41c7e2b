package docs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFactory_Defaults(t *testing.T) {
	f := NewFactory()
	cfg := DefaultBackendConfig()
	cfg.PublishDir = t.TempDir()

	gen, err := f.CreateGenerator(cfg)
	if err != nil {
		t.Fatalf("CreateGenerator: %v", err)
	}
	if gen == nil {
		t.Fatal("expected exec generator")
	}

	pub, err := f.CreatePublisher(cfg)
	if err != nil {
		t.Fatalf("CreatePublisher: %v", err)
	}
	if pub == nil {
		t.Fatal("expected localfs publisher")
	}
}

func TestFactory_None(t *testing.T) {
	f := NewFactory()
	cfg := BackendConfig{Generator: "none", Publisher: ""}

	gen, err := f.CreateGenerator(cfg)
	if err != nil || gen != nil {
		t.Errorf("generator none: got (%v, %v), want (nil, nil)", gen, err)
	}
	pub, err := f.CreatePublisher(cfg)
	if err != nil || pub != nil {
		t.Errorf("publisher none: got (%v, %v), want (nil, nil)", pub, err)
	}
}

func TestFactory_Unknown(t *testing.T) {
	f := NewFactory()
	if _, err := f.CreateGenerator(BackendConfig{Generator: "bogus"}); err == nil {
		t.Error("expected error for unknown generator")
	}
	if _, err := f.CreatePublisher(BackendConfig{Publisher: "bogus"}); err == nil {
		t.Error("expected error for unknown publisher")
	}
}

func TestLocalPublisher_PublishAndResolve(t *testing.T) {
	pub, err := NewLocalPublisher(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "index.html"), []byte("<html>hi</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(src, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "assets", "s.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	ref := "group:default/backend"
	if pub.Has(ref) {
		t.Error("Has should be false before publish")
	}
	if err := pub.Publish(context.Background(), ref, src); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !pub.Has(ref) {
		t.Error("Has should be true after publish")
	}

	// Empty relative path falls back to the index page.
	path, err := pub.Resolve(ref, "")
	if err != nil {
		t.Fatalf("Resolve index: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "<html>hi</html>" {
		t.Errorf("resolved index content = %q, err %v", data, err)
	}

	if _, err := pub.Resolve(ref, "assets/s.css"); err != nil {
		t.Errorf("Resolve nested: %v", err)
	}
	if _, err := pub.Resolve(ref, "missing.html"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLocalPublisher_PathTraversal(t *testing.T) {
	root := t.TempDir()
	pub, err := NewLocalPublisher(filepath.Join(root, "site"))
	if err != nil {
		t.Fatal(err)
	}
	secret := filepath.Join(root, "secret.txt")
	if err := os.WriteFile(secret, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if path, err := pub.Resolve("group:default/a", "../../secret.txt"); err == nil {
		t.Errorf("traversal resolved to %q, expected error", path)
	}
}

func TestLocalPublisher_RepublishReplaces(t *testing.T) {
	pub, err := NewLocalPublisher(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ref := "group:default/backend"

	v1 := t.TempDir()
	os.WriteFile(filepath.Join(v1, "old.html"), []byte("old"), 0o644)
	if err := pub.Publish(context.Background(), ref, v1); err != nil {
		t.Fatal(err)
	}

	v2 := t.TempDir()
	os.WriteFile(filepath.Join(v2, "new.html"), []byte("new"), 0o644)
	if err := pub.Publish(context.Background(), ref, v2); err != nil {
		t.Fatal(err)
	}

	if _, err := pub.Resolve(ref, "old.html"); err == nil {
		t.Error("stale file survived republish")
	}
	if _, err := pub.Resolve(ref, "new.html"); err != nil {
		t.Errorf("new file missing after republish: %v", err)
	}
}

func TestExecGenerator_MissingSource(t *testing.T) {
	gen := NewExecGenerator("true", nil, 0, nil)
	if _, err := gen.Generate(context.Background(), BuildRequest{EntityRef: "group:default/x", SourceDir: "/nonexistent"}); err == nil {
		t.Error("expected error for missing source dir")
	}
}
