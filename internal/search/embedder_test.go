package search

import (
	"context"
	"math"
	"testing"

	"github.com/orgatlas/orgatlas/internal/catalog"
)

func TestEmbed_Deterministic(t *testing.T) {
	a := Embed("platform engineering")
	b := Embed("platform engineering")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at dim %d", i)
		}
	}
}

func TestEmbed_Normalized(t *testing.T) {
	vec := Embed("some nontrivial entity name")
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("vector norm = %f, want 1", norm)
	}
}

func TestEmbed_ShortAndEmptyInput(t *testing.T) {
	for _, in := range []string{"", "a", "ab"} {
		vec := Embed(in)
		if len(vec) != Dimensions {
			t.Errorf("Embed(%q) len = %d, want %d", in, len(vec), Dimensions)
		}
	}
}

func TestEmbed_SimilarNamesCloser(t *testing.T) {
	base := Embed("platform engineering team")
	near := Embed("platform engineering group")
	far := Embed("zx9 qqq unrelated")

	if cosine(base, near) <= cosine(base, far) {
		t.Error("similar names should score higher than unrelated ones")
	}
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

type fakeRepo struct {
	docs []Document
}

func (f *fakeRepo) Upsert(_ context.Context, docs []Document) error {
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeRepo) Search(_ context.Context, _ []float32, topK int) ([]SearchResult, error) {
	var out []SearchResult
	for i, d := range f.docs {
		if i >= topK {
			break
		}
		out = append(out, SearchResult{ID: d.ID, Content: d.Content, Metadata: d.Metadata})
	}
	return out, nil
}

func (f *fakeRepo) Close() error { return nil }

func TestIndexEntities(t *testing.T) {
	repo := &fakeRepo{}
	ix := NewIndexer(repo)

	entities := []catalog.Entity{
		{Kind: "Group", Metadata: catalog.EntityMeta{Name: "backend", Description: "API services"}},
		{Kind: "User", Metadata: catalog.EntityMeta{Name: "jdoe"}},
	}
	if err := ix.IndexEntities(context.Background(), entities); err != nil {
		t.Fatalf("IndexEntities: %v", err)
	}
	if len(repo.docs) != 2 {
		t.Fatalf("indexed %d docs, want 2", len(repo.docs))
	}
	if repo.docs[0].Metadata["ref"] != "group:default/backend" {
		t.Errorf("ref metadata = %q", repo.docs[0].Metadata["ref"])
	}
	if len(repo.docs[0].Vector) != Dimensions {
		t.Errorf("vector len = %d, want %d", len(repo.docs[0].Vector), Dimensions)
	}
}

func TestIndexEntities_StableIDs(t *testing.T) {
	repo := &fakeRepo{}
	ix := NewIndexer(repo)
	e := []catalog.Entity{{Kind: "Group", Metadata: catalog.EntityMeta{Name: "backend"}}}

	if err := ix.IndexEntities(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if err := ix.IndexEntities(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if repo.docs[0].ID != repo.docs[1].ID {
		t.Errorf("re-index produced a new ID: %s vs %s", repo.docs[0].ID, repo.docs[1].ID)
	}
}
