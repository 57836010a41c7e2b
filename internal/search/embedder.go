package search

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/orgatlas/orgatlas/internal/catalog"
)

// Dimensions is the size of the embedding space.
const Dimensions = 256

// Embed maps text to a fixed-size vector using hashed character trigrams.
// The mapping is deterministic, so re-indexing the same entity produces
// the same vector, and lexically similar names land close together.
func Embed(text string) []float32 {
	vec := make([]float32, Dimensions)
	s := strings.ToLower(text)
	if len(s) < 3 {
		s = s + strings.Repeat(" ", 3-len(s))
	}
	for i := 0; i+3 <= len(s); i++ {
		h := fnv.New32a()
		h.Write([]byte(s[i : i+3]))
		vec[h.Sum32()%Dimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// Indexer embeds catalog entities and stores them in the vector repository.
type Indexer struct {
	repo Repository
}

// NewIndexer creates an Indexer.
func NewIndexer(repo Repository) *Indexer {
	return &Indexer{repo: repo}
}

// IndexEntities embeds and upserts the given entities. Point IDs are
// derived from the entity ref so repeated syncs update in place.
func (ix *Indexer) IndexEntities(ctx context.Context, entities []catalog.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	docs := make([]Document, len(entities))
	for i, e := range entities {
		ref := e.Ref()
		text := indexText(e)
		docs[i] = Document{
			ID:      uuid.NewSHA1(uuid.NameSpaceURL, []byte(ref)).String(),
			Content: text,
			Vector:  Embed(text),
			Metadata: map[string]string{
				"ref":  ref,
				"kind": strings.ToLower(e.Kind),
				"name": e.Metadata.Name,
			},
		}
	}
	if err := ix.repo.Upsert(ctx, docs); err != nil {
		return fmt.Errorf("index entities: %w", err)
	}
	return nil
}

// Query embeds the query text and returns the closest entities.
func (ix *Indexer) Query(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}
	return ix.repo.Search(ctx, Embed(query), topK)
}

func indexText(e catalog.Entity) string {
	parts := []string{e.DisplayName(), e.Metadata.Name}
	if e.Metadata.Description != "" {
		parts = append(parts, e.Metadata.Description)
	}
	if e.Spec.Profile.Email != "" {
		parts = append(parts, e.Spec.Profile.Email)
	}
	return strings.Join(parts, " ")
}
