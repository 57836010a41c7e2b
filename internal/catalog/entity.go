// Package catalog models software-catalog entities and provides a client
// for listing them from a catalog service.
package catalog

import (
	"fmt"
	"strings"
)

// DefaultNamespace is assumed when an entity reference omits one.
const DefaultNamespace = "default"

// Relation types used by the organizational hierarchy.
const (
	RelationChildOf  = "childOf"
	RelationParentOf = "parentOf"
)

// Relation is a directed edge from the owning entity to a target entity.
type Relation struct {
	Type      string `json:"type"`
	TargetRef string `json:"targetRef"`
}

// Profile holds presentation fields of an entity.
type Profile struct {
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	Picture     string `json:"picture,omitempty"`
}

// EntitySpec carries the kind-specific body of an entity.
type EntitySpec struct {
	Type    string  `json:"type,omitempty"`
	Profile Profile `json:"profile,omitempty"`
}

// EntityMeta identifies an entity within the catalog.
type EntityMeta struct {
	Namespace   string            `json:"namespace,omitempty"`
	Name        string            `json:"name"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Entity is a single catalog item.
type Entity struct {
	Kind      string     `json:"kind"`
	Metadata  EntityMeta `json:"metadata"`
	Spec      EntitySpec `json:"spec,omitempty"`
	Relations []Relation `json:"relations,omitempty"`
}

// Ref returns the canonical entity reference, kind:namespace/name, with
// kind and namespace lowercased.
func (e Entity) Ref() string {
	ns := e.Metadata.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return fmt.Sprintf("%s:%s/%s", strings.ToLower(e.Kind), strings.ToLower(ns), e.Metadata.Name)
}

// DisplayName returns the best human-readable name for the entity, falling
// back from profile display name through title to the plain name.
func (e Entity) DisplayName() string {
	if e.Spec.Profile.DisplayName != "" {
		return e.Spec.Profile.DisplayName
	}
	if e.Metadata.Title != "" {
		return e.Metadata.Title
	}
	return e.Metadata.Name
}

// RelationRefs returns the target refs of all relations of the given type.
func RelationRefs(e Entity, relType string) []string {
	var refs []string
	for _, r := range e.Relations {
		if r.Type == relType {
			refs = append(refs, r.TargetRef)
		}
	}
	return refs
}

// ParsedRef is an entity reference broken into its components.
type ParsedRef struct {
	Kind      string
	Namespace string
	Name      string
}

// String reassembles the canonical reference form.
func (p ParsedRef) String() string {
	ns := p.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return fmt.Sprintf("%s:%s/%s", p.Kind, ns, p.Name)
}

// ParseRef parses a reference of the form kind:namespace/name. The namespace
// part is optional and defaults to "default". Kind and namespace are
// normalized to lower case; the name keeps its casing.
func ParseRef(ref string) (ParsedRef, error) {
	kind, rest, ok := strings.Cut(ref, ":")
	if !ok || kind == "" || rest == "" {
		return ParsedRef{}, fmt.Errorf("invalid entity reference %q: missing kind", ref)
	}

	ns := DefaultNamespace
	name := rest
	if before, after, found := strings.Cut(rest, "/"); found {
		if before == "" || after == "" {
			return ParsedRef{}, fmt.Errorf("invalid entity reference %q: empty namespace or name", ref)
		}
		ns, name = before, after
	}

	return ParsedRef{
		Kind:      strings.ToLower(kind),
		Namespace: strings.ToLower(ns),
		Name:      name,
	}, nil
}
