package catalog

import (
	"testing"
)

func TestEntityRef(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		want   string
	}{
		{
			name:   "explicit namespace",
			entity: Entity{Kind: "Group", Metadata: EntityMeta{Namespace: "org", Name: "platform"}},
			want:   "group:org/platform",
		},
		{
			name:   "default namespace",
			entity: Entity{Kind: "Group", Metadata: EntityMeta{Name: "platform"}},
			want:   "group:default/platform",
		},
		{
			name:   "name casing preserved",
			entity: Entity{Kind: "User", Metadata: EntityMeta{Name: "Jane.Doe"}},
			want:   "user:default/Jane.Doe",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entity.Ref(); got != tt.want {
				t.Errorf("Ref() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref     string
		want    ParsedRef
		wantErr bool
	}{
		{ref: "group:default/platform", want: ParsedRef{Kind: "group", Namespace: "default", Name: "platform"}},
		{ref: "Group:Org/platform", want: ParsedRef{Kind: "group", Namespace: "org", Name: "platform"}},
		{ref: "group:platform", want: ParsedRef{Kind: "group", Namespace: "default", Name: "platform"}},
		{ref: "platform", wantErr: true},
		{ref: "group:", wantErr: true},
		{ref: "group:/name", wantErr: true},
		{ref: "group:ns/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ParseRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRef(%q) expected error, got %+v", tt.ref, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef(%q) failed: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("ParseRef(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestParseRefRoundTrip(t *testing.T) {
	ref := "group:org/platform-team"
	parsed, err := ParseRef(ref)
	if err != nil {
		t.Fatalf("ParseRef failed: %v", err)
	}
	if parsed.String() != ref {
		t.Errorf("round trip = %q, want %q", parsed.String(), ref)
	}
}

func TestDisplayName(t *testing.T) {
	e := Entity{
		Kind:     "Group",
		Metadata: EntityMeta{Name: "platform", Title: "Platform"},
		Spec:     EntitySpec{Profile: Profile{DisplayName: "Platform Engineering"}},
	}
	if got := e.DisplayName(); got != "Platform Engineering" {
		t.Errorf("expected profile display name, got %q", got)
	}

	e.Spec.Profile.DisplayName = ""
	if got := e.DisplayName(); got != "Platform" {
		t.Errorf("expected title fallback, got %q", got)
	}

	e.Metadata.Title = ""
	if got := e.DisplayName(); got != "platform" {
		t.Errorf("expected name fallback, got %q", got)
	}
}

func TestRelationRefs(t *testing.T) {
	e := Entity{
		Kind:     "Group",
		Metadata: EntityMeta{Name: "backend"},
		Relations: []Relation{
			{Type: RelationChildOf, TargetRef: "group:default/engineering"},
			{Type: RelationParentOf, TargetRef: "group:default/api-team"},
			{Type: RelationChildOf, TargetRef: "group:default/guild"},
		},
	}

	refs := RelationRefs(e, RelationChildOf)
	if len(refs) != 2 {
		t.Fatalf("expected 2 childOf refs, got %d", len(refs))
	}
	if refs[0] != "group:default/engineering" || refs[1] != "group:default/guild" {
		t.Errorf("unexpected refs: %v", refs)
	}

	if refs := RelationRefs(e, "memberOf"); refs != nil {
		t.Errorf("expected nil for absent relation type, got %v", refs)
	}
}
