package identifier

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantRoot string
		wantPath []string
	}{
		{"plain root", "AUTH-001", "AUTH-001", nil},
		{"case folding", "auth-001", "AUTH-001", nil},
		{"one child", "AUTH-001:LOGIN-002", "AUTH-001", []string{"LOGIN-002"}},
		{"two children", "X-001:A-001:B-002", "X-001", []string{"A-001", "B-002"}},
		{"whitespace trimmed", "  AUTH-001 ", "AUTH-001", nil},
		{"empty segments dropped", "AUTH-001::LOGIN-002", "AUTH-001", []string{"LOGIN-002"}},
		{"empty input", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			if got.Root != tt.wantRoot {
				t.Errorf("Root = %q, want %q", got.Root, tt.wantRoot)
			}
			if len(got.Path) != len(tt.wantPath) {
				t.Fatalf("Path = %v, want %v", got.Path, tt.wantPath)
			}
			for i := range tt.wantPath {
				if got.Path[i] != tt.wantPath[i] {
					t.Errorf("Path[%d] = %q, want %q", i, got.Path[i], tt.wantPath[i])
				}
			}
		})
	}
}

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		c    Canonical
		want string
	}{
		{Canonical{Root: "AUTH-001"}, "AUTH-001"},
		{Canonical{Root: "AUTH-001", Path: []string{"LOGIN-002"}}, "AUTH-001:LOGIN-002"},
		{Canonical{Root: "X", Path: []string{"A", "B"}}, "X:A:B"},
	}

	for _, tt := range tests {
		if got := tt.c.Key(); got != tt.want {
			t.Errorf("Key() = %q, want %q", got, tt.want)
		}
	}
}

func TestResolverFoldsHyphenChildren(t *testing.T) {
	r := NewResolver([]string{"AGENT-CARD-001"})

	got := r.Resolve(Normalize("AGENT-CARD-001-UI-002"))
	if got.Root != "AGENT-CARD-001" {
		t.Errorf("Root = %q, want AGENT-CARD-001", got.Root)
	}
	if len(got.Path) != 1 || got.Path[0] != "UI-002" {
		t.Errorf("Path = %v, want [UI-002]", got.Path)
	}
	if got.Key() != "AGENT-CARD-001:UI-002" {
		t.Errorf("Key = %q", got.Key())
	}
}

func TestResolverColonAndHyphenConverge(t *testing.T) {
	r := NewResolver([]string{"AGENT-CARD-001"})

	hyphen := r.Resolve(Normalize("AGENT-CARD-001-UI-002"))
	colon := r.Resolve(Normalize("AGENT-CARD-001:UI-002"))
	if hyphen.Key() != colon.Key() {
		t.Errorf("spellings diverge: %q vs %q", hyphen.Key(), colon.Key())
	}
}

func TestResolverKnownRootUnchanged(t *testing.T) {
	r := NewResolver([]string{"AUTH-001", "AUTH-001-EXTRA"})

	// AUTH-001-EXTRA is itself a known root, so it must not be folded
	// under AUTH-001.
	got := r.Resolve(Normalize("AUTH-001-EXTRA"))
	if got.Root != "AUTH-001-EXTRA" || len(got.Path) != 0 {
		t.Errorf("Resolve = %v, want AUTH-001-EXTRA unchanged", got)
	}
}

func TestResolverLongestRootWins(t *testing.T) {
	r := NewResolver([]string{"PAY", "PAY-API-001"})

	got := r.Resolve(Normalize("PAY-API-001-RETRY-002"))
	if got.Root != "PAY-API-001" {
		t.Errorf("Root = %q, want PAY-API-001", got.Root)
	}
	if len(got.Path) != 1 || got.Path[0] != "RETRY-002" {
		t.Errorf("Path = %v, want [RETRY-002]", got.Path)
	}
}

func TestResolverNoMatchKeepsOwnRoot(t *testing.T) {
	r := NewResolver([]string{"AUTH-001"})

	got := r.Resolve(Normalize("ORPHAN-009"))
	if got.Root != "ORPHAN-009" || len(got.Path) != 0 {
		t.Errorf("Resolve = %v, want ORPHAN-009 unchanged", got)
	}
}

func TestResolverChildPathPreserved(t *testing.T) {
	r := NewResolver([]string{"X-001"})

	got := r.Resolve(Normalize("X-001-SUB-002:DEEP-003"))
	if got.Key() != "X-001:SUB-002:DEEP-003" {
		t.Errorf("Key = %q, want X-001:SUB-002:DEEP-003", got.Key())
	}
}

func TestResolverEmpty(t *testing.T) {
	r := NewResolver(nil)

	got := r.Resolve(Normalize("ANY-001"))
	if got.Root != "ANY-001" {
		t.Errorf("Resolve with no known roots should keep own root, got %v", got)
	}
}
