package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"no commit stamped", "1.2.3", "", "1.2.3"},
		{"commit too short to abbreviate", "1.2.3", "abc12", "1.2.3"},
		{"commit abbreviated to seven chars", "1.2.3", "0123456789abcdef", "1.2.3 (0123456)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit = tt.version, tt.commit
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = origVersion, origCommit, origDate })

	Version, Commit, BuildDate = "1.2.3", "deadbeefcafe", "2026-08-25"
	got := Full()
	for _, part := range []string{"tracelink version 1.2.3", "Commit: deadbeefcafe", "Built: 2026-08-25"} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, want to contain %q", got, part)
		}
	}

	Commit, BuildDate = "", ""
	got = Full()
	if !strings.Contains(got, "Commit: unknown") || !strings.Contains(got, "Built: unknown") {
		t.Errorf("Full() without build stamps = %q, want unknown placeholders", got)
	}
}

func TestDefaultVersionIsSemver(t *testing.T) {
	parts := strings.Split(Version, ".")
	if len(parts) != 3 {
		t.Fatalf("Version %q is not MAJOR.MINOR.PATCH", Version)
	}
	for _, p := range parts {
		if p == "" {
			t.Fatalf("Version %q has an empty segment", Version)
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				t.Fatalf("Version %q has a non-numeric segment %q", Version, p)
			}
		}
	}
}
