package build

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/qufa/mkimage/internal/manifest"
)

func TestContentChecks(t *testing.T) {
	checks := contentChecks(sampleRecipe())

	want := []contentCheck{
		{name: "working directory /data", kind: checkKindDir, path: "/data"},
		{name: "file data.csv byte-identical", kind: checkKindDigest, path: "/data/data.csv", source: "data.csv"},
		{name: "file columns.json byte-identical", kind: checkKindDigest, path: "/data/columns.json", source: "columns.json"},
		{name: "requirements manifest removed", kind: checkKindAbsent, path: "/data/requirements.txt"},
		{name: "staging directory removed", kind: checkKindAbsent, path: stagingDir},
	}

	if !reflect.DeepEqual(checks, want) {
		t.Fatalf("checks = %+v, want %+v", checks, want)
	}
}

func TestContentChecksProbeOnlyBuiltPaths(t *testing.T) {
	r := sampleRecipe()
	steps := compilePlan(r)

	// Every absence check must target a path some plan step wrote to;
	// a probe against a path the build never used passes vacuously.
	for _, c := range contentChecks(r) {
		if c.kind != checkKindAbsent {
			continue
		}

		used := false
		for _, st := range steps {
			if strings.Contains(st.run, c.path) || (st.copy != nil && strings.HasPrefix(st.copy.dest, c.path)) {
				used = true
				break
			}
		}
		if !used {
			t.Errorf("check %q probes %s, which no plan step touches", c.name, c.path)
		}
	}
}

func TestContentChecksOptionalSections(t *testing.T) {
	r := &manifest.Recipe{
		Base:    "ubuntu:22.04",
		Workdir: "/data",
		Command: []string{"/bin/bash"},
	}

	checks := contentChecks(r)
	if len(checks) != 1 {
		t.Fatalf("len(checks) = %d, want 1 (working directory only)", len(checks))
	}
	if checks[0].kind != checkKindDir {
		t.Fatalf("checks[0].kind = %d, want directory check", checks[0].kind)
	}
}

func TestParseDigest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "sha256sum output",
			input: "a3f5b0c1  /data/data.csv\n",
			want:  "a3f5b0c1",
		},
		{
			name:  "empty output",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: "   \n",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDigest(tt.input); got != tt.want {
				t.Fatalf("parseDigest(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHostDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := hostDigest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// sha256 of "a,b\n1,2\n"
	want := "492d5ea496056f1a6a6592241032fab764c321596317930b4fa0e1e8bc3b7470"
	if got != want {
		t.Fatalf("digest = %s, want %s", got, want)
	}

	again, err := hostDigest(path)
	if err != nil {
		t.Fatal(err)
	}
	if again != got {
		t.Fatal("hostDigest is not deterministic")
	}
}

func TestHostDigestMissingFile(t *testing.T) {
	if _, err := hostDigest(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReport(t *testing.T) {
	r := &Report{Checks: []Check{
		{Name: "a", OK: true},
		{Name: "b", OK: false, Detail: "missing"},
		{Name: "c", OK: true},
	}}

	if r.OK() {
		t.Fatal("report with a failed check should not be OK")
	}

	failed := r.Failures()
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("failures = %v, want [b]", failed)
	}

	all := &Report{Checks: []Check{{Name: "a", OK: true}}}
	if !all.OK() {
		t.Fatal("report with all checks passing should be OK")
	}
	if len(all.Failures()) != 0 {
		t.Fatal("passing report should have no failures")
	}
}
