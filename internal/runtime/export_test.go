package runtime

import (
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

func TestApplyExportConfig(t *testing.T) {
	config := ocispec.Image{}
	config.Config.Entrypoint = []string{"/docker-entrypoint.sh"}
	config.Config.Cmd = []string{"nginx"}
	config.Config.Env = []string{"PATH=/usr/bin"}

	applyExportConfig(&config, ExportConfig{
		Cmd:        []string{"/bin/bash"},
		WorkingDir: "/data",
		Env:        []string{"LANG=C.UTF-8"},
	})

	if len(config.Config.Cmd) != 1 || config.Config.Cmd[0] != "/bin/bash" {
		t.Fatalf("cmd = %v, want [/bin/bash]", config.Config.Cmd)
	}
	if config.Config.Entrypoint != nil {
		t.Fatalf("entrypoint = %v, want nil", config.Config.Entrypoint)
	}
	if config.Config.WorkingDir != "/data" {
		t.Fatalf("workingdir = %q, want /data", config.Config.WorkingDir)
	}

	env := make(map[string]bool, len(config.Config.Env))
	for _, e := range config.Config.Env {
		env[e] = true
	}
	if !env["PATH=/usr/bin"] || !env["LANG=C.UTF-8"] {
		t.Fatalf("env = %v, want PATH and LANG preserved", config.Config.Env)
	}
}

func TestApplyExportConfigZeroValue(t *testing.T) {
	config := ocispec.Image{}
	config.Config.Entrypoint = []string{"/entry"}
	config.Config.Cmd = []string{"run"}
	config.Config.WorkingDir = "/srv"

	applyExportConfig(&config, ExportConfig{})

	if config.Config.Entrypoint[0] != "/entry" || config.Config.Cmd[0] != "run" {
		t.Fatal("zero-value config should not touch the inherited process")
	}
	if config.Config.WorkingDir != "/srv" {
		t.Fatalf("workingdir = %q, want /srv", config.Config.WorkingDir)
	}
}

func TestManifestGCLabels(t *testing.T) {
	m := ocispec.Manifest{
		Config: ocispec.Descriptor{
			Digest: digest.FromString("config"),
		},
		Layers: []ocispec.Descriptor{
			{Digest: digest.FromString("layer0")},
			{Digest: digest.FromString("layer1")},
		},
	}

	labels := manifestGCLabels(m)

	configLabel := labels["containerd.io/gc.ref.content.config"]
	if configLabel != m.Config.Digest.String() {
		t.Fatalf("config label = %q, want %q", configLabel, m.Config.Digest.String())
	}

	for i, layer := range m.Layers {
		key := "containerd.io/gc.ref.content.l." + string(rune('0'+i))
		got := labels[key]
		if got != layer.Digest.String() {
			t.Fatalf("labels[%q] = %q, want %q", key, got, layer.Digest.String())
		}
	}

	if len(labels) != 3 {
		t.Fatalf("len(labels) = %d, want 3", len(labels))
	}
}

func TestIndexGCLabels(t *testing.T) {
	idx := ocispec.Index{
		Manifests: []ocispec.Descriptor{
			{Digest: digest.FromString("m0")},
			{Digest: digest.FromString("m1")},
		},
	}

	labels := indexGCLabels(idx)
	if len(labels) != 2 {
		t.Fatalf("len(labels) = %d, want 2", len(labels))
	}
	if labels["containerd.io/gc.ref.content.m.0"] != idx.Manifests[0].Digest.String() {
		t.Fatal("m.0 label mismatch")
	}
	if labels["containerd.io/gc.ref.content.m.1"] != idx.Manifests[1].Digest.String() {
		t.Fatal("m.1 label mismatch")
	}
}
