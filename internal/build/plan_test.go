package build

import (
	"reflect"
	"strings"
	"testing"

	"github.com/qufa/mkimage/internal/manifest"
)

func sampleRecipe() *manifest.Recipe {
	return &manifest.Recipe{
		Base:    "ubuntu:22.04",
		Workdir: "/data",
		Files: []manifest.FileCopy{
			{Source: "data.csv", Dest: "/data/data.csv"},
			{Source: "columns.json", Dest: "/data/columns.json"},
		},
		System: manifest.System{
			Manager:  "apt-get",
			Packages: []string{"python3", "python3-pip"},
		},
		Python: manifest.Python{
			Interpreter:  "python3",
			Requirements: "requirements.txt",
		},
		Archive: manifest.Archive{
			Source: "featuretools-1.1.0.tar.gz",
		},
		Command: []string{"/bin/bash"},
	}
}

func TestCompilePlanOrder(t *testing.T) {
	steps := compilePlan(sampleRecipe())

	want := []string{
		"configure",
		"copy data.csv",
		"copy columns.json",
		"install system packages",
		"copy requirements manifest",
		"install pinned requirements",
		"remove requirements manifest",
		"copy bundled archive",
		"build bundled archive",
		"remove build artifacts",
	}

	if len(steps) != len(want) {
		t.Fatalf("len(steps) = %d, want %d", len(steps), len(want))
	}
	for i, desc := range want {
		if steps[i].desc != desc {
			t.Errorf("steps[%d].desc = %q, want %q", i, steps[i].desc, desc)
		}
	}
}

func TestCompilePlanDeterministic(t *testing.T) {
	a := compilePlan(sampleRecipe())
	b := compilePlan(sampleRecipe())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("compilePlan is not deterministic for a fixed recipe")
	}
}

func TestCompilePlanWorkdirModifier(t *testing.T) {
	steps := compilePlan(sampleRecipe())

	first := steps[0]
	if first.isOperation() {
		t.Fatal("first step should be a standalone modifier")
	}
	if first.workdir != "/data" {
		t.Fatalf("workdir = %q, want /data", first.workdir)
	}
}

func TestCompilePlanSystemInstall(t *testing.T) {
	steps := compilePlan(sampleRecipe())

	var install step
	for _, st := range steps {
		if st.desc == "install system packages" {
			install = st
			break
		}
	}

	for _, fragment := range []string{
		"apt-get update",
		"--no-install-recommends",
		"python3 python3-pip",
		"rm -rf /var/lib/apt/lists/*",
	} {
		if !strings.Contains(install.run, fragment) {
			t.Errorf("install command %q missing %q", install.run, fragment)
		}
	}
	if install.env["DEBIAN_FRONTEND"] != "noninteractive" {
		t.Errorf("install env = %v, want DEBIAN_FRONTEND=noninteractive", install.env)
	}
}

func TestCompilePlanCleanup(t *testing.T) {
	steps := compilePlan(sampleRecipe())

	var sawRequirementsRemoval, sawStagingRemoval bool
	for _, st := range steps {
		if st.run == "rm -f /data/requirements.txt" {
			sawRequirementsRemoval = true
		}
		if st.run == "rm -rf "+stagingDir {
			sawStagingRemoval = true
		}
	}

	if !sawRequirementsRemoval {
		t.Error("plan does not remove the requirements manifest")
	}
	if !sawStagingRemoval {
		t.Error("plan does not remove the archive staging directory")
	}
}

func TestCompilePlanArchiveBuild(t *testing.T) {
	steps := compilePlan(sampleRecipe())

	var buildStep step
	for _, st := range steps {
		if st.desc == "build bundled archive" {
			buildStep = st
			break
		}
	}

	for _, fragment := range []string{
		"tar xzf " + stagingDir + "/featuretools-1.1.0.tar.gz",
		"cd " + stagingDir + "/featuretools-1.1.0",
		"python3 setup.py install",
	} {
		if !strings.Contains(buildStep.run, fragment) {
			t.Errorf("build command %q missing %q", buildStep.run, fragment)
		}
	}
}

func TestCompilePlanCustomInstaller(t *testing.T) {
	r := sampleRecipe()
	r.Archive.Installer = "pip3 install ."

	steps := compilePlan(r)
	found := false
	for _, st := range steps {
		if strings.Contains(st.run, "pip3 install .") {
			found = true
		}
	}
	if !found {
		t.Fatal("custom installer not used in archive build step")
	}
}

func TestCompilePlanOptionalSections(t *testing.T) {
	r := &manifest.Recipe{
		Base:    "ubuntu:22.04",
		Workdir: "/data",
		Command: []string{"/bin/bash"},
	}

	steps := compilePlan(r)
	if len(steps) != 1 {
		t.Fatalf("len(steps) = %d, want 1 (configure only)", len(steps))
	}
}

func TestSystemInstallCommandManagers(t *testing.T) {
	tests := []struct {
		name    string
		manager string
		want    string
	}{
		{
			name:    "apt-get gets cache cleanup",
			manager: "apt-get",
			want:    "rm -rf /var/lib/apt/lists/*",
		},
		{
			name:    "apt gets cache cleanup",
			manager: "apt",
			want:    "rm -rf /var/lib/apt/lists/*",
		},
		{
			name:    "other managers get plain install",
			manager: "dnf",
			want:    "dnf install -y curl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := systemInstallCommand(manifest.System{Manager: tt.manager, Packages: []string{"curl"}})
			if !strings.Contains(cmd, tt.want) {
				t.Fatalf("command %q missing %q", cmd, tt.want)
			}
		})
	}
}
