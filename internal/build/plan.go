package build

import (
	"fmt"
	"path"
	"strings"

	"github.com/qufa/mkimage/internal/manifest"
)

// Directory inside the container where the bundled archive is staged,
// unpacked, and built. Removed entirely by the cleanup step so neither the
// archive nor its unpacked tree ships in the final image.
const stagingDir = "/tmp/mkimage-build"

// A single unit of work in the provisioning plan.
//
// A step is either an operation (a shell command or a context file copy) or
// a standalone modifier that adjusts the persistent state (shell, working
// directory, environment) for all subsequent steps. Operation steps may also
// carry modifiers, which then apply to that operation only.
type step struct {
	desc    string            // Label used in logs and error messages.
	run     string            // Shell command to execute inside the container.
	copy    *copySpec         // File copy from the build context.
	shell   string            // Modifier: shell override.
	workdir string            // Modifier: working directory.
	env     map[string]string // Modifier: environment entries.
}

// Declares a file transfer from the build context into the container.
type copySpec struct {
	source string // Context-relative source path.
	dest   string // Absolute destination inside the container.
}

// Whether the step carries an operation, as opposed to being a standalone
// modifier.
func (s step) isOperation() bool {
	return s.run != "" || s.copy != nil
}

// Compiles a recipe into its ordered provisioning plan.
//
// The plan mirrors the recipe's build-time operations: establish the working
// directory, copy the declared context files, install OS packages, install
// pinned requirements, build the bundled archive, then clean up everything
// that should not ship in the image. Compilation is pure; for a fixed recipe
// the plan is always identical.
func compilePlan(r *manifest.Recipe) []step {
	var steps []step

	// Persistent modifiers from the recipe header. The working directory is
	// created when the first operation runs.
	steps = append(steps, step{
		desc:    "configure",
		shell:   r.Shell,
		workdir: r.Workdir,
		env:     r.Env,
	})

	for _, fc := range r.Files {
		steps = append(steps, step{
			desc: "copy " + fc.Source,
			copy: &copySpec{source: fc.Source, dest: fc.Dest},
		})
	}

	if len(r.System.Packages) > 0 {
		steps = append(steps, step{
			desc: "install system packages",
			run:  systemInstallCommand(r.System),
			env:  map[string]string{"DEBIAN_FRONTEND": "noninteractive"},
		})
	}

	steps = append(steps, requirementSteps(r)...)
	steps = append(steps, archiveSteps(r)...)

	return steps
}

// Produces the steps that install pinned requirements from the manifest.
//
// The manifest is copied into the working directory for the install and
// removed again afterwards, so the final image never contains it.
func requirementSteps(r *manifest.Recipe) []step {
	if r.Python.Requirements == "" {
		return nil
	}

	dest := path.Join(r.Workdir, path.Base(r.Python.Requirements))

	return []step{
		{
			desc: "copy requirements manifest",
			copy: &copySpec{source: r.Python.Requirements, dest: dest},
		},
		{
			desc: "install pinned requirements",
			run:  fmt.Sprintf("%s -m pip install --no-cache-dir -r %s", r.Python.Interpreter, dest),
		},
		{
			desc: "remove requirements manifest",
			run:  "rm -f " + dest,
		},
	}
}

// Produces the steps that build the bundled source archive.
//
// The archive is staged under a temporary directory, unpacked, and its
// installer run inside the unpacked tree. The whole staging directory is
// removed afterwards so neither the archive nor its sources bloat the image.
func archiveSteps(r *manifest.Recipe) []step {
	if r.Archive.Source == "" {
		return nil
	}

	archivePath := path.Join(stagingDir, path.Base(r.Archive.Source))
	unpacked := path.Join(stagingDir, r.Archive.UnpackedDir())

	installer := r.Archive.Installer
	if installer == "" {
		installer = r.Python.Interpreter + " setup.py install"
	}

	return []step{
		{
			desc: "copy bundled archive",
			copy: &copySpec{source: r.Archive.Source, dest: archivePath},
		},
		{
			desc: "build bundled archive",
			run:  fmt.Sprintf("tar xzf %s -C %s && cd %s && %s", archivePath, stagingDir, unpacked, installer),
		},
		{
			desc: "remove build artifacts",
			run:  "rm -rf " + stagingDir,
		},
	}
}

// Produces the non-interactive install command for the recipe's OS packages.
//
// apt-based managers get the full update/install/clean sequence with the
// package-index caches dropped in the same step, so the caches never land
// in the image layer. Other managers fall back to a plain install.
func systemInstallCommand(sys manifest.System) string {
	pkgs := strings.Join(sys.Packages, " ")

	switch sys.Manager {
	case "apt-get", "apt":
		return fmt.Sprintf(
			"%s update && %s install -y --no-install-recommends %s && rm -rf /var/lib/apt/lists/*",
			sys.Manager, sys.Manager, pkgs,
		)
	default:
		return fmt.Sprintf("%s install -y %s", sys.Manager, pkgs)
	}
}
