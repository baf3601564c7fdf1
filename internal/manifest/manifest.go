package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied to recipes that omit the corresponding field.
const (
	DefaultBase        = "ubuntu:22.04"
	DefaultWorkdir     = "/data"
	DefaultInterpreter = "python3"
	DefaultManager     = "apt-get"
)

// Default command set on the exported image when the recipe declares none.
var DefaultCommand = []string{"/bin/bash"}

var (
	ErrRecipe      = errors.New("invalid recipe")
	ErrMissingFile = errors.New("missing context file")
)

// Describes a complete provisioning recipe.
//
// A recipe declares everything needed to produce the image: the base image,
// the working directory, the context files to copy into it, the OS packages
// and pinned Python requirements to install, one bundled source archive to
// build in place, and the default command of the final image.
type Recipe struct {
	Base    string            `yaml:"base"`              // Base image reference or path to a local OCI archive.
	Workdir string            `yaml:"workdir,omitempty"` // Working directory created inside the image.
	Shell   string            `yaml:"shell,omitempty"`   // Shell used for generated run steps.
	Env     map[string]string `yaml:"env,omitempty"`     // Environment applied to all run steps.
	Files   []FileCopy        `yaml:"files,omitempty"`   // Context files copied into the working directory.
	System  System            `yaml:"system,omitempty"`  // OS-level package installation.
	Python  Python            `yaml:"python,omitempty"`  // Pinned Python dependency installation.
	Archive Archive           `yaml:"archive,omitempty"` // Bundled source archive built in place.
	Command []string          `yaml:"command,omitempty"` // Default command of the exported image.
}

// Declares a single file copied from the build context into the image.
type FileCopy struct {
	Source string `yaml:"source"`         // Path relative to the build context.
	Dest   string `yaml:"dest,omitempty"` // Absolute destination; defaults to workdir/basename.
}

// Declares OS-level packages installed via the image's package manager.
type System struct {
	Manager  string   `yaml:"manager,omitempty"` // Package manager; defaults to apt-get.
	Packages []string `yaml:"packages,omitempty"`
}

// Declares pinned Python dependencies installed from a requirements manifest.
//
// The manifest file is copied into the working directory for the install
// step and removed again during cleanup, so it never ships in the image.
type Python struct {
	Interpreter  string `yaml:"interpreter,omitempty"`  // Interpreter binary; defaults to python3.
	Requirements string `yaml:"requirements,omitempty"` // Context path of the requirements manifest.
}

// Declares one bundled source archive unpacked and installed during the
// build. The archive and its unpacked tree are deleted afterwards.
type Archive struct {
	Source    string `yaml:"source"`              // Context path of the .tar.gz archive.
	Installer string `yaml:"installer,omitempty"` // Install command run inside the unpacked tree.
}

// Loads a recipe from a YAML file and applies defaults.
//
// Unknown fields are rejected so that typos in recipe keys fail loudly
// instead of silently dropping a build step.
func Load(path string) (*Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecipe, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var r Recipe
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRecipe, path, err)
	}

	r.applyDefaults()
	return &r, nil
}

// Fills in default values for omitted fields.
func (r *Recipe) applyDefaults() {
	if r.Base == "" {
		r.Base = DefaultBase
	}
	if r.Workdir == "" {
		r.Workdir = DefaultWorkdir
	}
	if r.System.Manager == "" {
		r.System.Manager = DefaultManager
	}
	if r.Python.Interpreter == "" {
		r.Python.Interpreter = DefaultInterpreter
	}
	if len(r.Command) == 0 {
		r.Command = append([]string(nil), DefaultCommand...)
	}
	for i := range r.Files {
		if r.Files[i].Dest == "" {
			r.Files[i].Dest = filepath.Join(r.Workdir, filepath.Base(r.Files[i].Source))
		}
	}
}

// Checks the recipe for structural problems.
//
// Validation covers only the recipe document itself; context file existence
// is checked separately by [Recipe.CheckContext] so that a recipe can be
// validated without access to its build context.
func (r *Recipe) Validate() error {
	if r.Base == "" {
		return fmt.Errorf("%w: base image is required", ErrRecipe)
	}
	if !strings.HasPrefix(r.Workdir, "/") {
		return fmt.Errorf("%w: workdir %q must be absolute", ErrRecipe, r.Workdir)
	}

	for i, fc := range r.Files {
		if fc.Source == "" {
			return fmt.Errorf("%w: files[%d]: source is required", ErrRecipe, i)
		}
		if filepath.IsAbs(fc.Source) {
			return fmt.Errorf("%w: files[%d]: source %q must be context-relative", ErrRecipe, i, fc.Source)
		}
		if !strings.HasPrefix(fc.Dest, "/") {
			return fmt.Errorf("%w: files[%d]: dest %q must be absolute", ErrRecipe, i, fc.Dest)
		}
	}

	if r.Archive.Source != "" && !isTarball(r.Archive.Source) {
		return fmt.Errorf("%w: archive source %q is not a .tar.gz or .tgz archive", ErrRecipe, r.Archive.Source)
	}

	return nil
}

// Verifies that every context file the recipe references exists under root.
//
// Called before any container is started: a missing file aborts the build
// up front instead of failing halfway through package installation.
func (r *Recipe) CheckContext(root string) error {
	for _, rel := range r.ContextFiles() {
		path := filepath.Join(root, rel)
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrMissingFile, rel)
		}
		if info.IsDir() && rel == r.Archive.Source {
			return fmt.Errorf("%w: archive %s is a directory", ErrRecipe, rel)
		}
	}
	return nil
}

// Returns the context-relative paths of every file the recipe consumes,
// in consumption order: copied files first, then the requirements manifest,
// then the bundled archive.
func (r *Recipe) ContextFiles() []string {
	files := make([]string, 0, len(r.Files)+2)
	for _, fc := range r.Files {
		files = append(files, fc.Source)
	}
	if r.Python.Requirements != "" {
		files = append(files, r.Python.Requirements)
	}
	if r.Archive.Source != "" {
		files = append(files, r.Archive.Source)
	}
	return files
}

// Returns the directory name the archive unpacks to, derived from the
// archive file name with its extension stripped (the sdist convention:
// name-version.tar.gz unpacks to name-version/).
func (a Archive) UnpackedDir() string {
	name := filepath.Base(a.Source)
	name = strings.TrimSuffix(name, ".tar.gz")
	name = strings.TrimSuffix(name, ".tgz")
	return name
}

// Whether the path names a gzip-compressed tar archive.
func isTarball(path string) bool {
	return strings.HasSuffix(path, ".tar.gz") || strings.HasSuffix(path, ".tgz")
}
