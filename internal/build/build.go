package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	goruntime "runtime"

	"github.com/qufa/mkimage/internal/manifest"
	"github.com/qufa/mkimage/internal/paths"
	"github.com/qufa/mkimage/internal/runtime"
)

// Controls recipe execution.
type Options struct {
	Recipe    *manifest.Recipe // Recipe to execute.
	Resource  string           // Resource name, used as a prefix for container IDs.
	Output    string           // Directory for the exported image.
	Root      string           // Build context root, for resolving copy sources.
	Platforms []string         // Target platforms (e.g., ["linux/amd64"]). Defaults to host.
}

// Returned after successful recipe execution.
type Result struct {
	Output string // Directory containing the exported image.
}

// Executes a provisioning recipe against the container runtime.
//
// The recipe is validated and every context file it references is checked
// for existence before any container is started: a missing file fails the
// build up front, not halfway through package installation. The compiled
// plan then runs in a container started from the base image, and the final
// filesystem is exported as an OCI archive with the recipe's command as the
// image's default process.
func Run(ctx context.Context, rt *runtime.Runtime, opts Options) (*Result, error) {
	if err := opts.Recipe.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Recipe.CheckContext(opts.Root); err != nil {
		return nil, err
	}

	if len(opts.Platforms) == 0 {
		opts.Platforms = []string{"linux/" + goruntime.GOARCH}
	}

	slog.Info("executing recipe",
		"resource", opts.Resource,
		"base", opts.Recipe.Base,
		"output", opts.Output,
		"steps", len(compilePlan(opts.Recipe)),
		"platforms", opts.Platforms,
	)

	if err := os.MkdirAll(opts.Output, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	return newProvisioner(rt, opts).build(ctx)
}
