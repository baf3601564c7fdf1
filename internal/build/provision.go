package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/qufa/mkimage/internal/manifest"
	"github.com/qufa/mkimage/internal/paths"
	"github.com/qufa/mkimage/internal/runtime"
)

// Holds shared state for executing a recipe across all target platforms.
type provisioner struct {
	rt         *runtime.Runtime     // Container runtime for image and container operations.
	recipe     *manifest.Recipe     // Recipe being executed.
	resource   string               // Resource name, used as a prefix for container IDs.
	output     string               // Output directory for the final build artifact.
	context    string               // Build context root for resolving copy sources.
	platforms  []string             // Target platforms to build for.
	containers []*runtime.Container // Build containers across all platforms, destroyed after the build completes.
}

// Creates a new [provisioner] from the given options.
func newProvisioner(rt *runtime.Runtime, opts Options) *provisioner {
	return &provisioner{
		rt:        rt,
		recipe:    opts.Recipe,
		resource:  opts.Resource,
		output:    opts.Output,
		context:   opts.Root,
		platforms: opts.Platforms,
	}
}

// Executes the recipe end-to-end against the container runtime.
//
// Each target platform is provisioned independently, in declaration order.
// All build containers are destroyed when the build completes, whether it
// succeeded or not. Failure of any platform aborts the whole build; there
// is no partial success.
func (p *provisioner) build(ctx context.Context) (*Result, error) {
	defer p.destroyContainers(ctx)

	for _, platform := range p.platforms {
		if err := p.buildPlatform(ctx, platform); err != nil {
			return nil, fmt.Errorf("%w: platform %s: %w", ErrBuild, platform, err)
		}
	}

	return &Result{Output: p.output}, nil
}

// Provisions the image for a single platform.
//
// A container is started from the base image, the compiled plan is executed
// step by step, the container is stopped, and its committed filesystem is
// exported to the platform's output directory with the recipe's command,
// working directory, and environment on the image config.
func (p *provisioner) buildPlatform(ctx context.Context, platform string) error {
	slog.Info("provisioning platform", "platform", platform)

	output := p.platformOutput(platform)
	if err := os.MkdirAll(output, paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
	}

	ctr, err := p.rt.StartContainer(ctx, p.recipe.Base, p.containerID(platform), platform)
	if err != nil {
		return err
	}
	p.containers = append(p.containers, ctr)

	if err := executeSteps(ctx, ctr, compilePlan(p.recipe), newStepState(), p.context); err != nil {
		return err
	}

	if err := ctr.Stop(ctx); err != nil {
		return err
	}

	return ctr.Export(ctx, output, runtime.ExportConfig{
		Cmd:        p.recipe.Command,
		WorkingDir: p.recipe.Workdir,
		Env:        environ(p.recipe.Env),
	})
}

// Destroys all build containers.
func (p *provisioner) destroyContainers(ctx context.Context) {
	for _, ctr := range p.containers {
		ctr.Destroy(ctx)
	}
}

// Returns a unique container ID for a platform, scoped to this resource.
func (p *provisioner) containerID(platform string) string {
	return fmt.Sprintf("%s-%s-provision", p.resource, platformSlug(platform))
}

// Returns the output directory for a specific platform.
//
// When building for a single platform, the output directory is left as-is
// to preserve the {output}/image.tar convention. For multi-platform builds,
// each platform gets a subdirectory (e.g., {output}/linux-amd64).
func (p *provisioner) platformOutput(platform string) string {
	if len(p.platforms) == 1 {
		return p.output
	}
	return filepath.Join(p.output, platformSlug(platform))
}

// Converts a platform string to a filesystem-safe slug.
//
// Replaces slashes with dashes (e.g., "linux/amd64" becomes "linux-amd64").
func platformSlug(platform string) string {
	return strings.ReplaceAll(platform, "/", "-")
}

// Formats an environment map as a list of "key=value" strings.
func environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
