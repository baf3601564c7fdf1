package cli

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/qufa/mkimage/internal/build"
	"github.com/qufa/mkimage/internal/manifest"
	"github.com/qufa/mkimage/internal/runtime"
)

// Represents the 'mkimage build' command.
type BuildCmd struct {
	Recipe   string   `arg:"" help:"Path to the recipe YAML." type:"existingfile"`
	Root     string   `help:"Build context root. Defaults to the recipe's directory." placeholder:"DIR"`
	Output   string   `short:"o" default:"dist" help:"Directory for the exported image."`
	Resource string   `default:"mkimage" help:"Resource name used as a prefix for container IDs."`
	Platform []string `help:"Target platform (e.g., linux/amd64). Repeatable; defaults to the host."`
}

// Executes the build command.
//
// Loads and validates the recipe, connects to containerd, and runs the
// provisioning pipeline. The exported image lands in the output directory.
func (c *BuildCmd) Run(ctx context.Context) error {
	recipe, err := manifest.Load(c.Recipe)
	if err != nil {
		return err
	}

	root := c.Root
	if root == "" {
		root = filepath.Dir(c.Recipe)
	}

	rt, err := runtime.New(RootCmd.ContainerdAddress, RootCmd.ContainerdNamespace)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := build.Run(ctx, rt, build.Options{
		Recipe:    recipe,
		Resource:  c.Resource,
		Output:    c.Output,
		Root:      root,
		Platforms: c.Platform,
	})
	if err != nil {
		return err
	}

	slog.Info("build complete", "output", result.Output)
	return nil
}
