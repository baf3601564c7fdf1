package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/qufa/mkimage/internal/build"
	"github.com/qufa/mkimage/internal/manifest"
	"github.com/qufa/mkimage/internal/runtime"
)

// Represents the 'mkimage verify' command.
type VerifyCmd struct {
	Recipe   string `arg:"" help:"Path to the recipe YAML." type:"existingfile"`
	Archive  string `arg:"" help:"Path to the exported OCI archive." type:"existingfile"`
	Root     string `help:"Build context root. Defaults to the recipe's directory." placeholder:"DIR"`
	Resource string `default:"mkimage" help:"Resource name used as a prefix for container IDs."`
}

// Executes the verify command.
//
// Starts a container from the archive and checks the image contents against
// the recipe: copied files byte-identical, cleanup artifacts absent. Exits
// non-zero when any check fails.
func (c *VerifyCmd) Run(ctx context.Context) error {
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

	report, err := build.Verify(ctx, rt, build.VerifyOptions{
		Recipe:   recipe,
		Archive:  c.Archive,
		Root:     root,
		Resource: c.Resource,
	})
	if err != nil {
		return err
	}

	for _, check := range report.Checks {
		if check.OK {
			slog.Info("check passed", "name", check.Name)
		} else {
			slog.Error("check failed", "name", check.Name, "detail", check.Detail)
		}
	}

	if !report.OK() {
		return fmt.Errorf("%w: %d of %d checks failed",
			build.ErrVerify, len(report.Failures()), len(report.Checks))
	}

	slog.Info("image verified", "checks", len(report.Checks))
	return nil
}
