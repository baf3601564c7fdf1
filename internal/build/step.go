package build

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qufa/mkimage/internal/runtime"
)

// Executes a provisioning plan in order against the build container.
func executeSteps(ctx context.Context, ctr *runtime.Container, steps []step, state *stepState, buildCtx string) error {
	for i, st := range steps {
		if err := executeStep(ctx, ctr, st, state, buildCtx); err != nil {
			return fmt.Errorf("%w: step %d (%s): %w", ErrBuild, i+1, st.desc, err)
		}
	}
	return nil
}

// Executes a single step, dispatching to operation execution or state
// mutation depending on the step's fields.
func executeStep(ctx context.Context, ctr *runtime.Container, st step, state *stepState, buildCtx string) error {
	if st.isOperation() {
		return executeOperation(ctx, ctr, st, state, buildCtx)
	}

	// Standalone modifier(s): persist in state.
	state.apply(st)
	return nil
}

// Executes a run or copy operation with scoped modifier overrides.
//
// Step-level modifiers override the persistent state for this operation only.
// The persistent state is not modified.
func executeOperation(ctx context.Context, ctr *runtime.Container, st step, state *stepState, buildCtx string) error {
	resolved := state.resolve(st)

	if resolved.workdir != "" {
		if err := ctr.MkdirAll(ctx, resolved.workdir); err != nil {
			return err
		}
	}

	switch {
	case st.run != "":
		slog.Debug("run", "command", st.run, "shell", resolved.shell)
		result, err := ctr.Exec(ctx, resolved.shell, st.run, resolved.environ(), resolved.workdir)
		if err != nil {
			return err
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("%w: exit code %d: %s", ErrCommandFailed, result.ExitCode, result.Stderr)
		}

	case st.copy != nil:
		if err := executeCopy(ctx, ctr, *st.copy, buildCtx); err != nil {
			return err
		}
	}

	return nil
}
