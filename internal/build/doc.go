// Package build orchestrates recipe execution against container runtimes.
//
// A recipe compiles into an ordered plan of steps: establish the working
// directory, copy the declared context files into the image, install OS
// packages and pinned requirements, build the bundled source archive, and
// clean up everything that should not ship. The pipeline starts a container
// from the base image, dispatches the steps, and exports the committed
// filesystem as an OCI image whose config carries the recipe's command.
// Multi-platform builds repeat the pipeline per platform, writing each
// result to a platform-specific output directory.
//
// Container operations are delegated to the runtime package. Step state
// (environment variables, working directory, shell) is accumulated across
// steps within a build. Every step is one-shot and order-dependent: the
// first failure aborts the whole build, with no retries and no partial
// success.
//
// Example usage:
//
//	result, err := build.Run(ctx, rt, build.Options{
//	    Recipe:    recipe,
//	    Resource:  "feature-runtime",
//	    Output:    "dist",
//	    Root:      ".",
//	    Platforms: []string{"linux/amd64"},
//	})
//	if err != nil {
//	    return err
//	}
package build
