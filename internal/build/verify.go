package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/qufa/mkimage/internal/manifest"
	"github.com/qufa/mkimage/internal/runtime"
)

// Outcome of a single image content check.
type Check struct {
	Name   string // Human-readable description of the property checked.
	OK     bool   // Whether the property holds.
	Detail string // Explanation when the check fails.
}

// Collects the outcomes of all content checks run against an image.
type Report struct {
	Checks []Check
}

// Whether every check passed.
func (r *Report) OK() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Returns the checks that failed.
func (r *Report) Failures() []Check {
	var failed []Check
	for _, c := range r.Checks {
		if !c.OK {
			failed = append(failed, c)
		}
	}
	return failed
}

// Controls image verification.
type VerifyOptions struct {
	Recipe   *manifest.Recipe // Recipe the image was built from.
	Archive  string           // Path to the exported OCI archive.
	Root     string           // Build context root, for byte-identity comparison.
	Resource string           // Resource name, used as a prefix for the container ID.
	Platform string           // Target platform. Defaults to host.
}

// Checks a provisioned image against the recipe's content contract.
//
// A container is started from the exported archive and probed: every copied
// file must be present and byte-identical to its build-context original
// (compared by sha256), the working directory must exist, and the cleanup
// leftovers (the requirements manifest, the bundled archive, its unpacked
// tree) must be absent. Failed checks are reported, not returned as errors;
// an error means verification itself could not run.
func Verify(ctx context.Context, rt *runtime.Runtime, opts VerifyOptions) (*Report, error) {
	if opts.Platform == "" {
		opts.Platform = "linux/" + goruntime.GOARCH
	}

	slog.Info("verifying image", "archive", opts.Archive, "platform", opts.Platform)

	id := fmt.Sprintf("%s-%s-verify", opts.Resource, platformSlug(opts.Platform))
	ctr, err := rt.StartContainer(ctx, opts.Archive, id, opts.Platform)
	if err != nil {
		return nil, err
	}
	defer ctr.Destroy(ctx)

	v := &verifier{ctr: ctr, root: opts.Root}

	for _, c := range contentChecks(opts.Recipe) {
		switch c.kind {
		case checkKindDir:
			v.checkDir(ctx, c.name, c.path)
		case checkKindAbsent:
			v.checkAbsent(ctx, c.name, c.path)
		case checkKindDigest:
			v.checkDigest(ctx, c.name, c.source, c.path)
		}
	}

	return &v.report, nil
}

// Kind of probe a content check runs inside the image.
type checkKind int

const (
	checkKindDir    checkKind = iota // Path must be a directory.
	checkKindAbsent                  // Path must not exist.
	checkKindDigest                  // File must match its context original.
)

// A single planned probe against the image contents.
type contentCheck struct {
	name   string    // Human-readable description of the property.
	kind   checkKind // Probe to run.
	path   string    // Path inside the image.
	source string    // Context-relative original, digest checks only.
}

// Compiles the recipe's content contract into an ordered check list.
//
// The list mirrors what the build actually did: the working directory it
// created, the files it copied, and the build-time artifacts its cleanup
// steps removed (the requirements manifest in the working directory, the
// staging directory holding the archive and its unpacked tree). Compilation
// is pure; probes run later against a container.
func contentChecks(r *manifest.Recipe) []contentCheck {
	checks := []contentCheck{{
		name: "working directory " + r.Workdir,
		kind: checkKindDir,
		path: r.Workdir,
	}}

	for _, fc := range r.Files {
		checks = append(checks, contentCheck{
			name:   "file " + fc.Source + " byte-identical",
			kind:   checkKindDigest,
			path:   fc.Dest,
			source: fc.Source,
		})
	}

	if r.Python.Requirements != "" {
		checks = append(checks, contentCheck{
			name: "requirements manifest removed",
			kind: checkKindAbsent,
			path: path.Join(r.Workdir, path.Base(r.Python.Requirements)),
		})
	}

	if r.Archive.Source != "" {
		checks = append(checks, contentCheck{
			name: "staging directory removed",
			kind: checkKindAbsent,
			path: stagingDir,
		})
	}

	return checks
}

// Accumulates check outcomes against a running container.
type verifier struct {
	ctr    *runtime.Container
	root   string
	report Report
}

// Records a check outcome.
func (v *verifier) record(name string, ok bool, detail string) {
	v.report.Checks = append(v.report.Checks, Check{Name: name, OK: ok, Detail: detail})
}

// Runs a shell probe inside the container and returns its result.
func (v *verifier) probe(ctx context.Context, command string) (*runtime.ExecResult, error) {
	return v.ctr.Exec(ctx, defaultShell, command, nil, "")
}

// Checks that a directory exists inside the image.
func (v *verifier) checkDir(ctx context.Context, name, dir string) {
	result, err := v.probe(ctx, "test -d "+dir)
	if err != nil {
		v.record(name, false, err.Error())
		return
	}
	v.record(name, result.ExitCode == 0, fmt.Sprintf("%s is not a directory", dir))
}

// Checks that a path does not exist inside the image.
func (v *verifier) checkAbsent(ctx context.Context, name, p string) {
	result, err := v.probe(ctx, "test -e "+p)
	if err != nil {
		v.record(name, false, err.Error())
		return
	}
	v.record(name, result.ExitCode != 0, fmt.Sprintf("%s still present", p))
}

// Checks that a copied file is byte-identical to its context original.
func (v *verifier) checkDigest(ctx context.Context, name, source, dest string) {
	want, err := hostDigest(filepath.Join(v.root, source))
	if err != nil {
		v.record(name, false, err.Error())
		return
	}

	result, err := v.probe(ctx, "sha256sum "+dest)
	if err != nil {
		v.record(name, false, err.Error())
		return
	}
	if result.ExitCode != 0 {
		v.record(name, false, fmt.Sprintf("%s missing from image: %s", dest, strings.TrimSpace(result.Stderr)))
		return
	}

	got := parseDigest(result.Stdout)
	v.record(name, got == want, fmt.Sprintf("digest %s, want %s", got, want))
}

// Computes the sha256 digest of a file on the host.
func hostDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Extracts the digest field from sha256sum output ("<digest>  <path>").
func parseDigest(out string) string {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
