package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/qufa/mkimage/internal"
)

// Represents the root command for the mkimage CLI.
var RootCmd struct {
	Quiet   bool `short:"q" help:"Suppress informational output."`
	Verbose bool `short:"v" help:"Enable verbose output."`
	Debug   bool `short:"d" help:"Enable debug output."`

	ContainerdAddress   string `help:"Containerd socket address." default:"/run/containerd/containerd.sock" placeholder:"PATH"`
	ContainerdNamespace string `help:"Containerd namespace for images and containers." default:"mkimage"`

	Build   BuildCmd   `cmd:"" help:"Execute a provisioning recipe."`
	Verify  VerifyCmd  `cmd:"" help:"Check a built image against its recipe."`
	Daemon  DaemonCmd  `cmd:"" help:"Run the provisioning daemon."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Provisions container images from declarative recipes.\n\nA recipe turns a base image into a ready-to-run environment: data and\nconfig files copied in, OS packages and pinned requirements installed,\nand a bundled source archive built in place."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global logger based on CLI flags.
//
// Flags are persisted into the process-wide modes first, so packages that
// consult [internal.IsQuiet] and friends see the final values rather than
// just the ldflags defaults.
func configureLogger() {
	if RootCmd.Quiet {
		internal.SetQuiet(true)
	}
	if RootCmd.Debug {
		internal.SetDebug(true)
	}
	if RootCmd.Verbose {
		internal.SetVerbose(true)
	}

	handler, ok := slog.Default().Handler().(*log.Logger)
	if !ok {
		return // Not the charm handler, nothing to configure
	}

	switch {
	case internal.IsDebug():
		handler.SetLevel(log.DebugLevel)
	case internal.IsQuiet():
		handler.SetLevel(log.WarnLevel)
	default:
		handler.SetLevel(log.InfoLevel)
	}

	if internal.IsVerbose() {
		handler.SetReportCaller(true)
	}
}
