package cli

import (
	"context"
	"log/slog"

	"github.com/qufa/mkimage/internal/server"
)

// Represents the 'mkimage daemon' command.
type DaemonCmd struct {
	Socket string `short:"s" help:"Override the default Unix socket path." placeholder:"PATH"`
}

// Executes the daemon command.
//
// Starts the command server on a Unix domain socket and blocks until the
// context is cancelled (e.g. via SIGINT or SIGTERM) or a shutdown command
// arrives on the socket.
func (c *DaemonCmd) Run(ctx context.Context) error {
	srv, err := server.New(server.Config{
		SocketPath:          c.Socket,
		ContainerdAddress:   RootCmd.ContainerdAddress,
		ContainerdNamespace: RootCmd.ContainerdNamespace,
	})
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	slog.Info("daemon is running")

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		return srv.Stop()
	case <-done(srv):
		return nil
	}
}

// Adapts [server.Server.Wait] to a channel for use in select.
func done(srv *server.Server) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		srv.Wait()
		close(ch)
	}()
	return ch
}
