package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragchat/internal/adapters/filewatcher"
	"github.com/0xcro3dile/ragchat/internal/adapters/session"
	apphttp "github.com/0xcro3dile/ragchat/internal/infrastructure/http"
)

const evictionSchedule = "@every 1m"

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat UI over HTTP",
	Long: `Serve the browser chat UI and its JSON API.

Each browser gets its own conversation, kept in memory and dropped after
server.session_ttl of inactivity. Changes to the data directory are logged
but do not trigger a rebuild; run 'ragchat reindex' for that.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.warmUp(ctx); err != nil {
		return err
	}

	sessions := session.NewRegistry(a.bundle.Messages.Greeting, a.cfg.Server.SessionTTL, a.logger)
	if err := sessions.StartEviction(evictionSchedule); err != nil {
		return err
	}
	defer sessions.Close()

	go watchData(ctx, a)

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	server, err := apphttp.NewServer(a.chat, sessions, a.bundle, a.cache, addr, a.logger)
	if err != nil {
		return err
	}
	return server.Start(ctx)
}

// watchData logs when the documents drift from the persisted index. Failures only disable the warning.
func watchData(ctx context.Context, a *app) {
	watcher, err := filewatcher.NewFSNotifyWatcher(a.loader.SupportedExtensions(), a.logger)
	if err != nil {
		a.logger.Warn().Err(err).Msg("data directory watcher unavailable")
		return
	}
	notifier := filewatcher.NewStaleNotifier(watcher, filewatcher.DefaultQuietPeriod, a.logger, nil)
	if err := notifier.Run(ctx, a.cfg.Paths.DataDir); err != nil {
		a.logger.Warn().Err(err).Msg("data directory watcher stopped")
	}
}
