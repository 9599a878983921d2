package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragchat/internal/adapters/session"
	"github.com/0xcro3dile/ragchat/internal/infrastructure/terminal"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the documents in the terminal",
	Long: `Start an interactive chat in the terminal.

Commands at the prompt:
  /history  show the conversation so far
  /clear    start a new conversation
  /exit     quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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

	sessions := session.NewRegistry(a.bundle.Messages.Greeting, 0, a.logger)
	defer sessions.Close()

	ui := terminal.New(a.chat, sessions, a.bundle.Messages, os.Stdin, cmd.OutOrStdout(), terminal.DefaultOptions(), a.logger)
	started := time.Now()
	err = ui.Run(ctx)
	a.logger.Debug().Dur("duration", time.Since(started)).Msg("chat ended")
	return err
}
