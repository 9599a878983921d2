package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Delete the persisted index and build it again",
	Long: `Delete the persisted index and build a fresh one from the data directory.

This is the only way to pick up document changes once an index exists.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	a.cache.Reset()
	started := time.Now()
	index, err := a.builder.Rebuild(ctx, a.cfg.Paths.DataDir)
	if err != nil {
		return err
	}
	if c, ok := index.(io.Closer); ok {
		defer c.Close()
	}

	meta, err := index.Meta(ctx)
	if err != nil {
		return err
	}
	printMeta(cmd.OutOrStdout(), meta)
	fmt.Fprintf(cmd.OutOrStdout(), "Took: %s\n", time.Since(started).Round(time.Millisecond))
	return nil
}

func printMeta(w io.Writer, meta entities.IndexMeta) {
	fmt.Fprintf(w, "Fingerprint: %s\n", meta.Fingerprint)
	fmt.Fprintf(w, "Embedding model: %s (%d dims)\n", meta.EmbeddingModel, meta.Dimension)
	fmt.Fprintf(w, "Documents: %d\n", meta.Documents)
	fmt.Fprintf(w, "Chunks: %d\n", meta.Chunks)
}
