package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragchat/internal/adapters/fingerprint"
	"github.com/0xcro3dile/ragchat/internal/config"
	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/logger"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [dir]",
	Short: "Print the fingerprint of a directory",
	Long: `Print the fingerprint of a directory tree, computed from file paths, sizes and
modification times. Defaults to paths.data_dir from the config file, or ./data
when no config file is present.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFingerprint,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	dir := config.DefaultConfig().Paths.DataDir
	lc := logger.DefaultConfig()
	lc.Level = "warn"
	if logLevel != "" {
		lc.Level = logLevel
	}

	if len(args) == 1 {
		dir = args[0]
	} else {
		cfg, err := loadConfig()
		switch {
		case err == nil:
			dir = cfg.Paths.DataDir
		case !apperr.IsNotFound(err):
			return err
		}
	}

	log, err := logger.New(lc)
	if err != nil {
		return err
	}
	defer log.Close()

	fp, err := fingerprint.NewWalker(log.Zerolog()).Compute(cmd.Context(), dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), fp)
	return nil
}
