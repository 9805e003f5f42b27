package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/archive"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/viewer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/tracing"
)

var (
	configPath string
	archiveDir string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "helpviewer",
	Short: "Browse and search compiled help archives",
	Long: `helpviewer reads an unpacked compiled-help archive, rebuilds its table of
contents and builds a full-text index over its pages. It can print the
contents tree, run searches from the terminal or serve the archive over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&archiveDir, "archive", "a", "", "directory of the unpacked archive (overrides archive.root)")
}

// Execute runs the command line. Interrupt and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if archiveDir != "" {
		loaded.Archive.Root = archiveDir
	}
	logger.SetupWriter(cmd.ErrOrStderr(), loaded.Logging.Level, loaded.Logging.Format)
	tracing.SetEnabled(loaded.Tracing.Enabled)
	cfg = loaded
	return nil
}

// openArchive opens the configured archive directory. The archive is named
// after its directory.
func openArchive(ctx context.Context, opts ...viewer.Option) (*viewer.Viewer, error) {
	if cfg.Archive.Root == "" {
		return nil, fmt.Errorf("set --archive or archive.root: %w", apperrors.ErrArchiveNotLoaded)
	}
	reader, err := archive.OpenDir(cfg.Archive.Root)
	if err != nil {
		return nil, err
	}
	return viewer.Open(ctx, filepath.Base(reader.Root()), reader, cfg, opts...)
}
