package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve [dir]",
	Aliases: []string{"s"},
	Short:   "Start the live preview server",
	Long: `Serve live previews of the Aeon pages under a directory. Pages are
expanded against the selected mock data profile on every request and reload
in the browser when the page or one of its includes is saved.

Examples:
  aeonkit serve                     # Serve the current directory
  aeonkit serve site --port 9000    # Serve ./site on port 9000
  aeonkit serve --profile admin     # Start with the admin profile`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

var (
	serveProfile  string
	serveGenerate bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8585, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("no-reload", false, "Don't watch files or reload previews on save")
	serveCmd.Flags().StringVar(&serveProfile, "profile", "", "Mock data profile (default from config)")
	serveCmd.Flags().BoolVar(&serveGenerate, "generate", false, "Invent values for fields the profile does not define")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noReload, _ := cmd.Flags().GetBool("no-reload"); noReload {
		cfg.Preview.AutoRefreshOnSave = false
	}

	logger := newLogger()

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	manager, err := newProfileManager(cfg, newStore(cfg, logger), serveProfile)
	if err != nil {
		return err
	}

	opts := server.Options{
		Config:   cfg,
		Root:     root,
		Profiles: manager,
		Logger:   logger,
	}
	if serveGenerate {
		opts.Generator = mockdata.NewGenerator(time.Now().UnixNano())
	}

	srv, err := server.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn(shutdownCtx, shutdownErr, "Error during server shutdown")
		}
		cancel()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving Aeon previews of %s at http://%s\n", root, cfg.Addr())

	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
