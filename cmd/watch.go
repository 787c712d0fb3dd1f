package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/aeonkit/internal/config"
	"github.com/conneroisu/aeonkit/internal/diagnostics"
	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/registry"
	"github.com/conneroisu/aeonkit/internal/renderer"
	"github.com/conneroisu/aeonkit/internal/scanner"
	"github.com/conneroisu/aeonkit/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch [dir]",
	Aliases: []string{"w"},
	Short:   "Re-validate and re-expand pages when they change",
	Long: `Watch a directory for saved .html files. Each changed page, and every
page that includes it, is validated (when validate.auto_validate_on_save is
set) and, with --out, expanded into the output directory.

Examples:
  aeonkit watch                     # Validate pages on save
  aeonkit watch site --out build    # Also write expanded pages to ./build`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var (
	watchOut     string
	watchProfile string
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchOut, "out", "", "Directory receiving expanded pages")
	watchCmd.Flags().StringVar(&watchProfile, "profile", "", "Mock data profile (default from config)")
}

// pageProcessor validates and expands pages of one workspace.
type pageProcessor struct {
	cfg      *config.Config
	root     string
	out      string
	engine   *renderer.Engine
	profiles *mockdata.Manager
	scanner  *scanner.WorkspaceScanner
	registry *registry.DocumentRegistry
	logger   logging.Logger
	stdout   io.Writer
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}

	manager, err := newProfileManager(cfg, newStore(cfg, logger), watchProfile)
	if err != nil {
		return err
	}

	reg := registry.NewDocumentRegistry()
	p := &pageProcessor{
		cfg:      cfg,
		root:     root,
		out:      watchOut,
		engine:   newEngine(cfg, logger),
		profiles: manager,
		scanner:  scanner.NewWorkspaceScanner(root, reg, logger),
		registry: reg,
		logger:   logger.WithComponent("watch"),
		stdout:   cmd.OutOrStdout(),
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if _, err := p.scanner.Scan(ctx); err != nil {
		logger.Warn(ctx, err, "Initial scan failed")
	}

	fileWatcher, err := watcher.NewFileWatcher(watcher.DefaultDebounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.HTMLFilter)
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.NoBackupFilter)
	if watchOut != "" {
		out, err := filepath.Abs(watchOut)
		if err != nil {
			return err
		}
		p.out = out
		fileWatcher.AddFilter(outsideDir(out))
	}
	fileWatcher.AddHandler(p.handleChanges)

	if err := fileWatcher.AddRecursive(root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	if err := fileWatcher.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(p.stdout, "Watching %d directories under %s (Ctrl+C to stop)\n", len(fileWatcher.WatchList()), root)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}
	fmt.Fprintln(p.stdout, "Stopping watcher")
	return nil
}

// outsideDir rejects paths under dir, so written output does not trigger
// another round of processing.
func outsideDir(dir string) watcher.FileFilter {
	return func(path string) bool {
		rel, err := filepath.Rel(dir, path)
		return err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
	}
}

// handleChanges processes the changed pages and the pages including them.
func (p *pageProcessor) handleChanges(ctx context.Context, events []watcher.ChangeEvent) error {
	affected := make(map[string]bool)
	for _, event := range events {
		if event.Type == watcher.EventTypeDeleted {
			p.registry.Remove(event.Path)
		} else {
			if _, err := p.scanner.ScanFile(event.Path); err != nil {
				p.logger.Warn(ctx, err, "Failed to rescan file", "path", event.Path)
			}
			affected[event.Path] = true
		}
		for _, doc := range p.registry.Dependents(event.Path) {
			affected[doc.FilePath] = true
		}
	}

	paths := make([]string, 0, len(affected))
	for path := range affected {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := p.process(ctx, path); err != nil {
			p.logger.Warn(ctx, err, "Processing failed", "path", path)
		}
	}
	return nil
}

// process validates and optionally expands one page.
func (p *pageProcessor) process(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		rel = path
	}

	if p.cfg.Validate.AutoValidateOnSave {
		checker := diagnostics.NewChecker(diagnostics.Options{
			Includes:      p.engine,
			DocumentPath:  path,
			WorkspaceRoot: p.root,
			Logger:        p.logger,
		})
		diags := checker.Check(ctx, string(content))
		for _, d := range diags {
			fmt.Fprintf(p.stdout, "%s:%s\n", rel, d)
		}
		if len(diags) == 0 {
			fmt.Fprintf(p.stdout, "%s: ok\n", rel)
		}
	}

	if p.out == "" {
		return nil
	}

	res, err := p.engine.Preview(ctx, string(content), p.profiles.CurrentData(), renderer.PreviewOptions{
		DocumentPath:  path,
		WorkspaceRoot: p.root,
		Minify:        p.cfg.Preview.Minify,
	})
	if err != nil {
		return err
	}

	target := filepath.Join(p.out, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(target, []byte(res.HTML), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(p.stdout, "%s: expanded to %s (%d tag errors)\n", rel, target, len(res.Errors))
	return nil
}
