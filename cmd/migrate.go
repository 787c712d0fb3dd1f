package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/aeonkit/internal/analyzer"
	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
	"github.com/conneroisu/aeonkit/internal/migration"
	"github.com/conneroisu/aeonkit/internal/registry"
	"github.com/conneroisu/aeonkit/internal/scanner"
	"github.com/conneroisu/aeonkit/internal/storage"
	"github.com/conneroisu/aeonkit/internal/templates"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate customized pages onto new default templates",
	Long: `Migration works in four steps:

  1. migrate project create   analyze customized pages against the new templates
  2. migrate select           keep, discard or modify each detected customization
  3. migrate apply            write the migrated pages
  4. migrate report           summarize the project

Projects can be referenced by id or by name.

Examples:
  aeonkit migrate project create "Reading Room" --source old --templates-dir templates/6.0
  aeonkit migrate select "Reading Room" DefaultRequest.html all keep
  aeonkit migrate select "Reading Room" DefaultRequest.html content-page-title modify --value "Request Item"
  aeonkit migrate apply "Reading Room" --out new
  aeonkit migrate report "Reading Room" -o report.md`,
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create, list, show, delete, export and import migration projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Analyze pages and create a migration project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List migration projects, most recent first",
	Args:    cobra.NoArgs,
	RunE:    runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show a project's pages and selections",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

var projectDeleteCmd = &cobra.Command{
	Use:     "delete <project>",
	Aliases: []string{"rm"},
	Short:   "Delete a project and its analyses",
	Args:    cobra.ExactArgs(1),
	RunE:    runProjectDelete,
}

var projectExportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Export a project with its analyses as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectExport,
}

var projectImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import an exported project under a new id",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectImport,
}

var selectCmd = &cobra.Command{
	Use:   "select <project> <page> <customization-id|all> <keep|discard|modify>",
	Short: "Record what to do with a detected customization",
	Args:  cobra.ExactArgs(4),
	RunE:  runSelect,
}

var applyCmd = &cobra.Command{
	Use:   "apply <project> [page...]",
	Short: "Apply the selections and write the migrated pages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runApply,
}

var reportCmd = &cobra.Command{
	Use:   "report <project>",
	Short: "Render a markdown migration report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

var brandCmd = &cobra.Command{
	Use:   "brand <project>",
	Short: "Record the branding applied to migrated pages",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrand,
}

var (
	migrateSource          string
	migratePages           []string
	migrateTemplatesDir    string
	migrateTemplateVersion string
	migrateFormat          string
	migrateOutput          string
	migrateValue           string
	migrateOut             string
	migrateBranding        storage.BrandingGuide
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(projectCmd, selectCmd, applyCmd, reportCmd, brandCmd)
	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectShowCmd, projectDeleteCmd, projectExportCmd, projectImportCmd)

	migrateCmd.PersistentFlags().StringVar(&migrateTemplatesDir, "templates-dir", "", "Directory of the new default templates (default from config)")

	projectCreateCmd.Flags().StringVar(&migrateSource, "source", ".", "Directory of the customized pages")
	projectCreateCmd.Flags().StringArrayVar(&migratePages, "page", nil, "Page to migrate, relative to --source (default: every Aeon page)")
	projectCreateCmd.Flags().StringVar(&migrateTemplateVersion, "template-version", "", "Version of the new templates (default from config)")

	addFormatFlag(projectListCmd, &migrateFormat, formatText, formatJSON, formatYAML)
	addFormatFlag(projectShowCmd, &migrateFormat, formatText, formatJSON, formatYAML)

	projectExportCmd.Flags().StringVarP(&migrateOutput, "output", "o", "", "Write to a file instead of stdout")
	reportCmd.Flags().StringVarP(&migrateOutput, "output", "o", "", "Write to a file instead of stdout")

	selectCmd.Flags().StringVar(&migrateValue, "value", "", "Replacement value for modify")

	applyCmd.Flags().StringVar(&migrateOut, "out", "migrated", "Directory receiving the migrated pages")

	brandCmd.Flags().StringVar(&migrateBranding.Colors.Primary, "primary", "", "Primary color")
	brandCmd.Flags().StringVar(&migrateBranding.Colors.Secondary, "secondary", "", "Secondary color")
	brandCmd.Flags().StringVar(&migrateBranding.Colors.Accent, "accent", "", "Accent color (default: secondary)")
	brandCmd.Flags().StringVar(&migrateBranding.Colors.Text, "text", "#212529", "Text color")
	brandCmd.Flags().StringVar(&migrateBranding.Colors.Background, "background", "#ffffff", "Background color")
	brandCmd.Flags().StringVar(&migrateBranding.Typography.FontFamily, "font", "system-ui, sans-serif", "Font family")
	brandCmd.Flags().StringVar(&migrateBranding.Typography.BaseFontSize, "font-size", "16px", "Base font size")
	brandCmd.Flags().StringVar(&migrateBranding.Typography.LineHeight, "line-height", "1.5", "Line height")
	_ = brandCmd.MarkFlagRequired("primary")
	_ = brandCmd.MarkFlagRequired("secondary")
}

// migrationEnv bundles what the migrate commands share.
type migrationEnv struct {
	store  *storage.Store
	loader *templates.Loader
}

func newMigrationEnv() (*migrationEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger()
	return &migrationEnv{
		store:  newStore(cfg, logger),
		loader: newTemplateLoader(cfg, migrateTemplatesDir, logger),
	}, nil
}

// findProject resolves ref as a project id, then as a name ignoring case.
func (env *migrationEnv) findProject(ctx context.Context, ref string) (*storage.Project, error) {
	p, err := env.store.LoadProject(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, aeonerrors.ErrProjectNotFound) {
		return nil, err
	}

	projects, err := env.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("project %q: %w", ref, aeonerrors.ErrProjectNotFound)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	env, err := newMigrationEnv()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	logger := newLogger()
	name := strings.TrimSpace(args[0])

	if name == "" {
		return aeonerrors.NewValidationError(aeonerrors.ErrCodeConfigInvalid, "project name is required")
	}
	exists, err := env.store.ProjectNameExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return aeonerrors.NewValidationError(aeonerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("a project named %q already exists", name))
	}

	source, err := filepath.Abs(migrateSource)
	if err != nil {
		return err
	}
	pages := migratePages
	if len(pages) == 0 {
		if pages, err = discoverPages(ctx, source); err != nil {
			return err
		}
	}
	if len(pages) == 0 {
		return fmt.Errorf("no Aeon pages found under %s", source)
	}

	manifest, err := env.loader.Manifest(ctx)
	if err != nil {
		return fmt.Errorf("reading template manifest: %w", err)
	}
	templateNames := make([]string, 0, len(manifest.Pages))
	for _, p := range manifest.Pages {
		templateNames = append(templateNames, p.FileName)
	}

	az := analyzer.New(env.loader, logger)
	analyses := make(map[string]*analyzer.PageAnalysis)
	project := storage.Project{
		Name:          name,
		TargetVersion: manifest.Version,
		WorkspaceRoot: source,
	}
	if migrateTemplateVersion != "" {
		project.TargetVersion = migrateTemplateVersion
	}
	features := make(map[string]bool)

	for _, page := range pages {
		content, err := os.ReadFile(filepath.Join(source, page))
		if err != nil {
			return fmt.Errorf("reading %s: %w", page, err)
		}
		target := scanner.FindBestTemplateMatch(filepath.Base(page), templateNames)
		if target == "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: no matching default template\n", page)
			continue
		}
		analysis, err := az.Analyze(ctx, string(content), target)
		if err != nil {
			return err
		}
		analyses[page] = analysis

		if project.SourceVersion == "" || project.SourceVersion == "Unknown" {
			project.SourceVersion = analysis.AeonVersion
		}
		for _, f := range analysis.DetectedFeatures {
			features[f] = true
		}
		project.Pages = append(project.Pages, storage.Page{
			SourceFile:     page,
			TargetFile:     target,
			Status:         storage.StatusPending,
			Customizations: []storage.Selection{},
		})
	}
	if len(project.Pages) == 0 {
		return fmt.Errorf("none of the %d page(s) match a default template", len(pages))
	}
	for f := range features {
		project.Features = append(project.Features, f)
	}
	sort.Strings(project.Features)

	created, err := env.store.CreateProject(ctx, project)
	if err != nil {
		return err
	}
	for _, page := range created.Pages {
		if err := env.store.SavePageAnalysis(ctx, created.ID, page.SourceFile, analyses[page.SourceFile]); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created project %s (%s)\n", created.Name, created.ID)
	for _, page := range created.Pages {
		fmt.Fprintf(out, "  %s -> %s: %d customization(s)\n",
			page.SourceFile, page.TargetFile, analyses[page.SourceFile].Customizations.Count())
	}
	return nil
}

// discoverPages lists the Aeon pages under root as slash-separated
// relative paths.
func discoverPages(ctx context.Context, root string) ([]string, error) {
	reg := registry.NewDocumentRegistry()
	docs, err := scanner.NewWorkspaceScanner(root, reg, newLogger()).Scan(ctx)
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		pages = append(pages, filepath.ToSlash(doc.RelativePath))
	}
	sort.Strings(pages)
	return pages, nil
}

type projectSummary struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Pages        int       `json:"pages" yaml:"pages"`
	Completed    int       `json:"completed" yaml:"completed"`
	LastModified time.Time `json:"lastModified" yaml:"lastModified"`
}

func runProjectList(cmd *cobra.Command, _ []string) error {
	env, err := newMigrationEnv()
	if err != nil {
		return err
	}
	projects, err := env.store.ListProjects(commandContext(cmd))
	if err != nil {
		return err
	}

	summaries := make([]projectSummary, 0, len(projects))
	for _, p := range projects {
		s := projectSummary{ID: p.ID, Name: p.Name, Pages: len(p.Pages), LastModified: p.LastModified}
		for _, page := range p.Pages {
			if page.Status == storage.StatusCompleted {
				s.Completed++
			}
		}
		summaries = append(summaries, s)
	}

	if migrateFormat != formatText {
		return writeStructured(cmd.OutOrStdout(), migrateFormat, summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No migration projects")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPAGES\tMODIFIED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n", s.ID, s.Name, s.Completed, s.Pages, s.LastModified.Format(time.DateTime))
	}
	return w.Flush()
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	env, err := newMigrationEnv()
	if err != nil {
		return err
	}
	p, err := env.findProject(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	if migrateFormat != formatText {
		return writeStructured(cmd.OutOrStdout(), migrateFormat, p)
	}
	printProject(cmd.OutOrStdout(), p)
	return nil
}

func printProject(out io.Writer, p *storage.Project) {
	fmt.Fprintf(out, "%s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(out, "Versions: %s -> %s\n", p.SourceVersion, p.TargetVersion)
	if len(p.Features) > 0 {
		fmt.Fprintf(out, "Features: %s\n", strings.Join(p.Features, ", "))
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tTEMPLATE\tSTATUS\tSELECTIONS")
	for _, page := range p.Pages {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", page.SourceFile, page.TargetFile, page.Status, len(page.Customizations))
	}
	w.Flush()
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	env, err := newMigrationEnv()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	p, err := env.findProject(ctx, args[0])
	if err != nil {
		return err
	}
	if err := env.store.DeleteProject(ctx, p.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", p.Name)
	return nil
}

func runProjectExport(cmd *cobra.Command, args []string) error {
	env, err := newMigrationEnv()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	p, err := env.findProject(ctx, args[0])
	if err != nil {
		return err
	}
	data, err := env.store.ExportProject(ctx, p.ID)
	if err != nil {
		return err
	}
	return writeOutput(cmd, migrateOutput, data)
}

func runProjectImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	env, err := newMigrationEnv()
	if err != nil {
		return err
	}
	p, err := env.store.ImportProject(commandContext(cmd), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported project %s (%s)\n", p.Name, p.ID)
	return nil
}

func runSelect(cmd *cobra.Command, args []string) error {
	env, err := newMigrationEnv()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	ref, pageFile, id := args[0], args[1], args[2]

	kind := storage.SelectionType(strings.ToLower(args[3]))
	switch kind {
	case storage.SelectionKeep, storage.SelectionDiscard:
	case storage.SelectionModify:
		if id == "all" {
			return aeonerrors.NewValidationError(aeonerrors.ErrCodeInvalidSelection, "modify needs a single customization id")
		}
	default:
		return aeonerrors.NewValidationError(aeonerrors.ErrCodeInvalidSelection,
			fmt.Sprintf("unknown selection %q, must be keep, discard or modify", args[3]))
	}

	p, err := env.findProject(ctx, ref)
	if err != nil {
		return err
	}
	page, ok := p.Page(pageFile)
	if !ok {
		return aeonerrors.NewNotFoundError(aeonerrors.ErrCodeFileNotFound,
			fmt.Sprintf("page %s is not part of project %s", pageFile, p.Name))
	}
	analysis, err := env.store.LoadPageAnalysis(ctx, p.ID, pageFile)
	if err != nil {
		return err
	}

	ids := analysis.IDs()
	if id != "all" {
		if !contains(ids, id) {
			return aeonerrors.NewValidationError(aeonerrors.ErrCodeInvalidSelection,
				fmt.Sprintf("no customization %q on %s", id, pageFile)).WithContext("id", id)
		}
		ids = []string{id}
	}

	selections := append([]storage.Selection(nil), page.Customizations...)
	for _, cid := range ids {
		sel := storage.Selection{CustomizationID: cid, Type: kind}
		if kind == storage.SelectionModify {
			sel.ModifiedValue = migrateValue
		}
		selections = upsertSelection(selections, sel)
	}

	if err := env.store.SavePageSelections(ctx, p.ID, pageFile, selections); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d customization(s) marked %s\n", pageFile, len(ids), kind)
	return nil
}

// upsertSelection replaces the selection with sel's id, or appends sel.
func upsertSelection(selections []storage.Selection, sel storage.Selection) []storage.Selection {
	for i := range selections {
		if selections[i].CustomizationID == sel.CustomizationID {
			selections[i] = sel
			return selections
		}
	}
	return append(selections, sel)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func runApply(cmd *cobra.Command, args []string) error {
	env, err := newMigrationEnv()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	p, err := env.findProject(ctx, args[0])
	if err != nil {
		return err
	}

	pages := p.Pages
	if len(args) > 1 {
		pages = nil
		for _, name := range args[1:] {
			page, ok := p.Page(name)
			if !ok {
				return aeonerrors.NewNotFoundError(aeonerrors.ErrCodeFileNotFound,
					fmt.Sprintf("page %s is not part of project %s", name, p.Name))
			}
			pages = append(pages, *page)
		}
	}

	engine := migration.NewEngine(env.store, env.loader, newLogger())
	out := cmd.OutOrStdout()
	var failed int
	for _, page := range pages {
		migrated, err := engine.MigratePage(ctx, p, page)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", page.SourceFile, err)
			if statusErr := env.store.SetPageStatus(ctx, p.ID, page.SourceFile, storage.StatusError); statusErr != nil {
				return statusErr
			}
			continue
		}

		target := filepath.Join(migrateOut, filepath.FromSlash(page.TargetFile))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(migrated), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}

		status := storage.StatusCompleted
		validation := migration.ValidateMigrated(migrated)
		if !validation.Valid {
			status = storage.StatusError
			failed++
		}
		if err := env.store.SetPageStatus(ctx, p.ID, page.SourceFile, status); err != nil {
			return err
		}

		fmt.Fprintf(out, "%s -> %s\n", page.SourceFile, target)
		for _, msg := range validation.Errors {
			fmt.Fprintf(out, "  warning: %s\n", msg)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d page(s) need attention", failed, len(pages))
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	env, err := newMigrationEnv()
	if err != nil {
		return err
	}
	p, err := env.findProject(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	return writeOutput(cmd, migrateOutput, []byte(migration.Report(p, time.Now())+"\n"))
}

func runBrand(cmd *cobra.Command, args []string) error {
	env, err := newMigrationEnv()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	p, err := env.findProject(ctx, args[0])
	if err != nil {
		return err
	}
	if err := env.store.SaveBrandingGuide(ctx, p.ID, migrateBranding); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Branding saved for %s\n", p.Name)
	return nil
}

// writeOutput writes data to path, or to the command's stdout when path
// is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
