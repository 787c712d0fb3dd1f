package scanner

import (
	"context"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/registry"
)

var (
	aeonFormPattern = regexp.MustCompile(`name="AeonForm"\s+value="([^"]+)"`)

	customizationIndicators = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?i)custom\.css`),
		regexp.MustCompile(`(?i)custom\.js`),
		regexp.MustCompile(`<!--\s*[Cc]ustom`),
		regexp.MustCompile(`(?i)class="custom`),
	}

	skipDirs = map[string]bool{
		"node_modules": true,
		".git":         true,
		".aeonkit":     true,
	}
)

// WorkspaceScanner discovers Aeon pages under a root directory and records
// them in a document registry.
type WorkspaceScanner struct {
	root     string
	registry *registry.DocumentRegistry
	logger   logging.Logger
	workers  int
}

// NewWorkspaceScanner creates a scanner rooted at root.
func NewWorkspaceScanner(root string, reg *registry.DocumentRegistry, logger logging.Logger) *WorkspaceScanner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	return &WorkspaceScanner{
		root:     root,
		registry: reg,
		logger:   logger.WithComponent("scanner"),
		workers:  workers,
	}
}

// Registry returns the registry the scanner populates.
func (s *WorkspaceScanner) Registry() *registry.DocumentRegistry {
	return s.registry
}

// Scan walks the root for *.html files, reads them with a bounded set of
// workers and registers every file that looks like an Aeon page. Files that
// are not Aeon pages are ignored. The returned pages are sorted by file name.
func (s *WorkspaceScanner) Scan(ctx context.Context) ([]*registry.DocumentInfo, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if isHTMLFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", s.root, err)
	}

	s.logger.Debug(ctx, "Found HTML files", "count", len(files))

	jobs := make(chan string)
	var (
		mu    sync.Mutex
		pages []*registry.DocumentInfo
		errs  []error
		wg    sync.WaitGroup
	)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				doc, err := s.ScanFile(path)
				mu.Lock()
				switch {
				case err != nil:
					errs = append(errs, err)
				case doc != nil:
					pages = append(pages, doc)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, f := range files {
		select {
		case jobs <- f:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("scan completed with %d errors: %w", len(errs), errs[0])
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].FileName < pages[j].FileName })
	s.logger.Info(ctx, "Workspace scanned", "pages", len(pages))
	return pages, nil
}

// ScanFile reads one file and registers it when it is an Aeon page. It
// returns nil, nil for files that are not Aeon pages.
func (s *WorkspaceScanner) ScanFile(path string) (*registry.DocumentInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	content := string(data)
	if !IsAeonPage(content) {
		if s.registry != nil {
			s.registry.Remove(path)
		}
		return nil, nil
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	fileName := filepath.Base(path)

	doc := &registry.DocumentInfo{
		FileName:          fileName,
		FilePath:          path,
		RelativePath:      filepath.ToSlash(rel),
		AeonForm:          ExtractAeonForm(content),
		DetectedType:      DetectPageType(fileName, content),
		HasCustomizations: DetectCustomizations(content),
		Tags:              TagUsage(content),
		Includes:          IncludedFiles(content),
		Hash:              fmt.Sprintf("%x", crc32.ChecksumIEEE(data)),
		LastMod:           info.ModTime(),
	}

	if s.registry != nil {
		s.registry.Register(doc)
	}
	return doc, nil
}

func isHTMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}

// IsAeonPage reports whether content carries an Aeon marker: the AeonForm
// control field, a post to aeon.dll, or an include directive.
func IsAeonPage(content string) bool {
	return strings.Contains(content, `name="AeonForm"`) ||
		strings.Contains(content, "aeon.dll") ||
		strings.Contains(content, "<#INCLUDE") ||
		strings.Contains(content, "<!--#INCLUDE")
}

// ExtractAeonForm returns the value of the AeonForm hidden field, if any.
func ExtractAeonForm(content string) string {
	if m := aeonFormPattern.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}

// DetectPageType infers the page kind from its name and content.
func DetectPageType(fileName, content string) registry.PageType {
	name := strings.ToLower(fileName)
	switch {
	case strings.Contains(name, "request") || strings.Contains(content, "GenericRequest"):
		return registry.PageTypeRequest
	case strings.Contains(name, "view") || strings.Contains(name, "list"):
		return registry.PageTypeView
	case strings.Contains(name, "logon") || strings.Contains(name, "registration"):
		return registry.PageTypeAuth
	case strings.Contains(name, "admin") || strings.Contains(name, "manage"):
		return registry.PageTypeAdmin
	}
	return registry.PageTypeUnknown
}

// DetectCustomizations is a rough check for site-specific styles, scripts
// or custom markers.
func DetectCustomizations(content string) bool {
	for _, p := range customizationIndicators {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// TagUsage counts tag occurrences by canonical name, sorted by name.
func TagUsage(content string) []registry.TagUsage {
	counts := make(map[string]int)
	for _, occ := range FindTags(content) {
		counts[occ.Name]++
	}
	usage := make([]registry.TagUsage, 0, len(counts))
	for name, n := range counts {
		usage = append(usage, registry.TagUsage{Name: name, Count: n})
	}
	sort.Slice(usage, func(i, j int) bool { return usage[i].Name < usage[j].Name })
	return usage
}

// IncludedFiles lists the filename attribute of every INCLUDE tag in source
// order, without duplicates.
func IncludedFiles(content string) []string {
	seen := make(map[string]bool)
	var files []string
	for _, occ := range FindTags(content) {
		if occ.Name != "INCLUDE" {
			continue
		}
		f := occ.Attributes().Get("filename")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		files = append(files, f)
	}
	return files
}

var templateNamePatterns = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`edit(.+)request`), "edit${1}request"},
	{regexp.MustCompile(`view(.+)`), "view${1}"},
	{regexp.MustCompile(`new(.+)`), "new${1}"},
}

// FindBestTemplateMatch picks the template that most likely replaces the
// old page: an exact file name, then the same base name, then a name
// pattern such as EditXRequest or ViewX. It returns "" when nothing fits.
func FindBestTemplateMatch(oldPageName string, templates []string) string {
	oldName := strings.ToLower(oldPageName)
	for _, t := range templates {
		if strings.ToLower(t) == oldName {
			return t
		}
	}

	oldBase := strings.TrimSuffix(oldName, ".html")
	for _, t := range templates {
		if strings.TrimSuffix(strings.ToLower(t), ".html") == oldBase {
			return t
		}
	}

	for _, p := range templateNamePatterns {
		if !p.pattern.MatchString(oldBase) {
			continue
		}
		candidate := p.pattern.ReplaceAllString(oldBase, p.replacement)
		for _, t := range templates {
			if strings.Contains(strings.ToLower(t), candidate) {
				return t
			}
		}
	}
	return ""
}
