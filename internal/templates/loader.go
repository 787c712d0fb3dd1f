// Package templates loads the default Aeon web pages a migration targets:
// page templates, shared includes, static assets and feature packages.
package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/scanner"
)

// PageType classifies a default template.
type PageType string

const (
	PageForm   PageType = "form"
	PageList   PageType = "list"
	PageReport PageType = "report"
	PageAdmin  PageType = "admin"
)

const (
	// ManifestFile optionally overrides manifest metadata.
	ManifestFile = "manifest.yaml"

	includesDir = "includes"
	featuresDir = "features"
	featureMain = "Index.cshtml"
)

var assetDirs = []string{"css", "js", "images"}

// PageInfo describes one default template.
type PageInfo struct {
	FileName    string   `json:"fileName" yaml:"fileName"`
	Type        PageType `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	AeonForm    string   `json:"aeonForm,omitempty" yaml:"aeonForm,omitempty"`
}

// Manifest lists what a template set contains.
type Manifest struct {
	Version      string     `json:"version"`
	Pages        []PageInfo `json:"pages"`
	Includes     []string   `json:"includes"`
	Assets       []string   `json:"assets"`
	ReleaseDate  time.Time  `json:"releaseDate"`
	ReleaseNotes string     `json:"releaseNotes,omitempty"`
}

// manifestOverrides is the on-disk shape of ManifestFile.
type manifestOverrides struct {
	Version      string            `yaml:"version"`
	ReleaseDate  string            `yaml:"releaseDate"`
	ReleaseNotes string            `yaml:"releaseNotes"`
	Descriptions map[string]string `yaml:"descriptions"`
}

var descriptions = map[string]string{
	"DefaultRequest.html":         "Default request form for general materials",
	"ViewRequests.html":           "View and manage user requests",
	"ViewUserReviewRequests.html": "Review requests awaiting approval",
	"NewUserRegistration.html":    "New user registration form",
	"ChangeUserInformation.html":  "Update user profile information",
}

// Loader reads a template directory.
type Loader struct {
	fsys    fs.FS
	dir     string
	version string
	logger  logging.Logger
}

// NewLoader reads templates from dir. version is reported when the
// directory carries no manifest override.
func NewLoader(dir, version string, logger logging.Logger) *Loader {
	return NewLoaderFS(os.DirFS(dir), dir, version, logger)
}

// NewLoaderFS reads templates from fsys. name is used in messages only.
func NewLoaderFS(fsys fs.FS, name, version string, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Loader{
		fsys:    fsys,
		dir:     name,
		version: version,
		logger:  logger.WithComponent("templates"),
	}
}

// Version returns the configured template version.
func (l *Loader) Version() string {
	if l.version == "" {
		return "Unknown"
	}
	return l.version
}

// LoadTemplate returns the content of a top-level template. Missing files
// match errors.Is(err, ErrTemplateNotFound).
func (l *Loader) LoadTemplate(name string) (string, error) {
	return l.read(name, "template")
}

// LoadInclude returns the content of a file under includes/.
func (l *Loader) LoadInclude(name string) (string, error) {
	return l.read(path.Join(includesDir, name), "include")
}

// LoadAsset returns the bytes of an asset such as css/site.css.
func (l *Loader) LoadAsset(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("asset %q: %w", name, aeonerrors.ErrTemplateNotFound)
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, l.wrapReadError("asset", name, err)
	}
	return data, nil
}

func (l *Loader) read(name, kind string) (string, error) {
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%s %q: %w", kind, name, aeonerrors.ErrTemplateNotFound)
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return "", l.wrapReadError(kind, name, err)
	}
	return string(data), nil
}

func (l *Loader) wrapReadError(kind, name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s %s in %s: %w", kind, name, l.dir, aeonerrors.ErrTemplateNotFound)
	}
	return aeonerrors.NewIOError(aeonerrors.ErrCodeFileNotFound,
		fmt.Sprintf("failed to load %s %s", kind, name), err)
}

// Manifest scans the template directory. Unreadable pages are logged and
// left out; a missing directory is an error.
func (l *Loader) Manifest(ctx context.Context) (*Manifest, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, aeonerrors.NewIOError(aeonerrors.ErrCodeFileNotFound,
			fmt.Sprintf("failed to read template directory %s", l.dir), err)
	}

	overrides, err := l.overrides()
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Version:      l.Version(),
		Pages:        []PageInfo{},
		Includes:     l.Includes(),
		Assets:       l.Assets(),
		ReleaseNotes: fmt.Sprintf("Aeon %s default pages", l.Version()),
	}
	if overrides.Version != "" {
		m.Version = overrides.Version
	}
	if overrides.ReleaseNotes != "" {
		m.ReleaseNotes = overrides.ReleaseNotes
	}
	if overrides.ReleaseDate != "" {
		if date, err := time.Parse("2006-01-02", overrides.ReleaseDate); err == nil {
			m.ReleaseDate = date
		} else {
			l.logger.Warn(ctx, err, "Ignoring malformed release date", "value", overrides.ReleaseDate)
		}
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		content, err := l.LoadTemplate(e.Name())
		if err != nil {
			l.logger.Warn(ctx, err, "Skipping unreadable template", "file", e.Name())
			continue
		}
		description := overrides.Descriptions[e.Name()]
		if description == "" {
			description = Description(e.Name())
		}
		m.Pages = append(m.Pages, PageInfo{
			FileName:    e.Name(),
			Type:        DetectPageType(e.Name(), content),
			Description: description,
			AeonForm:    scanner.ExtractAeonForm(content),
		})
	}

	l.logger.Debug(ctx, "Template manifest built", "dir", l.dir, "pages", len(m.Pages))
	return m, nil
}

func (l *Loader) overrides() (manifestOverrides, error) {
	var o manifestOverrides
	data, err := fs.ReadFile(l.fsys, ManifestFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return o, nil
		}
		return o, aeonerrors.NewIOError(aeonerrors.ErrCodeFileNotFound, "failed to read template manifest", err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, aeonerrors.NewParseError(aeonerrors.ErrCodeParseFailed, "invalid template manifest", err).
			WithLocation(path.Join(l.dir, ManifestFile), 0, 0)
	}
	return o, nil
}

// Includes lists the .html files under includes/.
func (l *Loader) Includes() []string {
	entries, err := fs.ReadDir(l.fsys, includesDir)
	if err != nil {
		return []string{}
	}
	includes := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".html") {
			includes = append(includes, e.Name())
		}
	}
	return includes
}

// Assets lists the files under css/, js/ and images/ as slash paths.
func (l *Loader) Assets() []string {
	assets := []string{}
	for _, dir := range assetDirs {
		entries, err := fs.ReadDir(l.fsys, dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				assets = append(assets, path.Join(dir, e.Name()))
			}
		}
	}
	return assets
}

// FeaturePackages lists the directories under features/.
func (l *Loader) FeaturePackages() []string {
	entries, err := fs.ReadDir(l.fsys, featuresDir)
	if err != nil {
		return []string{}
	}
	features := []string{}
	for _, e := range entries {
		if e.IsDir() {
			features = append(features, e.Name())
		}
	}
	sort.Strings(features)
	return features
}

// LoadFeaturePackage returns the entry page of a feature package.
func (l *Loader) LoadFeaturePackage(name string) (string, error) {
	if strings.Contains(name, "/") {
		return "", fmt.Errorf("feature package %q: %w", name, aeonerrors.ErrTemplateNotFound)
	}
	return l.read(path.Join(featuresDir, name, featureMain), "feature package")
}

// DetectPageType classifies a template by its file name, falling back to
// form when it posts to aeon.dll.
func DetectPageType(fileName, content string) PageType {
	lower := strings.ToLower(fileName)
	switch {
	case strings.Contains(lower, "request") || strings.Contains(content, `form action="aeon.dll"`):
		return PageForm
	case strings.Contains(lower, "view") || strings.Contains(lower, "list"):
		return PageList
	case strings.Contains(lower, "report"):
		return PageReport
	default:
		return PageAdmin
	}
}

// Description returns the known description of a default page.
func Description(fileName string) string {
	if d, ok := descriptions[fileName]; ok {
		return d
	}
	return "Aeon page: " + fileName
}
