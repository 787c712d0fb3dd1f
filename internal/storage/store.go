// Package storage persists migration projects, their page analyses and
// custom mock data profiles as JSON documents under one directory.
//
// Layout:
//
//	<dir>/<project-id>.json
//	<dir>/<project-id>/pages/<page-slug>-analysis.json
//	<dir>/profiles.json
//
// Every save replaces the whole document through a temporary file and a
// rename, so a failed write leaves the previous version in place.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/conneroisu/aeonkit/internal/analyzer"
	aeonerrors "github.com/conneroisu/aeonkit/internal/errors"
	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/mockdata"
)

const (
	// ProfilesFile holds the custom mock data profiles.
	ProfilesFile = "profiles.json"

	// DefaultRecentLimit is the number of projects RecentProjects returns
	// when given a non-positive limit.
	DefaultRecentLimit = 5

	importSuffix = " (Imported)"
)

// Store reads and writes migration data under a directory.
type Store struct {
	dir    string
	logger logging.Logger
	now    func() time.Time
	newID  func() string

	// mu serializes read-modify-write cycles on project records.
	mu sync.Mutex
}

// New creates a store rooted at dir. The directory is created on first
// write.
func New(dir string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{
		dir:    dir,
		logger: logger.WithComponent("storage"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// CreateProject assigns a fresh id and timestamps to p and saves it.
func (s *Store) CreateProject(ctx context.Context, p Project) (*Project, error) {
	p.ID = s.newID()
	p.Created = s.now()
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Pages == nil {
		p.Pages = []Page{}
	}
	if err := s.SaveProject(ctx, &p); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Migration project created", "id", p.ID, "name", p.Name)
	return &p, nil
}

// SaveProject stamps LastModified and writes the project record.
func (s *Store) SaveProject(ctx context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, p)
}

func (s *Store) saveLocked(ctx context.Context, p *Project) error {
	if p.ID == "" {
		return aeonerrors.NewValidationError(aeonerrors.ErrCodePersistFailed, "project id is required")
	}
	p.LastModified = s.now()
	if err := writeJSON(s.projectPath(p.ID), p); err != nil {
		s.logger.Error(ctx, err, "Failed to save migration project", "id", p.ID)
		return aeonerrors.NewIOError(aeonerrors.ErrCodePersistFailed,
			fmt.Sprintf("failed to save migration project %s", p.ID), err)
	}
	return nil
}

// LoadProject reads a project. Unknown or malformed ids match
// errors.Is(err, ErrProjectNotFound).
func (s *Store) LoadProject(_ context.Context, id string) (*Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("project %q: %w", id, aeonerrors.ErrProjectNotFound)
	}

	var p Project
	if err := readJSON(s.projectPath(id), &p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project %s: %w", id, aeonerrors.ErrProjectNotFound)
		}
		return nil, aeonerrors.NewIOError(aeonerrors.ErrCodeParseFailed,
			fmt.Sprintf("failed to load migration project %s", id), err).
			WithLocation(s.projectPath(id), 0, 0)
	}
	return &p, nil
}

// ListProjects returns every readable project, most recently modified
// first. Unreadable records are logged and skipped.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*Project{}, nil
		}
		return nil, aeonerrors.NewIOError(aeonerrors.ErrCodePersistFailed, "failed to list migration projects", err)
	}

	projects := []*Project{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == ProfilesFile || !strings.HasSuffix(name, ".json") {
			continue
		}
		p, err := s.LoadProject(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.logger.Warn(ctx, err, "Skipping unreadable project", "file", name)
			continue
		}
		projects = append(projects, p)
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].LastModified.After(projects[j].LastModified)
	})
	return projects, nil
}

// RecentProjects returns the first limit projects of ListProjects.
func (s *Store) RecentProjects(ctx context.Context, limit int) ([]*Project, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if len(projects) > limit {
		projects = projects[:limit]
	}
	return projects, nil
}

// ProjectNameExists reports whether a project with name exists, ignoring
// case.
func (s *Store) ProjectNameExists(ctx context.Context, name string) (bool, error) {
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// DeleteProject removes a project record and its page analyses.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("project %q: %w", id, aeonerrors.ErrProjectNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.projectPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("project %s: %w", id, aeonerrors.ErrProjectNotFound)
		}
		return aeonerrors.NewIOError(aeonerrors.ErrCodePersistFailed,
			fmt.Sprintf("failed to delete project %s", id), err)
	}
	if err := os.RemoveAll(filepath.Join(s.dir, id)); err != nil {
		s.logger.Warn(ctx, err, "Could not delete project pages", "id", id)
	}
	s.logger.Info(ctx, "Migration project deleted", "id", id)
	return nil
}

// PageFileName returns the analysis file name for a page.
func PageFileName(pageFile string) string {
	name := slug.Make(pageFile)
	if name == "" {
		name = "page"
	}
	return name + "-analysis.json"
}

// SavePageAnalysis writes the analysis of pageFile for a project.
func (s *Store) SavePageAnalysis(ctx context.Context, projectID, pageFile string, a *analyzer.PageAnalysis) error {
	if _, err := uuid.Parse(projectID); err != nil {
		return fmt.Errorf("project %q: %w", projectID, aeonerrors.ErrProjectNotFound)
	}
	if err := writeJSON(s.analysisPath(projectID, pageFile), a); err != nil {
		s.logger.Error(ctx, err, "Failed to save page analysis", "project", projectID, "page", pageFile)
		return aeonerrors.NewIOError(aeonerrors.ErrCodePersistFailed,
			fmt.Sprintf("failed to save analysis of %s", pageFile), err)
	}
	return nil
}

// LoadPageAnalysis reads the analysis of pageFile. A missing analysis
// matches errors.Is(err, ErrAnalysisNotFound).
func (s *Store) LoadPageAnalysis(_ context.Context, projectID, pageFile string) (*analyzer.PageAnalysis, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return nil, fmt.Errorf("project %q: %w", projectID, aeonerrors.ErrProjectNotFound)
	}

	var a analyzer.PageAnalysis
	if err := readJSON(s.analysisPath(projectID, pageFile), &a); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", pageFile, aeonerrors.ErrAnalysisNotFound)
		}
		return nil, aeonerrors.NewIOError(aeonerrors.ErrCodeParseFailed,
			fmt.Sprintf("failed to load analysis of %s", pageFile), err).
			WithLocation(s.analysisPath(projectID, pageFile), 0, 0)
	}
	return &a, nil
}

// SavePageSelections records the selections for pageFile and marks the
// page in progress, adding the page when the project does not have it.
// An existing page keeps its target template.
func (s *Store) SavePageSelections(ctx context.Context, projectID, pageFile string, selections []Selection) error {
	return s.update(ctx, projectID, func(p *Project) {
		now := s.now()
		if selections == nil {
			selections = []Selection{}
		}
		page := Page{
			SourceFile:     pageFile,
			TargetFile:     pageFile,
			Status:         StatusInProgress,
			Customizations: selections,
			LastModified:   &now,
		}
		if existing, ok := p.Page(pageFile); ok {
			page.TargetFile = existing.TargetFile
			*existing = page
			return
		}
		p.Pages = append(p.Pages, page)
	})
}

// SetPageStatus updates the status of an existing page.
func (s *Store) SetPageStatus(ctx context.Context, projectID, pageFile string, status PageStatus) error {
	var found bool
	err := s.update(ctx, projectID, func(p *Project) {
		if page, ok := p.Page(pageFile); ok {
			now := s.now()
			page.Status = status
			page.LastModified = &now
			found = true
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return aeonerrors.NewNotFoundError(aeonerrors.ErrCodeFileNotFound,
			fmt.Sprintf("page %s is not part of project %s", pageFile, projectID))
	}
	return nil
}

// SaveBrandingGuide sets the project's branding guide.
func (s *Store) SaveBrandingGuide(ctx context.Context, projectID string, guide BrandingGuide) error {
	return s.update(ctx, projectID, func(p *Project) {
		p.BrandingGuide = &guide
	})
}

func (s *Store) update(ctx context.Context, projectID string, mutate func(*Project)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.LoadProject(ctx, projectID)
	if err != nil {
		return err
	}
	mutate(p)
	return s.saveLocked(ctx, p)
}

// Export is the portable form of a project with its page analyses keyed
// by source file.
type Export struct {
	Project *Project                          `json:"project"`
	Pages   map[string]*analyzer.PageAnalysis `json:"pages"`
}

// ExportProject renders a project and every stored analysis as indented
// JSON.
func (s *Store) ExportProject(ctx context.Context, projectID string) ([]byte, error) {
	p, err := s.LoadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	export := Export{Project: p, Pages: make(map[string]*analyzer.PageAnalysis)}
	for _, page := range p.Pages {
		a, err := s.LoadPageAnalysis(ctx, projectID, page.SourceFile)
		if err != nil {
			if errors.Is(err, aeonerrors.ErrAnalysisNotFound) {
				continue
			}
			return nil, err
		}
		export.Pages[page.SourceFile] = a
	}

	out, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding project %s: %w", projectID, err)
	}
	return out, nil
}

// ImportProject stores an exported project under a fresh id with
// " (Imported)" appended to its name.
func (s *Store) ImportProject(ctx context.Context, data []byte) (*Project, error) {
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, aeonerrors.NewParseError(aeonerrors.ErrCodeParseFailed, "failed to import project", err)
	}
	if export.Project == nil {
		return nil, aeonerrors.NewValidationError(aeonerrors.ErrCodeParseFailed,
			"failed to import project: missing project record")
	}

	p := export.Project
	p.ID = s.newID()
	p.Name += importSuffix
	p.Created = s.now()
	if p.Pages == nil {
		p.Pages = []Page{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if err := s.SaveProject(ctx, p); err != nil {
		return nil, err
	}

	pages := make([]string, 0, len(export.Pages))
	for page := range export.Pages {
		pages = append(pages, page)
	}
	sort.Strings(pages)
	for _, page := range pages {
		if err := s.SavePageAnalysis(ctx, p.ID, page, export.Pages[page]); err != nil {
			return nil, err
		}
	}

	s.logger.Info(ctx, "Migration project imported", "id", p.ID, "name", p.Name, "pages", len(pages))
	return p, nil
}

// LoadProfiles implements mockdata.ProfileStore. A missing file yields no
// profiles.
func (s *Store) LoadProfiles() ([]mockdata.Profile, error) {
	var profiles []mockdata.Profile
	if err := readJSON(filepath.Join(s.dir, ProfilesFile), &profiles); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, aeonerrors.NewIOError(aeonerrors.ErrCodeParseFailed, "failed to load custom profiles", err)
	}
	return profiles, nil
}

// SaveProfiles implements mockdata.ProfileStore.
func (s *Store) SaveProfiles(profiles []mockdata.Profile) error {
	if profiles == nil {
		profiles = []mockdata.Profile{}
	}
	if err := writeJSON(filepath.Join(s.dir, ProfilesFile), profiles); err != nil {
		return aeonerrors.NewIOError(aeonerrors.ErrCodePersistFailed, "failed to save custom profiles", err)
	}
	return nil
}

func (s *Store) projectPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) analysisPath(projectID, pageFile string) string {
	return filepath.Join(s.dir, projectID, "pages", PageFileName(pageFile))
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
