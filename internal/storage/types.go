package storage

import (
	"strings"
	"time"
)

// PageStatus tracks a page through the migration workflow.
type PageStatus string

const (
	StatusPending    PageStatus = "pending"
	StatusInProgress PageStatus = "in-progress"
	StatusCompleted  PageStatus = "completed"
	StatusError      PageStatus = "error"
)

// SelectionType is the user's decision for one customization.
type SelectionType string

const (
	SelectionKeep    SelectionType = "keep"
	SelectionDiscard SelectionType = "discard"
	SelectionModify  SelectionType = "modify"
)

// Selection records what to do with one detected customization.
type Selection struct {
	CustomizationID string        `json:"customizationId"`
	Type            SelectionType `json:"type"`
	ModifiedValue   string        `json:"modifiedValue,omitempty"`
}

// Kind returns the customization category encoded in the id prefix:
// content, structure or javascript.
func (s Selection) Kind() string {
	kind, _, _ := strings.Cut(s.CustomizationID, "-")
	return kind
}

// Page is one page of a migration project.
type Page struct {
	SourceFile     string      `json:"sourceFile"`
	TargetFile     string      `json:"targetFile"`
	Status         PageStatus  `json:"status"`
	Customizations []Selection `json:"customizations"`
	LastModified   *time.Time  `json:"lastModified,omitempty"`
}

// BrandingGuide carries the site branding recorded for a project.
type BrandingGuide struct {
	Colors     BrandingColors     `json:"colors"`
	Typography BrandingTypography `json:"typography"`
}

type BrandingColors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent,omitempty"`
	Text       string `json:"text"`
	Background string `json:"background"`
}

type BrandingTypography struct {
	FontFamily   string `json:"fontFamily"`
	BaseFontSize string `json:"baseFontSize"`
	LineHeight   string `json:"lineHeight"`
}

// Project is a persisted migration project.
type Project struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	SourceVersion string         `json:"sourceVersion"`
	TargetVersion string         `json:"targetVersion"`
	Features      []string       `json:"features"`
	Pages         []Page         `json:"pages"`
	BrandingGuide *BrandingGuide `json:"brandingGuide,omitempty"`
	WorkspaceRoot string         `json:"workspaceRoot,omitempty"`
	Created       time.Time      `json:"created"`
	LastModified  time.Time      `json:"lastModified"`
}

// Page returns the page whose source file is sourceFile.
func (p *Project) Page(sourceFile string) (*Page, bool) {
	for i := range p.Pages {
		if p.Pages[i].SourceFile == sourceFile {
			return &p.Pages[i], true
		}
	}
	return nil, false
}
