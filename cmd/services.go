package cmd

import (
	"fmt"

	"github.com/conneroisu/aeonkit/internal/config"
	"github.com/conneroisu/aeonkit/internal/logging"
	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/renderer"
	"github.com/conneroisu/aeonkit/internal/storage"
	"github.com/conneroisu/aeonkit/internal/templates"
)

// newStore opens the migration and custom profile store.
func newStore(cfg *config.Config, logger logging.Logger) *storage.Store {
	return storage.New(cfg.Storage.Dir, logger)
}

// newProfileManager loads built-in, stored and configured profiles and
// selects profile, or the configured one when profile is empty.
func newProfileManager(cfg *config.Config, store *storage.Store, profile string) (*mockdata.Manager, error) {
	manager, err := mockdata.NewManager(cfg.MockData.Profiles, mockdata.WithStore(store))
	if err != nil {
		return nil, fmt.Errorf("loading mock data profiles: %w", err)
	}
	if profile == "" {
		profile = cfg.Preview.Profile
	}
	if err := manager.SetProfile(profile); err != nil {
		return nil, err
	}
	return manager, nil
}

func newEngine(cfg *config.Config, logger logging.Logger) *renderer.Engine {
	return renderer.New(renderer.Options{
		SearchPaths: cfg.Preview.IncludeSearchPaths,
		Logger:      logger,
	})
}

func newTemplateLoader(cfg *config.Config, dir string, logger logging.Logger) *templates.Loader {
	if dir == "" {
		dir = cfg.Templates.Dir
	}
	return templates.NewLoader(dir, cfg.Templates.Version, logger)
}
