// Package config loads aeonkit settings using Viper from .aeonkit.yml,
// AEONKIT_ prefixed environment variables and command-line flags.
//
// Mock data profiles are decoded from the config file with yaml.v3 rather
// than through Viper, since Viper folds map keys to lower case and profile
// field names are case-sensitive.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/validation"
)

// EnvPrefix is the prefix of environment overrides, e.g. AEONKIT_SERVER_PORT.
const EnvPrefix = "AEONKIT"

type Config struct {
	Preview   PreviewConfig   `mapstructure:"preview" yaml:"preview"`
	Validate  ValidateConfig  `mapstructure:"validate" yaml:"validate"`
	MockData  MockDataConfig  `mapstructure:"mock_data" yaml:"mock_data"`
	Themes    []ThemeConfig   `mapstructure:"themes" yaml:"themes" validate:"dive"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
}

type PreviewConfig struct {
	IncludeSearchPaths []string `mapstructure:"include_search_paths" yaml:"include_search_paths" validate:"min=1,dive,required"`
	AutoRefreshOnSave  bool     `mapstructure:"auto_refresh_on_save" yaml:"auto_refresh_on_save"`
	Profile            string   `mapstructure:"profile" yaml:"profile" validate:"required"`
	Theme              string   `mapstructure:"theme" yaml:"theme"`
	Minify             bool     `mapstructure:"minify" yaml:"minify"`
}

type ValidateConfig struct {
	AutoValidateOnSave bool `mapstructure:"auto_validate_on_save" yaml:"auto_validate_on_save"`
}

type MockDataConfig struct {
	Profiles []mockdata.Profile `mapstructure:"-" yaml:"profiles"`
}

type ThemeConfig struct {
	Name        string `mapstructure:"name" yaml:"name" validate:"required"`
	CSS         string `mapstructure:"css" yaml:"css"`
	Description string `mapstructure:"description" yaml:"description"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host" validate:"required"`
	Port           int      `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type StorageConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" validate:"required"`
}

type TemplatesConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir" validate:"required"`
	Version string `mapstructure:"version" yaml:"version"`
}

var validate = validator.New()

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("preview.include_search_paths", []string{".", "includes"})
	v.SetDefault("preview.auto_refresh_on_save", true)
	v.SetDefault("preview.profile", mockdata.DefaultProfile)
	v.SetDefault("preview.minify", false)
	v.SetDefault("validate.auto_validate_on_save", true)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8585)
	v.SetDefault("storage.dir", ".aeonkit/migrations")
	v.SetDefault("templates.dir", "templates/default")
	v.SetDefault("templates.version", "6.0.20")
}

// Load builds the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds the configuration from v, filling defaults for unset
// keys and validating the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Viper does not split comma-separated env values into slices.
	if paths := v.GetStringSlice("preview.include_search_paths"); len(paths) == 1 && strings.Contains(paths[0], ",") {
		config.Preview.IncludeSearchPaths = splitList(paths[0])
	}
	if origins := v.GetStringSlice("server.allowed_origins"); len(origins) == 1 && strings.Contains(origins[0], ",") {
		config.Server.AllowedOrigins = splitList(origins[0])
	}

	if file := v.ConfigFileUsed(); file != "" {
		profiles, err := loadProfiles(file)
		if err != nil {
			return nil, fmt.Errorf("mock data profiles: %w", err)
		}
		config.MockData.Profiles = profiles
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadProfiles decodes mock_data.profiles from a YAML config file. A
// missing file yields no profiles.
func loadProfiles(path string) ([]mockdata.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml", "":
	default:
		return nil, nil
	}

	var file struct {
		MockData MockDataConfig `yaml:"mock_data"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return file.MockData.Profiles, nil
}

// Theme returns the named theme.
func (c *Config) Theme(name string) (ThemeConfig, bool) {
	for _, t := range c.Themes {
		if t.Name == name {
			return t, true
		}
	}
	return ThemeConfig{}, false
}

// Addr is the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return err
	}

	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	for _, path := range config.Preview.IncludeSearchPaths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid include search path '%s': %w", path, err)
		}
	}

	seen := make(map[string]bool)
	for _, p := range config.MockData.Profiles {
		if p.Name == "" {
			return fmt.Errorf("mock data profile without a name")
		}
		if mockdata.IsBuiltin(p.Name) {
			return fmt.Errorf("mock data profile '%s' shadows a built-in profile", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate mock data profile '%s'", p.Name)
		}
		seen[p.Name] = true
	}

	themes := make(map[string]bool)
	for _, t := range config.Themes {
		if themes[t.Name] {
			return fmt.Errorf("duplicate theme '%s'", t.Name)
		}
		themes[t.Name] = true
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	if char, ok := validation.ContainsDangerousHostChars(config.Host); ok {
		return fmt.Errorf("host contains dangerous character: %s", char)
	}
	for _, origin := range config.AllowedOrigins {
		if _, err := validation.ParseOrigin(origin); err != nil {
			return fmt.Errorf("allowed origin %q: %w", origin, err)
		}
	}
	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	return validation.ValidatePath(path)
}
