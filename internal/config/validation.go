package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conneroisu/aeonkit/internal/mockdata"
	"github.com/conneroisu/aeonkit/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("❌ Validation Errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("⚠️  Validation Warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails checks config and explains each problem.
// Struct tag failures and unsafe values are errors; settings that will
// silently fall back at runtime are warnings.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateStructTags(config, result)
	validateServerConfigDetails(&config.Server, result)
	validatePreviewConfigDetails(config, result)
	validateDirectoriesDetails(config, result)

	result.Valid = !result.HasErrors()
	return result
}

func validateStructTags(config *Config, result *ValidationResult) {
	err := validate.Struct(config)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		result.Errors = append(result.Errors, ValidationError{Field: "config", Message: err.Error()})
		return
	}
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config.")),
			Value:   fe.Value(),
			Message: fmt.Sprintf("failed '%s' check", fe.Tag()),
		})
	}
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024 for development",
				"The default preview port is 8585",
			},
		})
	}

	if config.Host != "" {
		if err := validation.ValidateHost(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local development",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		}
	}

	for _, origin := range config.AllowedOrigins {
		if _, err := validation.ParseOrigin(origin); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "server.allowed_origins",
				Value:       origin,
				Message:     "origin must start with http:// or https://",
				Suggestions: []string{"Example: http://localhost:3000"},
			})
		}
	}
}

func validatePreviewConfigDetails(config *Config, result *ValidationResult) {
	for _, path := range config.Preview.IncludeSearchPaths {
		if err := validatePath(path); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "preview.include_search_paths",
				Value:   path,
				Message: err.Error(),
				Suggestions: []string{
					"Use paths relative to the workspace, such as 'includes'",
					"Use '.' for the directory of the document being previewed",
				},
			})
		}
	}

	profile := config.Preview.Profile
	if profile != "" && !mockdata.IsBuiltin(profile) && !hasProfile(config.MockData.Profiles, profile) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "preview.profile",
			Value:   profile,
			Message: fmt.Sprintf("profile '%s' is not built in and not defined under mock_data.profiles", profile),
			Suggestions: []string{
				"Built-in profiles: default, newUser, returningUser, admin, testData",
				"Profiles saved from the preview are loaded from the storage directory",
			},
		})
	}

	if theme := config.Preview.Theme; theme != "" {
		if _, ok := config.Theme(theme); !ok {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:       "preview.theme",
				Value:       theme,
				Message:     fmt.Sprintf("theme '%s' is not defined under themes", theme),
				Suggestions: []string{"Add a themes entry with this name or clear preview.theme"},
			})
		}
	}

	seen := make(map[string]bool)
	for _, p := range config.MockData.Profiles {
		switch {
		case mockdata.IsBuiltin(p.Name):
			result.Errors = append(result.Errors, ValidationError{
				Field:       "mock_data.profiles",
				Value:       p.Name,
				Message:     "profile name shadows a built-in profile",
				Suggestions: []string{"Rename the profile"},
			})
		case seen[p.Name]:
			result.Errors = append(result.Errors, ValidationError{
				Field:   "mock_data.profiles",
				Value:   p.Name,
				Message: "duplicate profile name",
			})
		}
		seen[p.Name] = true
	}
}

func validateDirectoriesDetails(config *Config, result *ValidationResult) {
	if config.Templates.Dir != "" && !pathExists(config.Templates.Dir) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "templates.dir",
			Value:   config.Templates.Dir,
			Message: "template directory does not exist",
			Suggestions: []string{
				"Point templates.dir at the default web pages of the target Aeon version",
				"Migration commands need this directory",
			},
		})
	}
}

func hasProfile(profiles []mockdata.Profile, name string) bool {
	for _, p := range profiles {
		if p.Name == name {
			return true
		}
	}
	return false
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
