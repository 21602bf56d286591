package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adamancini/pluginupdater/internal/update"
)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the config for required fields and valid values.
// Every problem is reported, not just the first.
func Validate(c *Config) error {
	var errors []string
	add := func(err error) {
		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	add(validateMetadataURL(c.MetadataURL))

	if c.PluginsDir == "" {
		add(ValidationError{Field: "plugins_dir", Message: "plugins_dir is required"})
	}
	if !strings.HasPrefix(c.PackageExt, ".") {
		add(ValidationError{Field: "package_ext", Message: fmt.Sprintf("extension '%s' must start with '.'", c.PackageExt)})
	}
	if c.Workers < 1 {
		add(ValidationError{Field: "workers", Message: "must be at least 1"})
	}

	add(validateSchedule(c.Schedule))

	if d, err := time.ParseDuration(c.HTTP.Timeout); err != nil || d <= 0 {
		add(ValidationError{Field: "http.timeout", Message: fmt.Sprintf("invalid duration '%s'", c.HTTP.Timeout)})
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		add(ValidationError{Field: "log.level", Message: err.Error()})
	}

	for _, err := range validatePlugin(c.Plugin) {
		add(err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateMetadataURL(raw string) error {
	if raw == "" {
		return ValidationError{Field: "metadata_url", Message: "metadata_url is required"}
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{Field: "metadata_url", Message: fmt.Sprintf("invalid http(s) URL '%s'", raw)}
	}
	return nil
}

// validateSchedule accepts a Go duration or a crontab with five or six fields.
func validateSchedule(schedule string) error {
	if d, err := time.ParseDuration(schedule); err == nil {
		if d <= 0 {
			return ValidationError{Field: "schedule", Message: "interval must be positive"}
		}
		return nil
	}
	if n := len(strings.Fields(schedule)); n == 5 || n == 6 {
		return nil
	}
	return ValidationError{
		Field:   "schedule",
		Message: fmt.Sprintf("'%s' is neither a duration nor a crontab", schedule),
	}
}

func validatePlugin(p PluginConfig) []error {
	var errs []error
	required := []struct {
		field, value string
	}{
		{"plugin.name", p.Name},
		{"plugin.version", p.Version},
		{"plugin.data_dir", p.DataDir},
		{"plugin.file", p.File},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, ValidationError{Field: r.field, Message: "is required"})
		}
	}

	if p.Version != "" {
		if _, err := update.ParseVersion(strings.ToLower(p.Version)); err != nil {
			errs = append(errs, ValidationError{Field: "plugin.version", Message: err.Error()})
		}
	}
	if strings.ContainsAny(p.Name, `/\`) {
		errs = append(errs, ValidationError{Field: "plugin.name", Message: "must not contain path separators"})
	}
	if strings.ContainsAny(p.DisplayName, `/\`) {
		errs = append(errs, ValidationError{Field: "plugin.display_name", Message: "must not contain path separators"})
	}
	if update.IsProtectedPath(p.DataDir) && p.DataDir != "" {
		errs = append(errs, ValidationError{Field: "plugin.data_dir", Message: "must not be a filesystem root"})
	}

	return errs
}
