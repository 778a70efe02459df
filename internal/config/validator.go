package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Fields returns the field names that failed, in order.
func (e *ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		fields = append(fields, err.Field)
	}
	return fields
}

// Validate validates the whole configuration. Call ApplyDefaults first.
//
// Returns nil if valid, or a *ValidationErrors containing every problem found.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	validateHost(c.Host, errs)

	if c.Users < 1 {
		errs.Add("users", "must be at least 1")
	}
	if c.SpawnRate <= 0 {
		errs.Add("spawn_rate", "must be > 0")
	}
	if c.RunTime < 0 {
		errs.Add("run_time", "must not be negative")
	}

	validateUser(&c.User, errs)
	validateMaster(&c.Master, errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateHost(host string, errs *ValidationErrors) {
	if host == "" {
		errs.Add("host", "host is required")
		return
	}

	u, err := url.Parse(host)
	if err != nil {
		errs.Add("host", fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add("host", "scheme must be http or https")
	}
	if u.Host == "" {
		errs.Add("host", "must be an absolute URL")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		errs.Add("host", "must not carry a query or fragment")
	}
}

func validateUser(u *UserConfig, errs *ValidationErrors) {
	if u.Name == "" {
		errs.Add("user.name", "name is required")
	}

	if !strings.HasPrefix(u.Path, "/") {
		errs.Add("user.path", "path must start with '/'")
	}

	waitMin, waitMax := u.WaitBounds()
	if waitMin < 0 {
		errs.Add("user.wait_min", "must not be negative")
	}
	if waitMax < waitMin {
		errs.Add("user.wait_max", fmt.Sprintf("must be >= wait_min (%s)", waitMin))
	}

	if u.Timeout <= 0 {
		errs.Add("user.timeout", "must be > 0")
	}
	if u.NetworkTimeout <= 0 {
		errs.Add("user.network_timeout", "must be > 0")
	}

	for i, code := range u.ExpectStatus {
		if code < 100 || code > 599 {
			errs.Add(fmt.Sprintf("user.expect_status[%d]", i), fmt.Sprintf("invalid status code %d", code))
		}
	}
}

func validateMaster(m *MasterConfig, errs *ValidationErrors) {
	if m.Host == "" {
		errs.Add("master.host", "host is required")
	}
	if m.Port < 1 || m.Port > 65535 {
		errs.Add("master.port", "must be between 1 and 65535")
	}
}
