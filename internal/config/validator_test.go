package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Host = "http://localhost:8000"
	return cfg
}

func TestValidate_MinimalValid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"missing host", func(c *Config) { c.Host = "" }, "host"},
		{"relative host", func(c *Config) { c.Host = "localhost:8000" }, "host"},
		{"ftp host", func(c *Config) { c.Host = "ftp://files.example.com" }, "host"},
		{"host with query", func(c *Config) { c.Host = "http://x.example.com?a=b" }, "host"},
		{"zero users", func(c *Config) { c.Users = 0 }, "users"},
		{"zero spawn rate", func(c *Config) { c.SpawnRate = 0 }, "spawn_rate"},
		{"negative run time", func(c *Config) { c.RunTime = Duration(-time.Second) }, "run_time"},
		{"empty task name", func(c *Config) { c.User.Name = "" }, "user.name"},
		{"relative path", func(c *Config) { c.User.Path = "api/admin_paths/" }, "user.path"},
		{"negative wait min", func(c *Config) { c.User.WaitMin = NewDuration(-time.Second) }, "user.wait_min"},
		{"wait max below min", func(c *Config) { c.User.WaitMax = NewDuration(500 * time.Millisecond) }, "user.wait_max"},
		{"zero timeout", func(c *Config) { c.User.Timeout = 0 }, "user.timeout"},
		{"zero network timeout", func(c *Config) { c.User.NetworkTimeout = 0 }, "user.network_timeout"},
		{"bad status", func(c *Config) { c.User.ExpectStatus = []int{200, 999} }, "user.expect_status[1]"},
		{"empty master host", func(c *Config) { c.Master.Host = "" }, "master.host"},
		{"bad master port", func(c *Config) { c.Master.Port = 0 }, "master.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs *ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.Fields(), tt.field)
		})
	}
}

func TestValidate_CollectsEveryError(t *testing.T) {
	cfg := validConfig()
	cfg.Host = ""
	cfg.Users = 0
	cfg.User.Timeout = 0

	err := cfg.Validate()
	require.Error(t, err)

	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Errors, 3)
	assert.Contains(t, err.Error(), "3 validation errors")
}

func TestValidate_EqualWaitBounds(t *testing.T) {
	cfg := validConfig()
	cfg.User.WaitMin = NewDuration(2 * time.Second)
	cfg.User.WaitMax = NewDuration(2 * time.Second)
	assert.NoError(t, cfg.Validate())
}

func TestValidationError_Single(t *testing.T) {
	err := &ValidationError{Field: "host", Message: "host is required"}
	assert.Equal(t, "validation error on field 'host': host is required", err.Error())

	errs := &ValidationErrors{}
	errs.Add("host", "host is required")
	assert.Equal(t, err.Error(), errs.Error())

	noField := &ValidationError{Message: "bad"}
	assert.Equal(t, "validation error: bad", noField.Error())
}
