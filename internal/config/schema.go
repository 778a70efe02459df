// Package config loads and validates flock run configuration from YAML or
// JSON files.
package config

import (
	"strings"
	"time"

	"github.com/wesleyorama2/flock/internal/behavior"
)

// Config is the root configuration for a run.
//
// Example YAML:
//
//	host: http://localhost:8000
//	users: 10
//	spawn_rate: 10
//	run_time: 1m
//	user:
//	  path: /api/admin_paths/
//	  wait_min: 1s
//	  wait_max: 3s
//	  timeout: 30s
type Config struct {
	// Host is the base URL requests are sent to
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Users is the number of simulated users in standalone mode
	Users int `json:"users,omitempty" yaml:"users,omitempty"`

	// SpawnRate is how many users are started per second in standalone mode
	SpawnRate float64 `json:"spawn_rate,omitempty" yaml:"spawn_rate,omitempty"`

	// RunTime stops a standalone run after this long; zero runs until
	// interrupted
	RunTime Duration `json:"run_time,omitempty" yaml:"run_time,omitempty"`

	// User is the simulated user behavior
	User UserConfig `json:"user,omitempty" yaml:"user,omitempty"`

	// Master is the locust master a worker connects to
	Master MasterConfig `json:"master,omitempty" yaml:"master,omitempty"`
}

// UserConfig describes the simulated user behavior.
type UserConfig struct {
	// Name of the task reported to the framework
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Path of the endpoint under test
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// WaitMin and WaitMax bound the random wait before each request. Nil
	// means unset; an explicit zero is kept.
	WaitMin *Duration `json:"wait_min,omitempty" yaml:"wait_min,omitempty"`
	WaitMax *Duration `json:"wait_max,omitempty" yaml:"wait_max,omitempty"`

	// Timeout bounds a single request
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// NetworkTimeout bounds connection setup and the client overall
	NetworkTimeout Duration `json:"network_timeout,omitempty" yaml:"network_timeout,omitempty"`

	// ExpectStatus, if set, fails any response with another status
	ExpectStatus []int `json:"expect_status,omitempty" yaml:"expect_status,omitempty"`
}

// MasterConfig locates a locust master.
type MasterConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`
}

const (
	DefaultUsers      = 1
	DefaultSpawnRate  = 1.0
	DefaultMasterHost = "127.0.0.1"
	DefaultMasterPort = 5557
)

// Default returns a configuration with every field at its default. Host is
// left empty.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Users == 0 {
		c.Users = DefaultUsers
	}
	if c.SpawnRate == 0 {
		c.SpawnRate = DefaultSpawnRate
	}

	if c.User.Name == "" {
		c.User.Name = behavior.DefaultTaskName
	}
	if c.User.Path == "" {
		c.User.Path = behavior.DefaultPath
	}
	c.User.applyWaitDefaults()
	if c.User.Timeout == 0 {
		c.User.Timeout = Duration(behavior.DefaultTimeout)
	}
	if c.User.NetworkTimeout == 0 {
		c.User.NetworkTimeout = Duration(behavior.DefaultNetworkTimeout)
	}

	if c.Master.Host == "" {
		c.Master.Host = DefaultMasterHost
	}
	if c.Master.Port == 0 {
		c.Master.Port = DefaultMasterPort
	}
}

// applyWaitDefaults fills missing wait bounds. A lone bound keeps the other
// default unless that would invert the interval, in which case both are
// equal.
func (u *UserConfig) applyWaitDefaults() {
	switch {
	case u.WaitMin == nil && u.WaitMax == nil:
		u.WaitMin = NewDuration(behavior.DefaultWaitMin)
		u.WaitMax = NewDuration(behavior.DefaultWaitMax)
	case u.WaitMax == nil:
		u.WaitMax = NewDuration(max(u.WaitMin.Std(), behavior.DefaultWaitMax))
	case u.WaitMin == nil:
		u.WaitMin = NewDuration(min(u.WaitMax.Std(), behavior.DefaultWaitMin))
	}
}

// WaitBounds returns the wait interval; unset bounds read as zero.
func (u *UserConfig) WaitBounds() (time.Duration, time.Duration) {
	var lo, hi time.Duration
	if u.WaitMin != nil {
		lo = u.WaitMin.Std()
	}
	if u.WaitMax != nil {
		hi = u.WaitMax.Std()
	}
	return lo, hi
}

// Behavior builds the simulated user behavior described by the config.
func (c *Config) Behavior() *behavior.Behavior {
	b := behavior.Default()
	b.TaskName = c.User.Name
	b.Path = c.User.Path
	b.RequestName = c.User.Path
	b.Wait = behavior.Between(c.User.WaitBounds())
	b.Timeout = c.User.Timeout.Std()
	b.NetworkTimeout = c.User.NetworkTimeout.Std()
	b.ExpectStatus = append([]int(nil), c.User.ExpectStatus...)
	return b
}

// TargetURL is the full URL every iteration requests.
func (c *Config) TargetURL() string {
	return strings.TrimRight(c.Host, "/") + "/" + strings.TrimLeft(c.User.Path, "/")
}
