package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wesleyorama2/flock/internal/config"
)

// loadConfig reads --config if given, applies command line overrides and
// defaults, then validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		cfg = loaded
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies every flag set on the command line over cfg. Flags left
// at their defaults never override the file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("path") {
		cfg.User.Path, _ = flags.GetString("path")
	}

	waits := []struct {
		flag   string
		target **config.Duration
	}{
		{"wait-min", &cfg.User.WaitMin},
		{"wait-max", &cfg.User.WaitMax},
	}
	for _, w := range waits {
		if !isSet(flags, w.flag) {
			continue
		}
		v, err := durationFlag(flags, w.flag)
		if err != nil {
			return err
		}
		*w.target = config.NewDuration(v)
	}

	durations := []struct {
		flag   string
		target *config.Duration
	}{
		{"timeout", &cfg.User.Timeout},
		{"network-timeout", &cfg.User.NetworkTimeout},
		{"run-time", &cfg.RunTime},
	}
	for _, d := range durations {
		if !isSet(flags, d.flag) {
			continue
		}
		v, err := durationFlag(flags, d.flag)
		if err != nil {
			return err
		}
		*d.target = config.Duration(v)
	}

	if isSet(flags, "users") {
		cfg.Users, _ = flags.GetInt("users")
	}
	if isSet(flags, "spawn-rate") {
		cfg.SpawnRate, _ = flags.GetFloat64("spawn-rate")
	}
	if isSet(flags, "master-host") {
		cfg.Master.Host, _ = flags.GetString("master-host")
	}
	if isSet(flags, "master-port") {
		cfg.Master.Port, _ = flags.GetInt("master-port")
	}

	return nil
}

// isSet reports whether the command defines name and it was given
func isSet(flags *pflag.FlagSet, name string) bool {
	return flags.Lookup(name) != nil && flags.Changed(name)
}

// durationFlag parses a duration flag, accepting bare seconds
func durationFlag(flags *pflag.FlagSet, name string) (time.Duration, error) {
	raw, _ := flags.GetString(name)
	v, err := config.ParseDurationString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return v, nil
}
