// Package nbconfig loads engine-level configuration through a
// sync.Once-guarded YAML loader. Environment variables, read through
// getEnv(key, fallback), are applied afterwards whether or not a YAML
// file is present, so they override both the defaults and YAML values.
package nbconfig

import (
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "./nodebrain.yml"

// Config carries engine-level knobs: NodeBrain's configuration concerns
// only the reaction engine itself.
type Config struct {
	// LogLevel is the default nblog.Level name ("error", "warn", "info",
	// "audit", "trace", "debug").
	LogLevel string `yaml:"log_level"`

	// DefaultHorizon bounds how far ahead the time-condition engine casts
	// a schedule's interval set before it must be re-cast.
	DefaultHorizon time.Duration `yaml:"default_horizon"`

	// MaxActionQueueDepth is loaded with the rest of the configuration,
	// but nothing reads it: the rule scheduler's action queue is
	// unbounded and raises no resource error when it grows.
	MaxActionQueueDepth int `yaml:"max_action_queue_depth"`

	// TimerCoalesceWindow is loaded with the rest of the configuration,
	// but nothing reads it: the dispatcher schedules every armed timer
	// on its own and coalesces no wakeups.
	TimerCoalesceWindow time.Duration `yaml:"timer_coalesce_window"`
}

func defaults() *Config {
	return &Config{
		LogLevel:            "info",
		DefaultHorizon:      24 * time.Hour,
		MaxActionQueueDepth: 10000,
		TimerCoalesceWindow: 10 * time.Millisecond,
	}
}

var (
	once sync.Once
	cfg  *Config
)

// App returns the process-wide Config singleton, loading it from disk
// (or environment variables) on first use.
func App() *Config {
	once.Do(func() {
		cfg = prepareConfig()
	})
	return cfg
}

func configPath() string {
	if path := os.Getenv("NODEBRAIN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func prepareConfig() *Config {
	c := defaults()

	data, err := os.ReadFile(configPath())
	if err != nil {
		applyEnvOverrides(c)
		return c
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		applyEnvOverrides(c)
		return c
	}

	applyEnvOverrides(c)
	return c
}

func applyEnvOverrides(c *Config) {
	c.LogLevel = getEnv("NODEBRAIN_LOG_LEVEL", c.LogLevel)

	if v, ok := os.LookupEnv("NODEBRAIN_MAX_ACTION_QUEUE_DEPTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxActionQueueDepth = n
		}
	}

	if v, ok := os.LookupEnv("NODEBRAIN_DEFAULT_HORIZON"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.DefaultHorizon = d
		}
	}

	if v, ok := os.LookupEnv("NODEBRAIN_TIMER_COALESCE_WINDOW"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.TimerCoalesceWindow = d
		}
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Reset clears the singleton. Test-only: lets each test load its own
// configuration instead of inheriting whichever one ran first.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
