package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/weiihann/deferbench/result"
)

// Config holds the parameters shared by every benchmark in a run.
type Config struct {
	// Trials is the base trial count, scaled per benchmark by its count
	// multiplier.
	Trials int `yaml:"trials"`

	// Callbacks is the number of continuations chained per trial.
	Callbacks int `yaml:"callbacks"`

	// MetricsFile, when set, receives Prometheus text exposition of the
	// run's metrics.
	MetricsFile string `yaml:"metrics_file,omitempty"`

	// Trace enables span export to stderr.
	Trace bool `yaml:"trace,omitempty"`
}

// DefaultConfig returns the standard run parameters.
func DefaultConfig() Config {
	return Config{
		Trials:    500,
		Callbacks: 1000,
	}
}

// Validate checks that the run parameters can produce a measurement.
func (c Config) Validate() error {
	if c.Trials < 1 {
		return fmt.Errorf("%w: trials must be at least 1, got %d",
			result.ErrConfiguration, c.Trials)
	}

	if c.Callbacks < 1 {
		return fmt.Errorf("%w: callbacks must be at least 1, got %d",
			result.ErrConfiguration, c.Callbacks)
	}

	return nil
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse config %s: %v",
			result.ErrConfiguration, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}
