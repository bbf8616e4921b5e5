package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"reversi/experiments"
	"reversi/searcher"
)

const Play = "play"

var ErrInvalid = errors.New("invalid config")

// Config is read from an optional YAML file, then overridden by REVERSI_* environment variables
// (REVERSI_GOROUTINES=8, REVERSI_OUTPUT_DIR=...).
type Config struct {
	Game        string        `mapstructure:"game"`
	Experiment  string        `mapstructure:"experiment"` // An experiment name or "play"
	Games       int           `mapstructure:"games"`
	Goroutines  int           `mapstructure:"goroutines"`
	Duration    time.Duration `mapstructure:"duration"`
	Episodes    int           `mapstructure:"episodes"`
	Exploration float64       `mapstructure:"exploration"`
	Tuned       bool          `mapstructure:"tuned"`
	Warmup      bool          `mapstructure:"warmup"`
	Rollout     string        `mapstructure:"rollout"`
	Lambda      float64       `mapstructure:"lambda"`
	Temperature float64       `mapstructure:"temperature"`
	Seed        uint64        `mapstructure:"seed"`
	OutputDir   string        `mapstructure:"output_dir"`
	Debug       bool          `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game", experiments.Reversi.Name)
	v.SetDefault("experiment", Play)
	v.SetDefault("games", experiments.NumGames)
	v.SetDefault("goroutines", 4)
	v.SetDefault("duration", experiments.TimeBudget)
	v.SetDefault("episodes", 0)
	v.SetDefault("exploration", searcher.DefaultExploration)
	v.SetDefault("tuned", true)
	v.SetDefault("warmup", false)
	v.SetDefault("rollout", "random")
	v.SetDefault("lambda", 0.0)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("seed", uint64(0))
	v.SetDefault("output_dir", "results")
	v.SetDefault("debug", false)
}

// Load reads the config. An empty path uses defaults and the environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("reversi")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case c.Game != experiments.Reversi.Name && c.Game != experiments.ConnectFour.Name:
		return fmt.Errorf("%w: unknown game %q", ErrInvalid, c.Game)
	case c.Experiment != Play && !slices.Contains(experiments.Names(), c.Experiment):
		return fmt.Errorf("%w: unknown experiment %q", ErrInvalid, c.Experiment)
	case c.Goroutines < 1:
		return fmt.Errorf("%w: goroutines must be positive, got %d", ErrInvalid, c.Goroutines)
	case c.Duration <= 0 && c.Episodes <= 0:
		return fmt.Errorf("%w: need a duration or an episode budget", ErrInvalid)
	case c.Exploration < 0:
		return fmt.Errorf("%w: exploration must not be negative, got %v", ErrInvalid, c.Exploration)
	case c.Lambda < 0 || c.Lambda > 1:
		return fmt.Errorf("%w: lambda must be within [0, 1], got %v", ErrInvalid, c.Lambda)
	case c.Temperature < 0:
		return fmt.Errorf("%w: temperature must not be negative, got %v", ErrInvalid, c.Temperature)
	}
	if _, err := experiments.NewRollout(experiments.Reversi, c.Rollout); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c Config) Settings() experiments.Settings {
	return experiments.Settings{
		Games:       c.Games,
		Goroutines:  c.Goroutines,
		Duration:    c.Duration,
		Episodes:    c.Episodes,
		Exploration: c.Exploration,
		Tuned:       c.Tuned,
		Warmup:      c.Warmup,
		Rollout:     c.Rollout,
		Lambda:      c.Lambda,
		Temperature: c.Temperature,
		Seed:        c.Seed,
		OutputDir:   c.OutputDir,
	}
}
