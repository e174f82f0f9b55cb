// Package config loads the simulator settings from a .env file and F1SIM_ environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "F1SIM"

// Config holds the settings of a race session.
type Config struct {
	// Race
	Circuit    string              // Circuit is the circuit id
	Driver     string              // Driver is the id of the player's driver
	StartTyre  domain.TireCompound // StartTyre is the player's starting compound
	Difficulty domain.Difficulty
	Laps       int // Laps overrides the circuit race distance when positive

	// Engine
	Seed            int64   // Seed makes a race reproducible; 0 is time based
	SafetyCarChance float64 // SafetyCarChance is the probability of a safety car per leader lap
	FailureRate     float64 // FailureRate is the probability of a retirement per completed lap

	// Clock
	TimeScale float64       // TimeScale is simulated seconds per real second
	Tick      time.Duration // Tick is the real interval between ticks

	// Output
	Radio      domain.Verbosity
	RefdataDir string // RefdataDir replaces the embedded reference data when set
	LogFile    string
	Debug      bool
}

// Load reads configuration from the given .env files (".env" when none are given, and only if
// present) and then from the environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && (len(files) > 0 || !errors.Is(err, fs.ErrNotExist)) {
		return nil, fmt.Errorf("config: loading env file: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("CIRCUIT", "bahrain")
	v.SetDefault("DRIVER", "ver")
	v.SetDefault("START_TYRE", "MEDIUM")
	v.SetDefault("DIFFICULTY", "HARD")
	v.SetDefault("RADIO", "MINIMAL")
	v.SetDefault("TIME_SCALE", 5.0)
	v.SetDefault("TICK_MS", 50)
	v.SetDefault("SEED", 0)
	v.SetDefault("LAPS", 0)
	v.SetDefault("SAFETY_CAR_CHANCE", 0.03)
	v.SetDefault("FAILURE_RATE", 0.0)
	v.SetDefault("REFDATA_DIR", "")
	v.SetDefault("LOG_FILE", "app.log")
	v.SetDefault("DEBUG", false)

	cfg := &Config{
		Circuit:         strings.ToLower(strings.TrimSpace(v.GetString("CIRCUIT"))),
		Driver:          strings.ToLower(strings.TrimSpace(v.GetString("DRIVER"))),
		Laps:            v.GetInt("LAPS"),
		Seed:            v.GetInt64("SEED"),
		SafetyCarChance: v.GetFloat64("SAFETY_CAR_CHANCE"),
		FailureRate:     v.GetFloat64("FAILURE_RATE"),
		TimeScale:       v.GetFloat64("TIME_SCALE"),
		Tick:            time.Duration(v.GetInt("TICK_MS")) * time.Millisecond,
		RefdataDir:      v.GetString("REFDATA_DIR"),
		LogFile:         v.GetString("LOG_FILE"),
		Debug:           v.GetBool("DEBUG"),
	}

	var err error
	if cfg.StartTyre, err = domain.ParseTireCompound(v.GetString("START_TYRE")); err != nil {
		return nil, fmt.Errorf("config: START_TYRE: %w", err)
	}
	if cfg.Difficulty, err = domain.ParseDifficulty(v.GetString("DIFFICULTY")); err != nil {
		return nil, fmt.Errorf("config: DIFFICULTY: %w", err)
	}
	if cfg.Radio, err = domain.ParseVerbosity(v.GetString("RADIO")); err != nil {
		return nil, fmt.Errorf("config: RADIO: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Step is the simulated time advanced by one tick.
func (c *Config) Step() float64 {
	return c.Tick.Seconds() * c.TimeScale
}

func (c *Config) validate() error {
	var errs []error
	if c.Circuit == "" {
		errs = append(errs, errors.New("config: CIRCUIT must be set"))
	}
	if c.TimeScale <= 0 {
		errs = append(errs, fmt.Errorf("config: TIME_SCALE must be positive, got %v", c.TimeScale))
	}
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("config: TICK_MS must be positive, got %v", c.Tick))
	}
	if c.Laps < 0 {
		errs = append(errs, fmt.Errorf("config: LAPS must not be negative, got %d", c.Laps))
	}
	if c.SafetyCarChance < 0 || c.SafetyCarChance > 1 {
		errs = append(errs, fmt.Errorf("config: SAFETY_CAR_CHANCE must be within [0,1], got %v", c.SafetyCarChance))
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		errs = append(errs, fmt.Errorf("config: FAILURE_RATE must be within [0,1], got %v", c.FailureRate))
	}
	return errors.Join(errs...)
}
