package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/aldokuritsu/powminer/pkg/types"
)

// Defaults
const (
	DefaultDifficulty  uint64 = 1
	DefaultExpiration         = 10 * time.Second
	DefaultWorkers            = 1
	DefaultLogInterval        = 5 // seconds

	FormatText = "text"
	FormatJSON = "json"
)

// Errors
var (
	ErrMissingData       = errors.New("data must not be empty")
	ErrMissingPattern    = errors.New("pattern must not be empty")
	ErrInvalidDifficulty = errors.New("difficulty must be a non-negative integer")
	ErrInvalidWorkers    = errors.New("workers must be at least 1")
	ErrInvalidExpiration = errors.New("expiration must be positive")
	ErrInvalidInterval   = errors.New("log interval must be positive")
	ErrInvalidFormat     = errors.New("format must be \"text\" or \"json\"")
)

// Config holds the application configuration
type Config struct {
	Data       string
	Pattern    string
	Difficulty uint64

	Workers     int
	Expiration  time.Duration
	Verbose     bool
	LogFile     string
	LogInterval int // Logging interval in seconds
	Format      string
	ConfigFile  string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Difficulty:  DefaultDifficulty,
		Workers:     DefaultWorkers,
		Expiration:  DefaultExpiration,
		LogInterval: DefaultLogInterval,
		Format:      FormatText,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Data == "" {
		return ErrMissingData
	}
	if c.Pattern == "" {
		return ErrMissingPattern
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.Expiration <= 0 {
		return ErrInvalidExpiration
	}
	if c.LogInterval <= 0 {
		return ErrInvalidInterval
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		return ErrInvalidFormat
	}
	return nil
}

// ParseDifficulty parses a decimal, non-negative difficulty
func ParseDifficulty(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	d, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

// SetArgs applies positional arguments: data, pattern and an optional difficulty
func (c *Config) SetArgs(args []string) error {
	if len(args) > 0 {
		c.Data = args[0]
	}
	if len(args) > 1 {
		c.Pattern = args[1]
	}
	if len(args) > 2 {
		d, err := ParseDifficulty(args[2])
		if err != nil {
			return err
		}
		c.Difficulty = d
	}
	return nil
}

// fileConfig mirrors the TOML file layout
type fileConfig struct {
	Difficulty  uint64 `toml:"difficulty"`
	Workers     int    `toml:"workers"`
	Expiration  string `toml:"expiration"`
	Verbose     bool   `toml:"verbose"`
	LogFile     string `toml:"log_file"`
	LogInterval int    `toml:"log_interval"`
	Format      string `toml:"format"`
}

// fileKeys maps TOML keys to the flag names that override them
var fileKeys = map[string]string{
	"difficulty":   "",
	"workers":      "workers",
	"expiration":   "expiration",
	"verbose":      "verbose",
	"log_file":     "log-file",
	"log_interval": "log-interval",
	"format":       "format",
}

// LoadFile reads a TOML configuration file into c. Keys whose flag was set
// explicitly (flagChanged returns true) are left alone. flagChanged may be nil.
func (c *Config) LoadFile(path string, flagChanged func(name string) bool) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
	}

	apply := func(key string) bool {
		if !md.IsDefined(key) {
			return false
		}
		if flag := fileKeys[key]; flag != "" && flagChanged != nil && flagChanged(flag) {
			return false
		}
		return true
	}

	if apply("difficulty") {
		c.Difficulty = fc.Difficulty
	}
	if apply("workers") {
		c.Workers = fc.Workers
	}
	if apply("expiration") {
		d, err := time.ParseDuration(fc.Expiration)
		if err != nil {
			return fmt.Errorf("config file %s: expiration: %w", path, err)
		}
		c.Expiration = d
	}
	if apply("verbose") {
		c.Verbose = fc.Verbose
	}
	if apply("log_file") {
		c.LogFile = fc.LogFile
	}
	if apply("log_interval") {
		c.LogInterval = fc.LogInterval
	}
	if apply("format") {
		c.Format = fc.Format
	}
	return nil
}

// Request returns the mining request described by the configuration
func (c *Config) Request() types.MiningRequest {
	return types.MiningRequest{
		Data:       c.Data,
		Pattern:    c.Pattern,
		Difficulty: c.Difficulty,
	}
}

// PatternIsHex reports whether the pattern only uses lowercase hex digits.
// Any other character can never appear in a digest.
func (c *Config) PatternIsHex() bool {
	for _, r := range c.Pattern {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// TargetDescription returns a human-readable description of the target
func (c *Config) TargetDescription() string {
	return fmt.Sprintf("prefix %q x %d", c.Pattern, c.Difficulty)
}
