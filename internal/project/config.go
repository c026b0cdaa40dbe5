package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"typeguard/internal/checker"
	"typeguard/internal/diag"
	"typeguard/internal/driver"
	"typeguard/internal/infer"
)

// ErrConfigExists is returned by WriteDefault when the file is already there.
var ErrConfigExists = errors.New("typeguard.toml already exists")

// Config mirrors typeguard.toml.
type Config struct {
	Checker CheckerConfig `toml:"checker"`
	Fix     FixConfig     `toml:"fix"`
	Stub    StubConfig    `toml:"stub"`
	Journal JournalConfig `toml:"journal"`

	// Path and Root are set by Load; they are empty for Default().
	Path string `toml:"-"`
	Root string `toml:"-"`
}

type CheckerConfig struct {
	Command   string   `toml:"command"`
	Args      []string `toml:"args"`
	Timeout   Duration `toml:"timeout"`
	ExitCodes []int    `toml:"exit_codes"`
}

type FixConfig struct {
	Mode                 string  `toml:"mode"`
	Strict               bool    `toml:"strict"`
	MaxIterations        int     `toml:"max_iterations"`
	MinConfidence        float64 `toml:"min_confidence"`
	MaxMalformedFraction float64 `toml:"max_malformed_fraction"`
	MinReportLines       int     `toml:"min_report_lines"`
	Jobs                 int     `toml:"jobs"`
}

type StubConfig struct {
	Out string `toml:"out"`
}

type JournalConfig struct {
	Dir string `toml:"dir"`
}

// Duration decodes TOML strings such as "300s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Checker: CheckerConfig{
			Command:   "mypy",
			Args:      append([]string(nil), checker.DefaultArgs...),
			Timeout:   Duration{checker.DefaultTimeout},
			ExitCodes: []int{0, 1},
		},
		Fix: FixConfig{
			Mode:                 driver.ModeAuto.String(),
			MaxIterations:        driver.DefaultMaxIterations,
			MinConfidence:        infer.DefaultMinConfidence,
			MaxMalformedFraction: diag.DefaultMaxMalformedFraction,
			MinReportLines:       diag.DefaultMinCountedLines,
		},
		Journal: JournalConfig{Dir: ".typeguard"},
	}
}

// Load finds typeguard.toml above startDir and decodes it over Default().
// When no file exists the defaults are returned with found == false.
func Load(startDir string) (cfg Config, found bool, err error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return Config{}, false, err
	}
	if !ok {
		return Default(), false, nil
	}
	cfg, err = LoadFile(path)
	return cfg, true, err
}

// LoadFile decodes one config file over Default().
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("checker", "command") && strings.TrimSpace(cfg.Checker.Command) == "" {
		return Config{}, fmt.Errorf("%s: [checker].command is empty", path)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	cfg.Root = filepath.Dir(path)
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := driver.ParseMode(c.Fix.Mode); err != nil {
		return fmt.Errorf("[fix].mode: %w", err)
	}
	if c.Fix.MaxIterations < 0 {
		return fmt.Errorf("[fix].max_iterations must not be negative")
	}
	if c.Fix.MinConfidence < 0 || c.Fix.MinConfidence > 1 {
		return fmt.Errorf("[fix].min_confidence must be within [0, 1]")
	}
	if c.Fix.MaxMalformedFraction < 0 || c.Fix.MaxMalformedFraction > 1 {
		return fmt.Errorf("[fix].max_malformed_fraction must be within [0, 1]")
	}
	if c.Fix.MinReportLines < 0 {
		return fmt.Errorf("[fix].min_report_lines must not be negative")
	}
	if c.Checker.Timeout.Duration < 0 {
		return fmt.Errorf("[checker].timeout must not be negative")
	}
	return nil
}

// CheckerOptions converts the [checker] table for checker.NewRunner.
func (c *Config) CheckerOptions() checker.Config {
	return checker.Config{
		Command:   c.Checker.Command,
		Args:      c.Checker.Args,
		Timeout:   c.Checker.Timeout.Duration,
		ExitCodes: c.Checker.ExitCodes,
	}
}

// SessionOptions converts the [fix] table. Reviewer and Progress are left to the caller.
func (c *Config) SessionOptions() (driver.Options, error) {
	mode, err := driver.ParseMode(c.Fix.Mode)
	if err != nil {
		return driver.Options{}, err
	}
	return driver.Options{
		Mode:                 mode,
		Strict:               c.Fix.Strict,
		MaxIterations:        c.Fix.MaxIterations,
		MinConfidence:        c.Fix.MinConfidence,
		MaxMalformedFraction: c.Fix.MaxMalformedFraction,
		MinReportLines:       c.Fix.MinReportLines,
		Jobs:                 c.Fix.Jobs,
		Root:                 c.Root,
	}, nil
}

// JournalDir resolves [journal].dir against the project root.
func (c *Config) JournalDir(fallbackRoot string) string {
	dir := c.Journal.Dir
	if dir == "" {
		dir = ".typeguard"
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	root := c.Root
	if root == "" {
		root = fallbackRoot
	}
	return filepath.Join(root, dir)
}

// WriteDefault creates dir/typeguard.toml with the default configuration.
func WriteDefault(dir string) (string, error) {
	path := filepath.Join(dir, ConfigName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	var buf bytes.Buffer
	buf.WriteString("# typeguard configuration\n")
	if err := toml.NewEncoder(&buf).Encode(Default()); err != nil {
		return "", fmt.Errorf("failed to encode TOML: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
