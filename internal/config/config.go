// Package config loads codepal's settings from a cascade of sources, lowest precedence first:
//   - built-in defaults
//   - the global file ~/.codepal/config.toml
//   - the nearest project file .codepal/config.toml, searched upward from the working directory
//   - environment variables (CODEPAL_PROVIDER, CODEPAL_MODEL, CODEPAL_BASE_URL)
//
// Files are TOML. Unknown keys are an error so typos don't silently fall back to defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Duration is a time.Duration written as a string in TOML (ex: "750ms").
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
	return []byte(d.Duration.String()), nil
}

// Config is codepal's configuration.
type Config struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`

	// BaseURL overrides the provider endpoint (ex: an OpenAI-compatible gateway, or a remote Ollama).
	BaseURL string `toml:"base_url"`

	// MaxInputTokens rejects requests whose prompt is larger, before sending. 0 disables the check.
	MaxInputTokens int `toml:"max_input_tokens"`

	// RequestsPerMinute paces workspace reviews.
	RequestsPerMinute float64 `toml:"requests_per_minute"`

	MaxFileBytes int64 `toml:"max_file_bytes"`
	MaxFiles     int   `toml:"max_files"`

	// PanelDir is where the terminal host writes HTML panels. Relative paths are relative to the project root.
	PanelDir string `toml:"panel_dir"`

	// ContextLines is the unchanged-line context shown around a proposed edit.
	ContextLines int `toml:"context_lines"`

	// Debounce is how long watch waits after the last change to a file before reviewing it.
	Debounce Duration `toml:"debounce"`

	// Sources lists the files and env vars that contributed, lowest precedence first. Not read from files.
	Sources []string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4.1-mini",
		MaxInputTokens:    100_000,
		RequestsPerMinute: 30,
		MaxFileBytes:      200 << 10,
		MaxFiles:          500,
		PanelDir:          filepath.Join(".codepal", "panels"),
		ContextLines:      3,
		Debounce:          Duration{750 * time.Millisecond},
		Sources:           []string{"defaults"},
	}
}

// envVars maps environment variables to setters.
var envVars = []struct {
	name string
	set  func(*Config, string)
}{
	{"CODEPAL_PROVIDER", func(c *Config, v string) { c.Provider = v }},
	{"CODEPAL_MODEL", func(c *Config, v string) { c.Model = v }},
	{"CODEPAL_BASE_URL", func(c *Config, v string) { c.BaseURL = v }},
}

// GlobalPath returns ~/.codepal/config.toml, or "" if the home directory is unknown.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".codepal", "config.toml")
}

// Load loads the cascade for a process whose working directory is cwd.
func Load(cwd string) (Config, error) {
	return LoadFiles(GlobalPath(), NearestProjectFile(cwd))
}

// LoadFiles applies defaults, then each non-empty path that exists, then the environment.
func LoadFiles(paths ...string) (Config, error) {
	cfg := Default()
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := decodeFile(p, &cfg); err != nil {
			return Config{}, err
		}
		cfg.Sources = append(cfg.Sources, p)
	}
	for _, ev := range envVars {
		if v := strings.TrimSpace(os.Getenv(ev.name)); v != "" {
			ev.set(&cfg, v)
			cfg.Sources = append(cfg.Sources, "$"+ev.name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// NearestProjectFile searches upward from dir for .codepal/config.toml and returns its path, or "".
func NearestProjectFile(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for cur := abs; ; {
		p := filepath.Join(cur, ".codepal", "config.toml")
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return ""
		}
		cur = parent
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("config: provider must be %q or %q (got %q)", ProviderOpenAI, ProviderOllama, c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("config: model must be set")
	}
	if c.MaxInputTokens < 0 {
		return fmt.Errorf("config: max_input_tokens must be >= 0 (got %d)", c.MaxInputTokens)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("config: requests_per_minute must be > 0 (got %g)", c.RequestsPerMinute)
	}
	if c.MaxFileBytes <= 0 || c.MaxFiles <= 0 {
		return errors.New("config: max_file_bytes and max_files must be > 0")
	}
	if c.ContextLines < 0 {
		return fmt.Errorf("config: context_lines must be >= 0 (got %d)", c.ContextLines)
	}
	return nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
