package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

type GlobalConfig struct {
	// CurrentUser is the owner id used by the CLI and TUI.
	CurrentUser string `json:"currentUser,omitempty"`

	// Backend selects the entity store: "sqlite" (default) or "aztables".
	Backend string `json:"backend,omitempty"`
	// DataDir holds the SQLite database. Defaults to <config dir>/data.
	DataDir string `json:"dataDir,omitempty"`
	// TablesConnection and TablesName configure the aztables backend.
	TablesConnection string `json:"tablesConnection,omitempty"`
	TablesName       string `json:"tablesName,omitempty"`

	// RedisURL enables the read cache and cross-process change feed.
	RedisURL string `json:"redisURL,omitempty"`
	CacheTTL string `json:"cacheTTL,omitempty"`

	// Debounce is the board autosave window (Go duration, e.g. "500ms").
	Debounce string `json:"debounce,omitempty"`

	// DefaultColumns seeds new kanban boards. Empty means boards start without columns.
	DefaultColumns []string `json:"defaultColumns,omitempty"`
	// CalendarYear pins the year calendar slots are resolved against (0 = current year).
	CalendarYear int `json:"calendarYear,omitempty"`

	Auth *AuthConfig `json:"auth,omitempty"`

	// TUI holds optional user preferences for the interactive TUI.
	TUI *TUIConfig `json:"tui,omitempty"`
}

type AuthConfig struct {
	// HS256Secret signs and verifies local tokens.
	HS256Secret string `json:"hs256Secret,omitempty"`
	// JWKSURL enables RS256 verification against a remote key set.
	JWKSURL  string `json:"jwksURL,omitempty"`
	Audience string `json:"audience,omitempty"`
	Issuer   string `json:"issuer,omitempty"`
}

type TUIConfig struct {
	// Theme is "auto", "light" or "dark".
	Theme string `json:"theme,omitempty"`
}

const DefaultDebounce = 500 * time.Millisecond

// DebounceDuration parses Debounce, falling back to DefaultDebounce.
func (c *GlobalConfig) DebounceDuration() time.Duration {
	if c == nil || strings.TrimSpace(c.Debounce) == "" {
		return DefaultDebounce
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.Debounce))
	if err != nil || d < 0 {
		return DefaultDebounce
	}
	return d
}

func (c *GlobalConfig) CacheTTLDuration() time.Duration {
	if c == nil || strings.TrimSpace(c.CacheTTL) == "" {
		return time.Minute
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.CacheTTL))
	if err != nil || d < 0 {
		return time.Minute
	}
	return d
}

// ConfigKeys lists the keys accepted by Set, in display order.
var ConfigKeys = []string{
	"currentUser", "backend", "dataDir", "tablesConnection", "tablesName",
	"redisURL", "cacheTTL", "debounce", "defaultColumns", "calendarYear",
	"auth.hs256Secret", "auth.jwksURL", "auth.audience", "auth.issuer", "tui.theme",
}

// Set updates one key from its string form. defaultColumns takes a comma-separated list.
func (c *GlobalConfig) Set(key, value string) error {
	value = strings.TrimSpace(value)
	auth := func() *AuthConfig {
		if c.Auth == nil {
			c.Auth = &AuthConfig{}
		}
		return c.Auth
	}
	switch key {
	case "currentUser":
		c.CurrentUser = value
	case "backend":
		if value != "" && value != "sqlite" && value != "aztables" {
			return fmt.Errorf("invalid backend %q (want sqlite or aztables)", value)
		}
		c.Backend = value
	case "dataDir":
		c.DataDir = value
	case "tablesConnection":
		c.TablesConnection = value
	case "tablesName":
		c.TablesName = value
	case "redisURL":
		c.RedisURL = value
	case "cacheTTL", "debounce":
		if value != "" {
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
		}
		if key == "debounce" {
			c.Debounce = value
		} else {
			c.CacheTTL = value
		}
	case "defaultColumns":
		c.DefaultColumns = nil
		for _, part := range strings.Split(value, ",") {
			if p := strings.TrimSpace(part); p != "" {
				c.DefaultColumns = append(c.DefaultColumns, p)
			}
		}
	case "calendarYear":
		if value == "" {
			c.CalendarYear = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid calendarYear %q", value)
		}
		c.CalendarYear = n
	case "auth.hs256Secret":
		auth().HS256Secret = value
	case "auth.jwksURL":
		auth().JWKSURL = value
	case "auth.audience":
		auth().Audience = value
	case "auth.issuer":
		auth().Issuer = value
	case "tui.theme":
		switch value {
		case "", "auto", "light", "dark":
		default:
			return fmt.Errorf("invalid tui.theme %q (want auto, light or dark)", value)
		}
		if c.TUI == nil {
			c.TUI = &TUIConfig{}
		}
		c.TUI.Theme = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.planboard).
	if v := strings.TrimSpace(os.Getenv("PLANBOARD_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".planboard"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultDataDir is where the SQLite database lives when dataDir is unset.
func DefaultDataDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := sonic.ConfigStd.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := sonic.ConfigStd.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Keep a copy of the previous config for recovery from accidental overwrites.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o644)
	}
	// Unique temp file + rename so the CLI, TUI and server can write concurrently.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}
