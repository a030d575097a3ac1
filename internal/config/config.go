// Package config loads the embedding application's vault settings: the
// vault root directory and the logging level. The core engine itself never
// reads a config file; this package exists for embedders (a CLI, an MCP
// server, a desktop shell) that want a standard way to externalize those
// two values. Files are JSONC (comments and trailing commas allowed), with
// global config merged under the project file, and CLI overrides on top.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// Config holds all configuration options an embedder may externalize.
type Config struct {
	VaultRoot string `json:"vault_root"` //nolint:tagliatelle // snake_case for config file
	LogLevel  string `json:"log_level,omitempty"`
}

// Sources tracks which config files were loaded, for diagnostics.
type Sources struct {
	Global  string
	Project string
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		VaultRoot: ".",
		LogLevel:  "info",
	}
}

// FileName is the default project config file name.
const FileName = ".vault.json"

var (
	errVaultRootEmpty     = errors.New("vault_root must not be empty")
	errConfigFileNotFound = errors.New("config file not found")
	errConfigFileRead     = errors.New("failed to read config file")
	errConfigInvalid      = errors.New("invalid config file")
)

// globalConfigPath returns $XDG_CONFIG_HOME/vaultcore/config.json, falling
// back to ~/.config/vaultcore/config.json, or "" if neither is available.
func globalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "vaultcore", "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "vaultcore", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "vaultcore", "config.json")
	}

	return ""
}

// Load loads configuration with the following precedence (highest wins):
//  1. Defaults
//  2. Global user config
//  3. Project config file (.vault.json) or an explicit configPath
//  4. CLI overrides (applied only if hasVaultRootOverride is true)
func Load(workDir, configPath string, cliOverrides Config, hasVaultRootOverride bool, env []string) (Config, Sources, error) {
	cfg := Default()

	var sources Sources

	globalCfg, globalPath, err := loadGlobal(env)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectCfg, projectPath, err := loadProject(workDir, configPath)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	if hasVaultRootOverride {
		cfg.VaultRoot = cliOverrides.VaultRoot
	}

	if err := validate(cfg); err != nil {
		return Config{}, Sources{}, err
	}

	return cfg, sources, nil
}

func loadGlobal(env []string) (Config, string, error) {
	path := globalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, explicitEmpty, loaded, err := loadFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["vault_root"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, path, errVaultRootEmpty)
	}

	return cfg, path, nil
}

func loadProject(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, err := os.Stat(cfgFile); err != nil {
			return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, FileName)
	}

	cfg, explicitEmpty, loaded, err := loadFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["vault_root"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, cfgFile, errVaultRootEmpty)
	}

	return cfg, cfgFile, nil
}

func loadFile(path string, mustExist bool) (Config, map[string]bool, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally caller-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil, false, nil
		}

		if mustExist {
			return Config{}, nil, false, fmt.Errorf("%w: %s", errConfigFileRead, path)
		}

		return Config{}, nil, false, nil
	}

	cfg, explicitEmpty, err := parse(data)
	if err != nil {
		return Config{}, nil, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return cfg, explicitEmpty, true, nil
}

func parse(data []byte) (Config, map[string]bool, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	explicitEmpty := make(map[string]bool)

	if val, exists := raw["vault_root"]; exists {
		if str, ok := val.(string); ok && str == "" {
			explicitEmpty["vault_root"] = true
		}
	}

	return cfg, explicitEmpty, nil
}

func merge(base, overlay Config) Config {
	if overlay.VaultRoot != "" {
		base.VaultRoot = overlay.VaultRoot
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	return base
}

func validate(cfg Config) error {
	if cfg.VaultRoot == "" {
		return errVaultRootEmpty
	}

	return nil
}

// Format returns cfg as formatted JSON, for diagnostics (`vaultctl config print`).
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}

// Save persists cfg to path as formatted JSON, replacing the file
// atomically so a reader never observes a half-written config.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}

	return nil
}
