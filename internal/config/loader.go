package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VIDRANK_"

// ConfigPathEnvVar overrides the config file path. It is not itself a key.
const ConfigPathEnvVar = EnvPrefix + "CONFIG"

// sliceConfigPaths are keys that may arrive as comma-separated env strings.
var sliceConfigPaths = []string{
	"classifier.args",
}

// Load reads the default config file if it exists, then applies env
// overrides. A missing default file is not an error.
func Load() (*Config, error) {
	path := os.Getenv(ConfigPathEnvVar)
	if path != "" {
		return LoadFrom(path)
	}
	path, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return load(path, false)
}

// LoadFrom reads config from path, which must exist.
func LoadFrom(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	switch err := checkReadable(path, required); {
	case err == nil:
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, &InvalidConfigError{
				Path:    path,
				Message: fmt.Sprintf("YAML parse error: %v", err),
				Hint:    "Run 'vidrank config init --force' to write a fresh file",
			}
		}
	case errors.Is(err, fs.ErrNotExist):
		// Optional default file is absent; defaults and env apply.
	default:
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: err.Error(),
			Hint:    "Check value types; durations look like 30s or 2160h",
		}
	}

	if err := cfg.Validate(); err != nil {
		var ierr *InvalidConfigError
		if errors.As(err, &ierr) && ierr.Path == "" {
			ierr.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// checkReadable returns fs.ErrNotExist for an optional missing file and
// typed errors otherwise.
func checkReadable(path string, required bool) error {
	f, err := os.Open(path)
	if err == nil {
		f.Close()
		return nil
	}
	switch {
	case os.IsNotExist(err):
		if !required {
			return fs.ErrNotExist
		}
		return &ConfigNotFoundError{
			Path: path,
			Hint: "Run 'vidrank config init' to create configuration",
		}
	case os.IsPermission(err):
		return &PermissionError{
			Path:    path,
			Op:      "read",
			Fix:     getReadPermissionFix(path),
			Details: getPermissionDetails(path),
		}
	default:
		return fmt.Errorf("failed to access config: %w", err)
	}
}

// envKey maps VIDRANK_SERVER__RATE_LIMIT to server.rate_limit.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "config" {
		return ""
	}
	return strings.ReplaceAll(key, "__", ".")
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// getReadPermissionFix returns platform-specific fix command
func getReadPermissionFix(path string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Right-click %s → Properties → Security → Edit permissions", path)
	default: // unix-like
		return fmt.Sprintf("Run: chmod 644 %s", path)
	}
}

// getPermissionDetails checks file ownership and permissions
func getPermissionDetails(path string) string {
	if runtime.GOOS == "windows" {
		return ""
	}

	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Current permissions: %04o", info.Mode().Perm())
}
