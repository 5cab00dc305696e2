package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/afero"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "gbifcli"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"

	DefaultBaseURL = "https://api.gbif.org/v1/occurrence/search"

	maxPageSize = 300
)

// Config holds the defaults applied to every query.
type Config struct {
	BaseURL              string `json:"base_url"`
	DefaultCountry       string `json:"default_country"`
	DefaultBasisOfRecord string `json:"default_basis_of_record"`
	PageSize             int    `json:"page_size"`
	MaxRecords           int    `json:"max_records"`
	TimeoutSeconds       int    `json:"timeout_seconds"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:              envString("GBIFCLI_BASE_URL", DefaultBaseURL),
		DefaultCountry:       envString("GBIFCLI_DEFAULT_COUNTRY", "US"),
		DefaultBasisOfRecord: envString("GBIFCLI_DEFAULT_BASIS_OF_RECORD", "PRESERVED_SPECIMEN"),
		PageSize:             envInt("GBIFCLI_PAGE_SIZE", maxPageSize),
		MaxRecords:           envInt("GBIFCLI_MAX_RECORDS", 0),
		TimeoutSeconds:       envInt("GBIFCLI_TIMEOUT", 30),
	}
}

// Validate reports every invalid field, keyed by its JSON name.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.DefaultCountry, validation.Length(2, 2), is.UpperCase),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(maxPageSize)),
		validation.Field(&c.MaxRecords, validation.Min(0)),
		validation.Field(&c.TimeoutSeconds, validation.Min(0)),
	)
}

// ConfigDir is $GBIFCLI_CONFIG_DIR, or gbifcli under the user config dir.
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("GBIFCLI_CONFIG_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

func Load(fs afero.Fs) (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFile(fs, path)
}

// LoadFile reads a JSON5 config file over the defaults. A missing or empty
// file yields the defaults.
func LoadFile(fs afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes default config.json and proxies.txt if they don't already
// exist and returns the paths it created.
func Init(fs afero.Fs) ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	files := []struct {
		name    string
		content func() ([]byte, error)
	}{
		{ConfigFileName, func() ([]byte, error) { return marshalConfig(DefaultConfig()) }},
		{ProxiesFileName, func() ([]byte, error) { return []byte("# one proxy URL per line\n"), nil }},
	}
	for _, file := range files {
		path := filepath.Join(dir, file.name)
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		data, err := file.content()
		if err != nil {
			return created, err
		}
		if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
			return created, err
		}
		created = append(created, path)
	}

	return created, nil
}

func marshalConfig(cfg Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// LoadProxies returns proxy URLs from the flag value, then
// $GBIFCLI_PROXIES, then proxies.txt. Blank lines and # comments are
// skipped.
func LoadProxies(fs afero.Fs, flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}
	if env := strings.TrimSpace(os.Getenv("GBIFCLI_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
