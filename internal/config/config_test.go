package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(afero.NewMemMapFs(), "/missing.json")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL || cfg.PageSize != 300 || cfg.DefaultCountry != "US" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileJSON5(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `{
  // comments and trailing commas are allowed
  default_country: "MX",
  page_size: 100,
}`
	if err := afero.WriteFile(fs, "/cfg/"+ConfigFileName, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadFile(fs, "/cfg/"+ConfigFileName)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.DefaultCountry != "MX" || cfg.PageSize != 100 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("unset fields should keep defaults: %+v", cfg)
	}
}

func TestLoadFileRejectsInvalidFields(t *testing.T) {
	tests := map[string]string{
		"page_size":       `{"page_size": 1000}`,
		"base_url":        `{"base_url": "not a url"}`,
		"default_country": `{"default_country": "USA"}`,
		"max_records":     `{"max_records": -1}`,
	}
	for field, content := range tests {
		t.Run(field, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "/config.json", []byte(content), 0o600); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			_, err := LoadFile(fs, "/config.json")
			if err == nil || !strings.Contains(err.Error(), field) {
				t.Fatalf("LoadFile() error = %v, want %s error", err, field)
			}
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("GBIFCLI_DEFAULT_COUNTRY", "CA")
	t.Setenv("GBIFCLI_MAX_RECORDS", "not-a-number")
	cfg := DefaultConfig()
	if cfg.DefaultCountry != "CA" {
		t.Fatalf("DefaultCountry = %q, want CA", cfg.DefaultCountry)
	}
	if cfg.MaxRecords != 0 {
		t.Fatalf("MaxRecords = %d, want fallback 0", cfg.MaxRecords)
	}
}

func TestInitAndLoadProxies(t *testing.T) {
	fs := afero.NewMemMapFs()
	t.Setenv("GBIFCLI_CONFIG_DIR", "/home/user/.config/gbifcli")
	t.Setenv("GBIFCLI_PROXIES", "")

	created, err := Init(fs)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %v, want 2 files", created)
	}
	again, err := Init(fs)
	if err != nil || len(again) != 0 {
		t.Fatalf("second Init() = %v, %v", again, err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("Load() = %+v, want defaults written by Init", cfg)
	}

	proxiesPath, err := ProxiesPath()
	if err != nil {
		t.Fatalf("ProxiesPath() error = %v", err)
	}
	got, err := LoadProxies(fs, "")
	if err != nil || len(got) != 0 {
		t.Fatalf("LoadProxies() on fresh file = %v, %v", got, err)
	}

	if err := afero.WriteFile(fs, proxiesPath, []byte("# comment\nhttp://a:1\n\n http://b:2 \n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err = LoadProxies(fs, "")
	if err != nil {
		t.Fatalf("LoadProxies() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"http://a:1", "http://b:2"}) {
		t.Fatalf("LoadProxies() = %v", got)
	}

	got, err = LoadProxies(fs, "http://c:3, ,http://d:4")
	if err != nil || !reflect.DeepEqual(got, []string{"http://c:3", "http://d:4"}) {
		t.Fatalf("LoadProxies(flag) = %v, %v", got, err)
	}
}
