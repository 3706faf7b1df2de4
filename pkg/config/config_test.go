package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	Addr    string        `default:":8080"`
	Timeout time.Duration `split_words:"true" default:"5s"`
	Token   string
}

var errMissingToken = errors.New("token is required")

type validatedConfig struct {
	Token string
}

func (c *validatedConfig) Validate() error {
	if c.Token == "" {
		return errMissingToken
	}
	return nil
}

func TestNewAppliesPrefixAndDefaults(t *testing.T) {
	t.Setenv("SAMPLE_TIMEOUT", "2s")
	t.Setenv("SAMPLE_TOKEN", "abc")

	cfg, err := New[sampleConfig]("SAMPLE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q, want default", cfg.Addr)
	}
	if cfg.Timeout != 2*time.Second {
		t.Fatalf("Timeout = %s, want 2s", cfg.Timeout)
	}
	if cfg.Token != "abc" {
		t.Fatalf("Token = %q", cfg.Token)
	}
}

func TestNewRunsValidate(t *testing.T) {
	t.Setenv("CHECKED_TOKEN", "")

	if _, err := New[validatedConfig]("CHECKED"); !errors.Is(err, errMissingToken) {
		t.Fatalf("New() error = %v, want errMissingToken", err)
	}

	t.Setenv("CHECKED_TOKEN", "set")
	cfg, err := New[validatedConfig]("CHECKED")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Token != "set" {
		t.Fatalf("Token = %q", cfg.Token)
	}
}

func TestExportEnvironmentKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("ENVFILE_KEEP=from-file\nENVFILE_NEW=added\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENVFILE_KEEP", "from-env")
	t.Setenv("ENVFILE_NEW", "")
	os.Unsetenv("ENVFILE_NEW")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("ENVFILE_KEEP"); got != "from-env" {
		t.Fatalf("ENVFILE_KEEP = %q, want from-env", got)
	}
	if got := os.Getenv("ENVFILE_NEW"); got != "added" {
		t.Fatalf("ENVFILE_NEW = %q, want added", got)
	}
}

func TestExportEnvironmentIfExistsIgnoresMissingFile(t *testing.T) {
	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("exportEnvironmentIfExists() error = %v", err)
	}
}
