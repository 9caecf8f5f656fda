package internal

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Repo.Path == "" {
		t.Fatal("default repo path must be set")
	}
	if !cfg.Watch.Enabled {
		t.Fatal("watcher must default to enabled")
	}
}

func TestRepoPathFromEnv(t *testing.T) {
	want := filepath.Join(t.TempDir(), "notes")
	t.Setenv(RepoEnvVar, want)

	cfg := NewDefaultConfig()
	if cfg.Repo.Path != want {
		t.Fatalf("expected %q, got %q", want, cfg.Repo.Path)
	}
}

func TestValidateRejectsEmptyRepoPath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Repo.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty repo path must fail validation")
	}
}

func TestValidateRejectsEmptyLogFile(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFile = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty log file must fail validation")
	}
}

func TestValidateRejectsNegativeDebounce(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Watch.Debounce = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative debounce must fail validation")
	}
}
