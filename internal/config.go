package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RepoEnvVar selects the backing repository path when set.
const RepoEnvVar = "JJZETTEL_REPO"

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Repo  RepoConfig        `yaml:"repo"`
	Watch WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Repo.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration. The log file is
// resolved relative to the repository path because the TUI owns the
// terminal and stdout is not available for logging.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	LogFile  string     `yaml:"log_file"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFile, validation.Required),
	)
}

// RepoConfig holds the path of the jj repository that stores the notes.
type RepoConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the repository configuration.
func (c *RepoConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// WatchConfig controls the notes-directory watcher that picks up external
// store mutations.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watcher configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values. The
// repository path comes from JJZETTEL_REPO, falling back to ~/.jjzettel.
func NewDefaultConfig() *Config {
	repoPath := os.Getenv(RepoEnvVar)
	if repoPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		repoPath = filepath.Join(home, ".jjzettel")
	}

	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			LogFile:  "jjzettel.log",
		},
		Repo: RepoConfig{
			Path: repoPath,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 250 * time.Millisecond,
		},
	}
}
