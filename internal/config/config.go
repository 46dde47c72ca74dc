package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Store driver names accepted by store.driver.
const (
	StoreDriverJSON   = "json"
	StoreDriverSQLite = "sqlite"
)

// Paths contains directory configuration.
type Paths struct {
	StorageDir string `toml:"storage_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
}

// Server contains the worker HTTP listener settings.
type Server struct {
	Bind                   string `toml:"bind"`
	Workers                int    `toml:"workers"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// Store selects the persisted video-record backend.
type Store struct {
	Driver string `toml:"driver"`
}

// Media contains ffmpeg/ffprobe invocation settings.
type Media struct {
	FFmpegBinary           string   `toml:"ffmpeg_binary"`
	FFprobeBinary          string   `toml:"ffprobe_binary"`
	ThumbnailOffsetSeconds int      `toml:"thumbnail_offset_seconds"`
	ResizeThreads          int      `toml:"resize_threads"`
	AllowedExtensions      []string `toml:"allowed_extensions"`
}

// Supervisor contains worker process supervision settings.
type Supervisor struct {
	// SpawnRetrySeconds only applies when a worker cannot be launched at all.
	// Exited workers are replaced immediately.
	SpawnRetrySeconds int `toml:"spawn_retry_seconds"`
}

// Metrics contains the Prometheus endpoint settings.
type Metrics struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for video-editor.
//
// Configuration sections by subsystem:
//   - Paths: asset storage, runtime data (store, socket, locks), and logs
//   - Server: worker HTTP bind address and worker count
//   - Store: persisted record backend (json or sqlite)
//   - Media: ffmpeg/ffprobe binaries and transcode parameters
//   - Supervisor: worker respawn settings
//   - Metrics: Prometheus endpoint served by the primary
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Server     Server     `toml:"server"`
	Store      Store      `toml:"store"`
	Media      Media      `toml:"media"`
	Supervisor Supervisor `toml:"supervisor"`
	Metrics    Metrics    `toml:"metrics"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/video-editor/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("video-editor.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for primary and worker operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StorageDir, c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the unix socket the primary serves IPC on.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "video-editor.sock")
}

// LockPath returns the lock file that guards the single dispatcher.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "dispatcher.lock")
}

// PIDPath returns the pid file written by the primary.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "video-editor.pid")
}

// StorePath returns the persisted record file for the configured driver.
func (c *Config) StorePath() string {
	if c.Store.Driver == StoreDriverSQLite {
		return filepath.Join(c.Paths.DataDir, "videos.db")
	}
	return filepath.Join(c.Paths.DataDir, "videos.json")
}

// LogPath returns the primary's log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "video-editor.log")
}

// WorkerCount returns the configured worker count, defaulting to one worker per CPU.
func (c *Config) WorkerCount() int {
	if c.Server.Workers > 0 {
		return c.Server.Workers
	}
	return runtime.NumCPU()
}

// ShutdownTimeout returns the HTTP graceful shutdown window.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// SpawnRetry returns the delay before retrying a worker that failed to launch.
func (c *Config) SpawnRetry() time.Duration {
	return time.Duration(c.Supervisor.SpawnRetrySeconds) * time.Second
}

// ExtensionAllowed reports whether uploads with the given extension are accepted.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	for _, allowed := range c.Media.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
