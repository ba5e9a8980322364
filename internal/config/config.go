package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const DefaultGlamourStyle = "dark"

const DefaultServerURL = "http://localhost:8000"

// AppConfig is resolved from, in increasing precedence: built-in
// defaults, the optional YAML config file, environment variables, and
// command-line flags.
type AppConfig struct {
	ServerURL   string `yaml:"server_url"`
	TokenPath   string `yaml:"token_path"`
	ArchivePath string `yaml:"archive_path"`
	ExportDir   string `yaml:"export_dir"`
	LogPath     string `yaml:"log_path"`
	Verbose     bool   `yaml:"verbose"`
}

// Parse resolves the configuration and returns the remaining
// positional arguments (the command mode, if any).
func Parse(args []string) (AppConfig, []string, error) {
	fs := flag.NewFlagSet("decreechat", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to config file")

	var flagCfg AppConfig
	fs.StringVar(&flagCfg.ServerURL, "server", "", "decree Q&A server base URL")
	fs.StringVar(&flagCfg.TokenPath, "token-path", "", "path to the session token file")
	fs.StringVar(&flagCfg.ArchivePath, "archive-path", "", "path to the local exchange archive")
	fs.StringVar(&flagCfg.ExportDir, "export-dir", "", "directory for transcript exports")
	fs.StringVar(&flagCfg.LogPath, "log-path", "", "path to the log file")
	fs.BoolVar(&flagCfg.Verbose, "verbose", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, nil, err
	}

	cfg, err := Resolve(configPath, flagCfg, os.Getenv)
	if err != nil {
		return AppConfig{}, nil, err
	}
	return cfg, fs.Args(), nil
}

// Resolve layers the config sources without touching flag parsing, so
// precedence stays testable.
func Resolve(configPath string, flagCfg AppConfig, getenv func(string) string) (AppConfig, error) {
	cfg, err := defaults()
	if err != nil {
		return cfg, err
	}

	fileCfg, err := loadFile(configPath, getenv)
	if err != nil {
		return cfg, err
	}
	cfg.merge(fileCfg)
	cfg.merge(fromEnv(getenv))
	cfg.merge(flagCfg)

	for _, dir := range []string{
		filepath.Dir(cfg.ArchivePath),
		filepath.Dir(cfg.LogPath),
		cfg.ExportDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cfg, fmt.Errorf("create state dir: %w", err)
		}
	}
	return cfg, nil
}

func defaults() (AppConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return AppConfig{}, fmt.Errorf("resolve home directory: %w", err)
	}
	state := filepath.Join(home, ".local", "share", "decreechat")
	return AppConfig{
		ServerURL:   DefaultServerURL,
		TokenPath:   filepath.Join(home, ".config", "decreechat", "token"),
		ArchivePath: filepath.Join(state, "archive.sqlite"),
		ExportDir:   filepath.Join(state, "exports"),
		LogPath:     filepath.Join(state, "decreechat.log"),
	}, nil
}

func loadFile(explicit string, getenv func(string) string) (AppConfig, error) {
	path := explicit
	if path == "" {
		if p := getenv("DECREECHAT_CONFIG"); p != "" {
			path = p
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return AppConfig{}, fmt.Errorf("resolve home directory: %w", err)
			}
			path = filepath.Join(home, ".config", "decreechat", "config.yaml")
		}
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if explicit != "" {
			return AppConfig{}, fmt.Errorf("config file not found: %s", explicit)
		}
		return AppConfig{}, nil
	}
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config file: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func fromEnv(getenv func(string) string) AppConfig {
	return AppConfig{
		ServerURL:   getenv("DECREECHAT_SERVER"),
		TokenPath:   getenv("DECREECHAT_TOKEN_PATH"),
		ArchivePath: getenv("DECREECHAT_ARCHIVE_PATH"),
		ExportDir:   getenv("DECREECHAT_EXPORT_DIR"),
		LogPath:     getenv("DECREECHAT_LOG_PATH"),
		Verbose:     getenv("DECREECHAT_VERBOSE") == "1",
	}
}

// merge overlays the non-zero fields of other onto cfg.
func (c *AppConfig) merge(other AppConfig) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.TokenPath != "" {
		c.TokenPath = other.TokenPath
	}
	if other.ArchivePath != "" {
		c.ArchivePath = other.ArchivePath
	}
	if other.ExportDir != "" {
		c.ExportDir = other.ExportDir
	}
	if other.LogPath != "" {
		c.LogPath = other.LogPath
	}
	if other.Verbose {
		c.Verbose = true
	}
}
