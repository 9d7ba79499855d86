package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const defaultBackupSuffix = ".backup"

// Config represents the orcapost configuration file
// (~/.config/orcapost/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	// SpaghettiDetector toggles the default for M981 injection.
	SpaghettiDetector *bool `yaml:"spaghetti_detector"`

	BackupSuffix string `yaml:"backup_suffix"`
	NoBackup     *bool  `yaml:"no_backup"`

	ServerAddress string `yaml:"server_address"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "orcapost", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't
// exist or cannot be parsed; a broken config must never block a slicer hook.
func LoadConfig() Config {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// applyConvertConfig applies config file defaults to convert settings when
// the corresponding CLI flag was not explicitly set.
func applyConvertConfig(c *cli.Command, cfg Config, s *convertSettings) {
	if cfg.SpaghettiDetector != nil && !c.IsSet("no-detector") {
		s.noDetector = !*cfg.SpaghettiDetector
	}
	if cfg.BackupSuffix != "" && !c.IsSet("backup-suffix") {
		s.backupSuffix = cfg.BackupSuffix
	}
	if cfg.NoBackup != nil && !c.IsSet("no-backup") {
		s.noBackup = *cfg.NoBackup
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
