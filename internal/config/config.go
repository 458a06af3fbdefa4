// Package config loads schemashift.toml, discovered upward from the
// working directory, and resolves named environments into concrete
// connection settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ConfigFile is the filename discovered upward from the working directory.
const ConfigFile = "schemashift.toml"

const defaultEnvironmentName = "default"

// EnvironmentConfig describes a single named environment.
type EnvironmentConfig struct {
	DatabaseURL string `toml:"database_url"`
	RedisURL    string `toml:"redis_url"`
	BackupDir   string `toml:"backup_dir"`
}

// Config is the parsed schemashift.toml.
type Config struct {
	DefaultEnvironment string                       `toml:"default_environment"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`
	ConfigFilePath     string                       `toml:"-"`
}

// Load walks up from the working directory until it finds
// schemashift.toml or a project boundary. A missing file is not an
// error: an empty config is returned and environments resolve from
// dotenv files and process environment variables.
func Load() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	dir := startDir
	for {
		configPath := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, err
			}

			var config Config
			if err := toml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
			}

			config.ConfigFilePath = configPath
			return &config, nil
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

// Environment is a fully-resolved environment with concrete values.
type Environment struct {
	Name        string
	DatabaseURL string
	RedisURL    string
	BackupDir   string
}

// Resolve returns the named environment, layering sources: the config
// file first, then a .env.<name> file next to it, then process
// environment variables for anything still unset.
func (c *Config) Resolve(name string) (*Environment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if c.DefaultEnvironment != "" {
			envName = c.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	resolved := &Environment{Name: envName}

	envConfig, fromConfig := c.Environments[envName]
	if fromConfig {
		resolved.DatabaseURL = envConfig.DatabaseURL
		resolved.RedisURL = envConfig.RedisURL
		resolved.BackupDir = envConfig.BackupDir
	}

	dotenvPath := ".env." + envName
	if c.ConfigFilePath != "" {
		dotenvPath = filepath.Join(filepath.Dir(c.ConfigFilePath), dotenvPath)
	}
	fromDotenv := false
	if info, err := os.Stat(dotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(dotenvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
		}
		fromDotenv = true
		if resolved.DatabaseURL == "" {
			resolved.DatabaseURL = values["DATABASE_URL"]
		}
		if resolved.RedisURL == "" {
			resolved.RedisURL = values["REDIS_URL"]
		}
		if resolved.BackupDir == "" {
			resolved.BackupDir = values["BACKUP_DIR"]
		}
	}

	if resolved.DatabaseURL == "" {
		resolved.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if resolved.RedisURL == "" {
		resolved.RedisURL = os.Getenv("REDIS_URL")
	}
	if resolved.BackupDir == "" {
		resolved.BackupDir = os.Getenv("BACKUP_DIR")
	}
	if resolved.BackupDir == "" {
		resolved.BackupDir = ".schemashift/backups"
	}

	if len(c.Environments) > 0 && !fromConfig && !fromDotenv {
		return nil, fmt.Errorf("environment %q not defined in %s and %s not found", envName, ConfigFile, dotenvPath)
	}

	return resolved, nil
}

// isProjectRoot checks for common project boundary markers.
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return true
	}
	return false
}
