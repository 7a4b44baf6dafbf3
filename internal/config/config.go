package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const MemoryDB = ":memory:"

type Config struct {
	DBPath       string `json:"db_path"`
	WebEnabled   bool   `json:"web_enabled"`
	WebPort      int    `json:"web_port"`
	LogLevel     string `json:"log_level"` // empty defers to LOG_LEVEL, then info
	DeletePolicy string `json:"delete_policy"`
}

func Default() Config {
	return Config{
		DBPath:       MemoryDB,
		WebPort:      8080,
		DeletePolicy: "delete",
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "taskboard", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Persistent reports whether the board outlives the process.
func (c Config) Persistent() bool {
	return c.DBPath != "" && c.DBPath != MemoryDB
}
