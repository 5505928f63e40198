package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Admin     AdminConfig     `yaml:"admin"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
}

// SchedulerConfig holds cron specs for the in-process background jobs.
type SchedulerConfig struct {
	CleanupSchedule     string `yaml:"cleanup_schedule"`
	ExecutorSweep       string `yaml:"executor_sweep"`
	MaintenanceSchedule string `yaml:"maintenance_schedule"`
}

var AppConfig *Config

func Load(path string) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: 8989,
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			Path: "./data/dc-panel.db",
		},
		JWT: JWTConfig{
			Secret: "change-this-secret-in-production",
			Expiry: 24 * time.Hour,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin123",
			Email:    "admin@localhost",
		},
		Scheduler: SchedulerConfig{
			CleanupSchedule:     "0 3 * * *",
			ExecutorSweep:       "* * * * *",
			MaintenanceSchedule: "*/5 * * * *",
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			AppConfig = config
			return config, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	// Override with environment variables
	if port := os.Getenv("DC_PANEL_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			config.Server.Port = p
		}
	}
	if secret := os.Getenv("DC_PANEL_JWT_SECRET"); secret != "" {
		config.JWT.Secret = secret
	}
	if dbPath := os.Getenv("DC_PANEL_DB_PATH"); dbPath != "" {
		config.Database.Path = dbPath
	}

	AppConfig = config
	return config, nil
}
