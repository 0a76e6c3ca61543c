package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`

	Storage struct {
		Driver string `yaml:"driver"` // sqlite, redis, memory
		Path   string `yaml:"path"`
		Redis  struct {
			Address  string `yaml:"address"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Backup BackupConfig `yaml:"backup"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Admin struct {
		Password           string `yaml:"password"`
		PasswordHash       string `yaml:"password_hash"`
		TokenSecret        string `yaml:"token_secret"`
		SessionTTLMinutes  int    `yaml:"session_ttl_minutes"`
		LoginRatePerMinute int    `yaml:"login_rate_per_minute"`
	} `yaml:"admin"`

	Payment struct {
		DelayMS     int     `yaml:"delay_ms"`
		FailureRate float64 `yaml:"failure_rate"`
	} `yaml:"payment"`

	Wizard struct {
		SessionTimeoutMinutes int `yaml:"session_timeout_minutes"`
	} `yaml:"wizard"`

	SchedulePath string `yaml:"schedule_path"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Load reads the YAML config at path. A .env file next to the working
// directory is loaded first so ${ENV_VAR} placeholders can refer to it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.Storage.Driver == "sqlite" {
		if err = os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/barbershop.db"
	}
	if c.Storage.Redis.Prefix == "" {
		c.Storage.Redis.Prefix = "barbershop:"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "backups"
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		c.Admin.Password = "admin123"
	}
	if c.SchedulePath == "" {
		c.SchedulePath = "configs/schedule.yaml"
	}
}

func (c *Config) AdminSessionTTL() time.Duration {
	if c.Admin.SessionTTLMinutes <= 0 {
		return 8 * time.Hour
	}
	return time.Duration(c.Admin.SessionTTLMinutes) * time.Minute
}

func (c *Config) PaymentDelay() time.Duration {
	if c.Payment.DelayMS < 0 {
		return 0
	}
	if c.Payment.DelayMS == 0 {
		return 3 * time.Second
	}
	return time.Duration(c.Payment.DelayMS) * time.Millisecond
}

func (c *Config) WizardSessionTimeout() time.Duration {
	if c.Wizard.SessionTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Wizard.SessionTimeoutMinutes) * time.Minute
}

func (c *Config) LoginRatePerMinute() int {
	if c.Admin.LoginRatePerMinute <= 0 {
		return 10
	}
	return c.Admin.LoginRatePerMinute
}

func (b BackupConfig) Interval() time.Duration {
	if b.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.IntervalHours) * time.Hour
}

func (b BackupConfig) Retention() time.Duration {
	if b.RetentionDays <= 0 {
		return 14 * 24 * time.Hour
	}
	return time.Duration(b.RetentionDays) * 24 * time.Hour
}
