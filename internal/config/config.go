package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Upload struct {
		BaseURL       string `yaml:"base_url"`
		Secret        string `yaml:"secret"`
		Dir           string `yaml:"dir"`
		TokenTTLMin   int    `yaml:"token_ttl_minutes"`
		ListenPort    int    `yaml:"listen_port"`
		MaxFileSizeMB int    `yaml:"max_file_size_mb"`
	} `yaml:"upload"`

	Workers struct {
		CacheRefreshSeconds int `yaml:"cache_refresh_seconds"`
		DeadlineScanSeconds int `yaml:"deadline_scan_seconds"`
		ExpiredPenalty      int `yaml:"expired_penalty"`
	} `yaml:"workers"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		Dir           string `yaml:"dir"`
		IntervalHours int    `yaml:"interval_hours"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
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

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/mpsb.db"
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = "data/uploads"
	}
	if cfg.Upload.TokenTTLMin <= 0 {
		cfg.Upload.TokenTTLMin = 5
	}
	if cfg.Upload.MaxFileSizeMB <= 0 {
		cfg.Upload.MaxFileSizeMB = 20
	}
	if cfg.Workers.CacheRefreshSeconds <= 0 {
		cfg.Workers.CacheRefreshSeconds = 5
	}
	if cfg.Workers.DeadlineScanSeconds <= 0 {
		cfg.Workers.DeadlineScanSeconds = 60
	}
	if cfg.Workers.ExpiredPenalty == 0 {
		cfg.Workers.ExpiredPenalty = -1
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = "data/backups"
	}
	if cfg.Backup.IntervalHours <= 0 {
		cfg.Backup.IntervalHours = 24
	}
	if cfg.Backup.RetentionDays <= 0 {
		cfg.Backup.RetentionDays = 14
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) UploadTokenTTL() time.Duration {
	return time.Duration(c.Upload.TokenTTLMin) * time.Minute
}

func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) CacheRefreshInterval() time.Duration {
	return time.Duration(c.Workers.CacheRefreshSeconds) * time.Second
}

func (c *Config) DeadlineScanInterval() time.Duration {
	return time.Duration(c.Workers.DeadlineScanSeconds) * time.Second
}
