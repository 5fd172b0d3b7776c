package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		QueueSize    int    `yaml:"queue_size"`
		Workers      int    `yaml:"workers"`
	} `yaml:"email"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	WebSocket struct {
		SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
		IdleTimeoutMinutes   int `yaml:"idle_timeout_minutes"`
	} `yaml:"websocket"`
}

// SweepInterval returns how often the idle sweep runs.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.WebSocket.SweepIntervalMinutes) * time.Minute
}

// IdleTimeout returns how long a connection may sit without activity
// before the sweep evicts it.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.WebSocket.IdleTimeoutMinutes) * time.Minute
}

const (
	// Defaults for the idle-connection sweep. Connections that have shown
	// no activity for DefaultIdleTimeout are evicted on the next sweep.
	DefaultSweepInterval = 5 * time.Minute
	DefaultIdleTimeout   = 30 * time.Minute

	defaultEmailQueueSize = 256
	defaultEmailWorkers   = 4
)

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	// Environment-driven configuration (tests, containers)
	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Email.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.Email.SMTPPort = 587
	cfg.Email.FromEmail = "no-reply@servio.app"
	cfg.Email.FromName = "Servio"

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.WebSocket.SweepIntervalMinutes <= 0 {
		cfg.WebSocket.SweepIntervalMinutes = int(DefaultSweepInterval / time.Minute)
	}
	if cfg.WebSocket.IdleTimeoutMinutes <= 0 {
		cfg.WebSocket.IdleTimeoutMinutes = int(DefaultIdleTimeout / time.Minute)
	}
	if cfg.Email.QueueSize <= 0 {
		cfg.Email.QueueSize = defaultEmailQueueSize
	}
	if cfg.Email.Workers <= 0 {
		cfg.Email.Workers = defaultEmailWorkers
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
