package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ApproverStrategyDesignated = "designated"
	ApproverStrategyDirectory  = "directory"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Auth       AuthConfig       `yaml:"auth"`
	Booking    BookingConfig    `yaml:"booking"`
	Migrations MigrationsConfig `yaml:"migrations"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	// URL, when set, wins over the individual fields.
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN is a postgres:// URL usable by both pgxpool and golang-migrate.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type BookingConfig struct {
	ApproverStrategy      string `yaml:"approver_strategy"`
	RequireRejectionNotes bool   `yaml:"require_rejection_notes"`
	MaxPurposeLength      int    `yaml:"max_purpose_length"`
	MaxNotesLength        int    `yaml:"max_notes_length"`
	BookingCacheTTL       int    `yaml:"booking_cache_ttl_seconds"`
	ApproverCacheTTL      int    `yaml:"approver_cache_ttl_seconds"`
}

type MigrationsConfig struct {
	Path      string `yaml:"path"`
	AutoApply bool   `yaml:"auto_apply"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env into the process environment when the file exists.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Path returns CONFIG_PATH or the default config.yaml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{Address: ":8080"},
		Database: DatabaseConfig{
			Port:    5432,
			SSLMode: "disable",
		},
		Booking: BookingConfig{
			ApproverStrategy: ApproverStrategyDesignated,
			MaxPurposeLength: 1000,
			MaxNotesLength:   500,
			BookingCacheTTL:  60,
			ApproverCacheTTL: 300,
		},
		Migrations: MigrationsConfig{Path: "file://migrations"},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Address = v
	}
	if v, err := strconv.ParseBool(os.Getenv("REQUIRE_REJECTION_NOTES")); err == nil {
		cfg.Booking.RequireRejectionNotes = v
	}
}

func (c *Config) Validate() error {
	switch c.Booking.ApproverStrategy {
	case ApproverStrategyDesignated, ApproverStrategyDirectory:
	default:
		return fmt.Errorf("unknown approver strategy %q", c.Booking.ApproverStrategy)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Database.URL == "" && c.Database.Host == "" {
		return errors.New("database.host or database.url is required")
	}
	if c.Booking.MaxPurposeLength <= 0 || c.Booking.MaxNotesLength <= 0 {
		return errors.New("booking length limits must be positive")
	}
	return nil
}
