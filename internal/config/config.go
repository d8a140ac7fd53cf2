package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Auth modes soportados.
const (
	AuthModeDev    = "dev"    // header X-Debug-User-ID / X-Debug-Clinic-ID
	AuthModeJWT    = "jwt"    // HS256 firmado con AUTH_JWT_SECRET
	AuthModeHosted = "hosted" // proveedor de auth hospedado (AUTH_BASE_URL)
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	DBDSN string `mapstructure:"DB_DSN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	AppName   string `mapstructure:"APP_NAME"`

	AuthMode      string `mapstructure:"AUTH_MODE"`
	AuthJWTSecret string `mapstructure:"AUTH_JWT_SECRET"`
	AuthBaseURL   string `mapstructure:"AUTH_BASE_URL"`
	AuthAPIKey    string `mapstructure:"AUTH_API_KEY"`

	ClinicTimezone string `mapstructure:"CLINIC_TIMEZONE"`

	KafkaBrokers   string `mapstructure:"KAFKA_BROKERS"`
	KafkaDoseTopic string `mapstructure:"KAFKA_DOSE_TOPIC"`
	KafkaGroupID   string `mapstructure:"KAFKA_GROUP_ID"`

	OTelEnabled  bool   `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint string `mapstructure:"OTEL_ENDPOINT"`

	BreakerMaxFailures uint32        `mapstructure:"BREAKER_MAX_FAILURES"`
	BreakerOpenTimeout time.Duration `mapstructure:"BREAKER_OPEN_TIMEOUT"`
}

var keys = []string{
	"PORT", "ENV", "DB_DSN",
	"LOG_LEVEL", "LOG_FORMAT", "APP_NAME",
	"AUTH_MODE", "AUTH_JWT_SECRET", "AUTH_BASE_URL", "AUTH_API_KEY",
	"CLINIC_TIMEZONE",
	"KAFKA_BROKERS", "KAFKA_DOSE_TOPIC", "KAFKA_GROUP_ID",
	"OTEL_ENABLED", "OTEL_ENDPOINT",
	"BREAKER_MAX_FAILURES", "BREAKER_OPEN_TIMEOUT",
}

// Load lee env (y .env si existe). DB_DSN vacío => repos in-memory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_NAME", "vet-discharge-portal")
	v.SetDefault("AUTH_MODE", AuthModeDev)
	v.SetDefault("CLINIC_TIMEZONE", "UTC")
	v.SetDefault("KAFKA_DOSE_TOPIC", "dose-events")
	v.SetDefault("KAFKA_GROUP_ID", "vet-portal-doses")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_ENDPOINT", "localhost:4317")
	v.SetDefault("BREAKER_MAX_FAILURES", 5)
	v.SetDefault("BREAKER_OPEN_TIMEOUT", "30s")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env es opcional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AuthMode {
	case AuthModeDev:
	case AuthModeJWT:
		if strings.TrimSpace(c.AuthJWTSecret) == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE=%s", AuthModeJWT)
		}
	case AuthModeHosted:
		if strings.TrimSpace(c.AuthBaseURL) == "" || strings.TrimSpace(c.AuthAPIKey) == "" {
			return fmt.Errorf("AUTH_BASE_URL and AUTH_API_KEY are required when AUTH_MODE=%s", AuthModeHosted)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if _, err := time.LoadLocation(c.ClinicTimezone); err != nil {
		return fmt.Errorf("invalid CLINIC_TIMEZONE: %w", err)
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location devuelve la zona horaria de la clínica (define el "día calendario").
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Brokers parsea KAFKA_BROKERS (CSV).
func (c *Config) Brokers() []string {
	out := make([]string, 0)
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
