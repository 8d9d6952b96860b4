// Package config provides application configuration loading and management.
package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env  string `mapstructure:"APP_ENV"`
	Port string `mapstructure:"PORT"`

	DiscordToken        string        `mapstructure:"DISCORD_TOKEN"`
	GuildID             string        `mapstructure:"GUILD_ID"`
	ApplicationChannel  string        `mapstructure:"APP_CHANNEL_ID"`
	AuditChannel        string        `mapstructure:"AUDIT_CHANNEL_ID"`
	BlacklistChannel    string        `mapstructure:"BLACKLIST_CHANNEL_ID"`
	DecisionLogChannel  string        `mapstructure:"LEADERS_LOG_CHANNEL_ID"`
	ReviewerRoles       string        `mapstructure:"ALLOWED_ROLES"`
	AcceptRoleID        string        `mapstructure:"ACCEPT_ROLE_ID"`
	CollaboratorTimeout time.Duration `mapstructure:"COLLABORATOR_TIMEOUT"`

	BlacklistFile  string        `mapstructure:"BLACKLIST_FILE"`
	SweepInterval  time.Duration `mapstructure:"BLACKLIST_SWEEP_INTERVAL"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	WebhookSecret  string        `mapstructure:"WEBHOOK_SECRET"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	AllowedOrigins string        `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string        `mapstructure:"FEATURE_FLAGS"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env != "" && env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Every key needs a default so AutomaticEnv values reach Unmarshal.
func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "3000")
	viper.SetDefault("DISCORD_TOKEN", "")
	viper.SetDefault("GUILD_ID", "")
	viper.SetDefault("APP_CHANNEL_ID", "")
	viper.SetDefault("AUDIT_CHANNEL_ID", "")
	viper.SetDefault("BLACKLIST_CHANNEL_ID", "")
	viper.SetDefault("LEADERS_LOG_CHANNEL_ID", "")
	viper.SetDefault("ALLOWED_ROLES", "")
	viper.SetDefault("ACCEPT_ROLE_ID", "")
	viper.SetDefault("COLLABORATOR_TIMEOUT", "10s")
	viper.SetDefault("BLACKLIST_FILE", "./blacklist.json")
	viper.SetDefault("BLACKLIST_SWEEP_INTERVAL", "5m")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	viper.SetDefault("FEATURE_FLAGS", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// ReviewerRoleIDs splits ALLOWED_ROLES into role ids.
func (c *Config) ReviewerRoleIDs() []string {
	return splitCSV(c.ReviewerRoles)
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	return splitCSV(c.AllowedOrigins)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.BlacklistFile == "" {
		return errors.New("BLACKLIST_FILE is required")
	}
	if c.SweepInterval <= 0 {
		return errors.New("BLACKLIST_SWEEP_INTERVAL must be positive")
	}
	if c.CollaboratorTimeout <= 0 {
		return errors.New("COLLABORATOR_TIMEOUT must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// RequireDiscord checks the settings the bot needs to connect and route applications.
func (c *Config) RequireDiscord() error {
	var missing []string
	if c.DiscordToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if c.GuildID == "" {
		missing = append(missing, "GUILD_ID")
	}
	if c.ApplicationChannel == "" {
		missing = append(missing, "APP_CHANNEL_ID")
	}
	if len(c.ReviewerRoleIDs()) == 0 {
		missing = append(missing, "ALLOWED_ROLES")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

type contextKey struct{}

// WithContext attaches cfg to ctx for command handlers.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext returns the config stored by WithContext, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}
