// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	PublicURL   string `yaml:"public_url"` // base URL the processor calls back on
	AdminAPIKey string `yaml:"admin_api_key"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`  // per-correlation-key lock lifetime
	EventTTL time.Duration `yaml:"event_ttl"` // duplicate event-id window
}

type DiscordConfig struct {
	Token                        string `yaml:"token"`
	PaymentLogChannel            string `yaml:"payment_log_channel"`
	DashboardChannel             string `yaml:"dashboard_channel"`
	WelcomeMessage               string `yaml:"welcome_message"`
	PaymentSuccessMessage        string `yaml:"payment_success_message"`
	SubscriptionCancelledMessage string `yaml:"subscription_cancelled_message"`
	PaymentWarningMessage        string `yaml:"payment_warning_message"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type FeesConfig struct {
	PlatformBps int64 `yaml:"platform_bps"` // default 300 = 3%
}

// TierPrice is one purchasable variant of a tier.
type TierPrice struct {
	PriceRef    string `yaml:"price_ref"`    // processor price id
	AmountCents int64  `yaml:"amount_cents"` // display amount, minor units
}

type TierConfig struct {
	Name        string    `yaml:"name"`
	RoleRef     string    `yaml:"role_ref"` // Discord role granted for this tier
	Description string    `yaml:"description"`
	OneTime     TierPrice `yaml:"one_time"`
	Monthly     TierPrice `yaml:"monthly"`
}

type AuditorConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	Server   ServerConfig          `yaml:"server"`
	Log      LogConfig             `yaml:"log"`
	Database DatabaseConfig        `yaml:"database"`
	Redis    RedisConfig           `yaml:"redis"`
	Discord  DiscordConfig         `yaml:"discord"`
	Stripe   StripeConfig          `yaml:"stripe"`
	Fees     FeesConfig            `yaml:"fees"`
	Tiers    map[string]TierConfig `yaml:"tiers"`
	Auditor  AuditorConfig         `yaml:"auditor"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Fees.PlatformBps <= 0 {
		cfg.Fees.PlatformBps = 300
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 30 * time.Second
	}
	if cfg.Redis.EventTTL <= 0 {
		cfg.Redis.EventTTL = 24 * time.Hour
	}
	if cfg.Auditor.Interval <= 0 {
		cfg.Auditor.Interval = 15 * time.Minute
	}
	if cfg.Discord.WelcomeMessage == "" {
		cfg.Discord.WelcomeMessage = "Hey {username}! Welcome to our community.\n\nTo get started, please select your membership tier below."
	}
	if cfg.Discord.PaymentSuccessMessage == "" {
		cfg.Discord.PaymentSuccessMessage = "Payment successful! Your **{tier}** role has been activated.\n\nThank you for your support!"
	}
	if cfg.Discord.SubscriptionCancelledMessage == "" {
		cfg.Discord.SubscriptionCancelledMessage = "Your subscription has been cancelled and your **{tier}** role has been removed.\n\nWe hope to see you again!"
	}
	if cfg.Discord.PaymentWarningMessage == "" {
		cfg.Discord.PaymentWarningMessage = "Your subscription payment failed.\n\nPlease update your payment method to avoid losing access to your **{tier}** role."
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Stripe.SecretKey == "" {
		return nil, errors.New("stripe.secret_key is required")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return nil, errors.New("stripe.webhook_secret is required")
	}
	if cfg.Discord.Token == "" && !dev {
		return nil, errors.New("discord.token is required")
	}
	if len(cfg.Tiers) == 0 {
		return nil, errors.New("at least one tier must be configured")
	}
	for key, tier := range cfg.Tiers {
		if tier.RoleRef == "" {
			return nil, fmt.Errorf("tiers.%s.role_ref is required", key)
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
