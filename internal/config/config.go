package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type BillingConfig struct {
	DefaultTaxRate   decimal.Decimal
	DefaultUnitPrice decimal.Decimal
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Billing     BillingConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
	}

	taxRate, err := parseDecimal(v.GetString("BILLING_DEFAULT_TAX_RATE"), "0.16")
	if err != nil {
		return nil, fmt.Errorf("BILLING_DEFAULT_TAX_RATE: %w", err)
	}
	cfg.Billing.DefaultTaxRate = taxRate

	unitPrice, err := parseDecimal(v.GetString("BILLING_DEFAULT_UNIT_PRICE"), "0")
	if err != nil {
		return nil, fmt.Errorf("BILLING_DEFAULT_UNIT_PRICE: %w", err)
	}
	cfg.Billing.DefaultUnitPrice = unitPrice

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Billing.DefaultTaxRate.IsNegative() {
		return fmt.Errorf("BILLING_DEFAULT_TAX_RATE must not be negative")
	}
	return nil
}

func parseDecimal(raw, fallback string) (decimal.Decimal, error) {
	if raw == "" {
		raw = fallback
	}
	return decimal.NewFromString(raw)
}
