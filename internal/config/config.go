package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Fixed per-gate charges applied to new expenses when the submitter
	// leaves them blank, and the per-day road tax rate.
	DefaultGateCharge string `env:"DEFAULT_GATE_CHARGE" envDefault:"50.00"`
	RoadTaxRate       string `env:"ROAD_TAX_RATE" envDefault:"50.00"`

	// Prefix for generated tally voucher numbers on finalized expenses.
	TallyVoucherPrefix string `env:"TALLY_VOUCHER_PREFIX" envDefault:"PE-"`

	// Audit log rows kept per subject by the retention trim.
	AuditKeepCount int `env:"AUDIT_KEEP_COUNT" envDefault:"10"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
