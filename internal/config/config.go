package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brewstack/brewstack/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Payment    PaymentConfig    `validate:"required"`
	Billing    BillingConfig    `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
	AutoMigrate            bool
}

// PaymentConfig holds the payment gateway integration settings
type PaymentConfig struct {
	// WebhookSecret is the shared secret used to verify gateway signatures
	WebhookSecret string `validate:"required"`
}

// BillingConfig holds billing policy knobs
type BillingConfig struct {
	// OverchargeThreshold is the tolerance in minor currency units before a
	// mismatch between charged and correct amounts triggers compensation
	OverchargeThreshold int64
	// SweeperBatchSize caps how many due subscriptions one sweeper run promotes
	SweeperBatchSize int
}

// DefaultOverchargeThreshold is applied when the config leaves it zero.
const DefaultOverchargeThreshold = 1000

func (c BillingConfig) Threshold() decimal.Decimal {
	if c.OverchargeThreshold <= 0 {
		return decimal.NewFromInt(DefaultOverchargeThreshold)
	}
	return decimal.NewFromInt(c.OverchargeThreshold)
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/brewstack")

	v.SetEnvPrefix("BREWSTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests. Not used by the server entry point.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Payment:    PaymentConfig{WebhookSecret: "local-webhook-secret"},
		Billing: BillingConfig{
			OverchargeThreshold: DefaultOverchargeThreshold,
			SweeperBatchSize:    100,
		},
	}
}
