/**
 * @description
 * This package handles the configuration management for the recharge service. It
 * uses the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the recharge service.
// These values are loaded from environment variables. Monetary values are in fils.
type Config struct {
	ServerPort                     string `mapstructure:"SERVER_PORT"`
	DatabaseURL                    string `mapstructure:"DATABASE_URL"`
	RedisURL                       string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix           string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                    string `mapstructure:"RABBITMQ_URL"`
	TopUpEventExchange             string `mapstructure:"TOPUP_EVENT_EXCHANGE"`
	BalanceServiceURL              string `mapstructure:"BALANCE_SERVICE_URL"`
	BalanceServiceInternalAPIKey   string `mapstructure:"BALANCE_SERVICE_INTERNAL_API_KEY"`
	JWTSecret                      string `mapstructure:"JWT_SECRET"`
	JWTTokenTTLMinutes             int    `mapstructure:"JWT_TOKEN_TTL_MINUTES"`
	ChargeFeeFils                  int64  `mapstructure:"CHARGE_FEE_FILS"`
	UserMonthlyTopUpLimitFils      int64  `mapstructure:"USER_MONTHLY_TOPUP_LIMIT_FILS"`
	BeneficiaryMonthlyTopUpLimit   int64  `mapstructure:"BENEFICIARY_MONTHLY_TOPUP_LIMIT_FILS"`
	TopUpRateLimitPerMinute        int    `mapstructure:"TOPUP_RATE_LIMIT_PER_MINUTE"`
	ReconcileIntervalSeconds       int    `mapstructure:"RECONCILE_INTERVAL_SECONDS"`
	ReconcileOrphanAgeSeconds      int    `mapstructure:"RECONCILE_ORPHAN_AGE_SECONDS"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8081")
	viper.SetDefault("TOPUP_EVENT_EXCHANGE", "topup.events")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "topup:rate_limit")
	viper.SetDefault("JWT_TOKEN_TTL_MINUTES", 60)
	viper.SetDefault("CHARGE_FEE_FILS", 100)
	viper.SetDefault("USER_MONTHLY_TOPUP_LIMIT_FILS", 50000)
	viper.SetDefault("BENEFICIARY_MONTHLY_TOPUP_LIMIT_FILS", 30000)
	viper.SetDefault("TOPUP_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("RECONCILE_INTERVAL_SECONDS", 60)
	viper.SetDefault("RECONCILE_ORPHAN_AGE_SECONDS", 120)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("TOPUP_EVENT_EXCHANGE")
	_ = viper.BindEnv("BALANCE_SERVICE_URL")
	_ = viper.BindEnv("BALANCE_SERVICE_INTERNAL_API_KEY", "BALANCE_SERVICE_INTERNAL_API_KEY", "INTERNAL_API_KEY")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("JWT_TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("CHARGE_FEE_FILS")
	_ = viper.BindEnv("USER_MONTHLY_TOPUP_LIMIT_FILS")
	_ = viper.BindEnv("BENEFICIARY_MONTHLY_TOPUP_LIMIT_FILS")
	_ = viper.BindEnv("TOPUP_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("RECONCILE_INTERVAL_SECONDS")
	_ = viper.BindEnv("RECONCILE_ORPHAN_AGE_SECONDS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "topup:rate_limit"
	}
	config.BalanceServiceInternalAPIKey = strings.TrimSpace(config.BalanceServiceInternalAPIKey)

	if config.ChargeFeeFils < 0 {
		log.Printf("level=warn component=config msg=\"negative charge fee configured; coercing to zero\" fee_fils=%d", config.ChargeFeeFils)
		config.ChargeFeeFils = 0
	}
	if config.UserMonthlyTopUpLimitFils < 0 {
		log.Printf("level=warn component=config msg=\"negative user monthly limit configured; coercing to zero\" limit_fils=%d", config.UserMonthlyTopUpLimitFils)
		config.UserMonthlyTopUpLimitFils = 0
	}
	if config.BeneficiaryMonthlyTopUpLimit < 0 {
		log.Printf("level=warn component=config msg=\"negative beneficiary monthly limit configured; coercing to zero\" limit_fils=%d", config.BeneficiaryMonthlyTopUpLimit)
		config.BeneficiaryMonthlyTopUpLimit = 0
	}
	if config.JWTTokenTTLMinutes <= 0 {
		config.JWTTokenTTLMinutes = 60
	}
	if config.ReconcileIntervalSeconds <= 0 {
		config.ReconcileIntervalSeconds = 60
	}
	if config.ReconcileOrphanAgeSeconds <= 0 {
		config.ReconcileOrphanAgeSeconds = 120
	}

	return
}
