package config

import (
	"github.com/shareit/service-booking/internal/common/config"
)

// BookingPolicy holds the business rules left open to deployment choice.
type BookingPolicy struct {
	// AllowOwnerBooking lets an item's owner book their own item.
	AllowOwnerBooking bool
	// RejectOverlapping refuses a booking whose period intersects a WAITING
	// or APPROVED booking of the same item.
	RejectOverlapping bool
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port            string
	AppEnv          string
	MigrationsDir   string
	DBConfig        config.DatabaseConfig
	KafkaConfig     config.KafkaConfig
	RateLimitConfig config.RateLimitConfig
	Policy          BookingPolicy
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}
	v.SetDefault("DB_NAME", "shareit")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("POLICY_ALLOW_OWNER_BOOKING", false)
	v.SetDefault("POLICY_REJECT_OVERLAPPING", false)

	return &ServiceConfig{
		Port:            config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:          config.GetAppEnv(v),
		MigrationsDir:   v.GetString("MIGRATIONS_DIR"),
		DBConfig:        config.LoadDatabaseConfig(v, "DB_NAME"),
		KafkaConfig:     config.LoadKafkaConfig(v),
		RateLimitConfig: config.LoadRateLimitConfig(v),
		Policy: BookingPolicy{
			AllowOwnerBooking: v.GetBool("POLICY_ALLOW_OWNER_BOOKING"),
			RejectOverlapping: v.GetBool("POLICY_REJECT_OVERLAPPING"),
		},
	}, nil
}
