package config

import (
	"github.com/RyzenMagsino/Carwash/pkg/config"
)

// ServiceConfig holds all configuration for the scheduling service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig
	RedisConfig config.RedisConfig
}

// Load reads configuration from environment variables with the CARWASH prefix.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("CARWASH")
	if err != nil {
		return nil, err
	}

	jwtCfg, err := config.LoadJWTConfig(v)
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   jwtCfg,
		KafkaConfig: config.LoadKafkaConfig(v),
		RedisConfig: config.LoadRedisConfig(v),
	}, nil
}
