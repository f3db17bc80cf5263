package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"freework/pkg/config"
)

type Config struct {
	DB     config.DBConfig     `yaml:"db"`
	MQ     config.MQConfig     `yaml:"mq"`
	Redis  config.RedisConfig  `yaml:"redis"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	Server config.ServerConfig `yaml:"server"`
}

// Load reads config/base.yaml plus the CONFIG_ENV overlay and applies
// environment-variable overrides on top.
func Load() *Config {
	merged, err := config.LoadMerged(config.GetConfigEnv(), configDir())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	data, err := yaml.Marshal(merged)
	if err != nil {
		log.Fatalf("failed to remarshal config: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	return &cfg
}

func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}
