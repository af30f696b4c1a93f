package config

import (
	"os"
)

type Config struct {
	Server ServerConfig
	Log    LogConfig
}

type ServerConfig struct {
	Address string
}

type LogConfig struct {
	Level string
}

func LoadConfig() *Config {
	address := os.Getenv("SERVER_ADDRESS")
	if address == "" {
		address = ":8080"
	}

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	return &Config{
		Server: ServerConfig{
			Address: address,
		},
		Log: LogConfig{
			Level: level,
		},
	}
}
