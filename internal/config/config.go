// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TODOS"

type Config struct {
	APIPort   string
	DataFile  string
	StaticDir string

	RedisAddr string
	RedisDB   int

	KafkaBroker  string
	KafkaTopic   string
	KafkaLogFile string

	LogLevel  string
	LogFormat string
}

func (c Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func (c Config) EventsEnabled() bool {
	return c.KafkaBroker != "" && c.KafkaTopic != ""
}

// Load reads an optional .env file from envFile and then the TODOS_*
// environment. An absent .env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("API_PORT", "3000")
	v.SetDefault("DATA_FILE", "todos.json")
	v.SetDefault("STATIC_DIR", "public")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	cfg := Config{
		APIPort:      v.GetString("API_PORT"),
		DataFile:     v.GetString("DATA_FILE"),
		StaticDir:    v.GetString("STATIC_DIR"),
		RedisAddr:    v.GetString("REDIS_ADDR"),
		RedisDB:      v.GetInt("REDIS_DB"),
		KafkaBroker:  v.GetString("KAFKA_BROKER"),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),
		KafkaLogFile: v.GetString("KAFKA_LOG_FILE"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		LogFormat:    v.GetString("LOG_FORMAT"),
	}

	if cfg.APIPort == "" || cfg.DataFile == "" {
		return Config{}, errors.New("api.port or data.file is not configured")
	}
	if (cfg.KafkaBroker == "") != (cfg.KafkaTopic == "") {
		return Config{}, errors.New("kafka.broker and kafka.topic must be set together")
	}

	return cfg, nil
}
