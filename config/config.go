// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import (
	"log"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type PostgresAuth struct {
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

type PostgresConfig struct {
	Host               string       `mapstructure:"host" validate:"required"`
	Port               int          `mapstructure:"port" validate:"required"`
	DBName             string       `mapstructure:"db_name" validate:"required"`
	Auth               PostgresAuth `mapstructure:"auth" validate:"required"`
	MaxOpenConnection  int          `mapstructure:"max_open_connection"`
	MaxIdealConnection int          `mapstructure:"max_ideal_connection"`
	SslMode            string       `mapstructure:"ssl_mode" validate:"required"`
}

type RedisConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required"`
	Password       string `mapstructure:"password"`
	Db             int    `mapstructure:"db"`
	MaxConnection  int    `mapstructure:"max_connection"`
	SessionTTLSecs int    `mapstructure:"session_ttl_seconds"`
}

type AssetStoreConfig struct {
	StorageType string `mapstructure:"storage_type" validate:"required,oneof=local s3"`
	StoragePath string `mapstructure:"storage_path" validate:"required"`
	Bucket      string `mapstructure:"bucket" validate:"required_if=StorageType s3"`
	Region      string `mapstructure:"region" validate:"required_if=StorageType s3"`
	Endpoint    string `mapstructure:"endpoint"`
}

type ElevenLabsConfig struct {
	ApiKey         string `mapstructure:"api_key" validate:"required"`
	BaseUrl        string `mapstructure:"base_url" validate:"required,url"`
	TTSModel       string `mapstructure:"tts_model" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type InterviewConfig struct {
	MinTotalSeconds int `mapstructure:"min_total_seconds" validate:"gt=0"`
	DemoMinSeconds  int `mapstructure:"demo_min_seconds" validate:"gt=0"`
	DemoMaxSeconds  int `mapstructure:"demo_max_seconds" validate:"gtfield=DemoMinSeconds"`
}

type ProcessingConfig struct {
	InitialIntervalMs int `mapstructure:"initial_interval_ms" validate:"gt=0"`
	MaxIntervalMs     int `mapstructure:"max_interval_ms" validate:"gtefield=InitialIntervalMs"`
	MaxWaitSeconds    int `mapstructure:"max_wait_seconds" validate:"gt=0"`
}

type BackgroundConfig struct {
	Workers     int `mapstructure:"workers" validate:"gt=0"`
	MaxAttempts int `mapstructure:"max_attempts" validate:"gt=0"`
}

// Application config structure
type AppConfig struct {
	Name               string `mapstructure:"service_name" validate:"required"`
	Version            string `mapstructure:"version" validate:"required"`
	Secret             string `mapstructure:"secret" validate:"required"`
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required"`
	LogLevel           string `mapstructure:"log_level" validate:"required"`
	LogPath            string `mapstructure:"log_path" validate:"required"`
	Env                string `mapstructure:"env"`
	CorsAllowedOrigins string `mapstructure:"cors_allowed_origins"`

	PostgresConfig   PostgresConfig   `mapstructure:"postgres" validate:"required"`
	RedisConfig      RedisConfig      `mapstructure:"redis" validate:"required"`
	AssetStoreConfig AssetStoreConfig `mapstructure:"asset_store" validate:"required"`
	ElevenLabsConfig ElevenLabsConfig `mapstructure:"elevenlabs" validate:"required"`
	InterviewConfig  InterviewConfig  `mapstructure:"interview" validate:"required"`
	ProcessingConfig ProcessingConfig `mapstructure:"processing" validate:"required"`
	BackgroundConfig BackgroundConfig `mapstructure:"background" validate:"required"`
}

// AllowedOrigins splits the comma separated CORS origin list.
func (cfg *AppConfig) AllowedOrigins() []string {
	if strings.TrimSpace(cfg.CorsAllowedOrigins) == "" {
		return []string{"*"}
	}
	parts := strings.Split(cfg.CorsAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil {
		log.Printf("Reading from env variables, config file not loaded: %v", err)
	}
	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// keeping watch on https://github.com/spf13/viper/issues/188
	v.SetDefault("SERVICE_NAME", "persona-api")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", os.TempDir())
	v.SetDefault("ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	// secrets have no usable default, registering the key lets env vars bind
	v.SetDefault("SECRET", "")

	v.SetDefault("POSTGRES__HOST", "localhost")
	v.SetDefault("POSTGRES__PORT", 5432)
	v.SetDefault("POSTGRES__DB_NAME", "<>")
	v.SetDefault("POSTGRES__AUTH__USER", "<>")
	v.SetDefault("POSTGRES__AUTH__PASSWORD", "<>")
	v.SetDefault("POSTGRES__MAX_OPEN_CONNECTION", 10)
	v.SetDefault("POSTGRES__MAX_IDEAL_CONNECTION", 10)
	v.SetDefault("POSTGRES__SSL_MODE", "disable")

	v.SetDefault("REDIS__HOST", "localhost")
	v.SetDefault("REDIS__PORT", 6379)
	v.SetDefault("REDIS__PASSWORD", "")
	v.SetDefault("REDIS__DB", 0)
	v.SetDefault("REDIS__MAX_CONNECTION", 10)
	v.SetDefault("REDIS__SESSION_TTL_SECONDS", 900)

	v.SetDefault("ASSET_STORE__STORAGE_TYPE", "local")
	v.SetDefault("ASSET_STORE__STORAGE_PATH", os.TempDir())
	v.SetDefault("ASSET_STORE__BUCKET", "")
	v.SetDefault("ASSET_STORE__REGION", "")
	v.SetDefault("ASSET_STORE__ENDPOINT", "")

	v.SetDefault("ELEVENLABS__API_KEY", "")
	v.SetDefault("ELEVENLABS__BASE_URL", "https://api.elevenlabs.io")
	v.SetDefault("ELEVENLABS__TTS_MODEL", "eleven_multilingual_v2")
	v.SetDefault("ELEVENLABS__TIMEOUT_SECONDS", 60)

	v.SetDefault("INTERVIEW__MIN_TOTAL_SECONDS", 600)
	v.SetDefault("INTERVIEW__DEMO_MIN_SECONDS", 10)
	v.SetDefault("INTERVIEW__DEMO_MAX_SECONDS", 30)

	v.SetDefault("PROCESSING__INITIAL_INTERVAL_MS", 500)
	v.SetDefault("PROCESSING__MAX_INTERVAL_MS", 5000)
	v.SetDefault("PROCESSING__MAX_WAIT_SECONDS", 30)

	v.SetDefault("BACKGROUND__WORKERS", 4)
	v.SetDefault("BACKGROUND__MAX_ATTEMPTS", 3)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
