package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Upload policies for files whose suffix is not a supported document type.
const (
	UploadPolicySkip   = "skip"
	UploadPolicyReject = "reject"
)

type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	GeminiBaseURL         string `mapstructure:"GEMINI_BASE_URL"`
	GeminiModel           string `mapstructure:"GEMINI_MODEL"`
	RequestTimeoutSeconds int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	UploadPolicy          string `mapstructure:"UPLOAD_POLICY"`
	DefaultLanguage       string `mapstructure:"DEFAULT_LANGUAGE"`
	SessionTTLMinutes     int    `mapstructure:"SESSION_TTL_MINUTES"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	StaticDir             string `mapstructure:"STATIC_DIR"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 120)
	viper.SetDefault("UPLOAD_POLICY", UploadPolicySkip)
	viper.SetDefault("DEFAULT_LANGUAGE", "english")
	viper.SetDefault("SESSION_TTL_MINUTES", 60)
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("STATIC_DIR", "./web/static")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./backend")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.UploadPolicy != UploadPolicySkip && cfg.UploadPolicy != UploadPolicyReject {
		return nil, fmt.Errorf("invalid UPLOAD_POLICY %q: must be %q or %q",
			cfg.UploadPolicy, UploadPolicySkip, UploadPolicyReject)
	}

	return &cfg, nil
}
