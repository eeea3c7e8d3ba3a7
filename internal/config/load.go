package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variables, e.g. TODO_SERVER_PORT.
const EnvPrefix = "TODO"

// legacyEnv maps config keys to the environment variable names used by
// existing deployments. Prefixed names take precedence.
var legacyEnv = map[string]string{
	"store.table_name":                   "TODOS_TABLE",
	"attachments.bucket_name":            "ATTACHMENT_S3_BUCKET",
	"attachments.url_expiration_seconds": "SIGNED_URL_EXPIRATION",
	"auth.jwks_url":                      "JWKS_URL",
	"aws.region":                         "AWS_REGION",
}

// keys lists every config key so viper binds it to the environment
// even when no config file mentions it.
var keys = []string{
	"server.port",
	"server.log_level",
	"aws.region",
	"aws.endpoint",
	"store.driver",
	"store.table_name",
	"store.database_url",
	"attachments.bucket_name",
	"attachments.url_expiration_seconds",
	"attachments.require_existing_task",
	"auth.jwks_url",
	"auth.fetch_timeout_seconds",
	"auth.issuer",
	"auth.audience",
	"auth.leeway_seconds",
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files, and
// struct defaults fill anything left unset.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithViper(viper.New())
}

// LoadWithViper is Load with a caller supplied viper instance, so tests and
// tools can preload values or point at a specific config file.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	return load(v, Validate)
}

// LoadAuthorizer loads configuration for the authorizer function, which
// needs only the server and auth sections. The other sections are loaded
// but not validated.
func LoadAuthorizer() (*Config, error) {
	return load(viper.New(), ValidateAuthorizer)
}

func load(v *viper.Viper, validate func(*Config) error) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range keys {
		envNames := []string{envName(key)}
		if legacy, ok := legacyEnv[key]; ok {
			envNames = append(envNames, legacy)
		}
		if err := v.BindEnv(append([]string{key}, envNames...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ValidateAuthorizer checks the server and auth sections of cfg.
func ValidateAuthorizer(cfg *Config) error {
	validate := validator.New()
	for _, section := range []interface{}{&cfg.Server, &cfg.Auth} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
