package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	AWS         AWSConfig         `mapstructure:"aws" validate:"required"`
	Store       StoreConfig       `mapstructure:"store" validate:"required"`
	Attachments AttachmentsConfig `mapstructure:"attachments" validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
// Port is only used when the API runs outside Lambda.
type ServerConfig struct {
	Port     int    `mapstructure:"port" default:"8080" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" default:"info" validate:"required,oneof=debug info warn error"`
}

// AWSConfig contains settings shared by the AWS service clients.
type AWSConfig struct {
	Region string `mapstructure:"region" default:"us-east-1" validate:"required"`
	// Endpoint overrides the service endpoint, e.g. for localstack.
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

// StoreConfig selects and configures the task store backend.
type StoreConfig struct {
	Driver      string `mapstructure:"driver" default:"dynamodb" validate:"required,oneof=dynamodb postgres"`
	TableName   string `mapstructure:"table_name" validate:"required_if=Driver dynamodb"`
	DatabaseURL string `mapstructure:"database_url" secret:"true" validate:"required_if=Driver postgres"`
}

// AttachmentsConfig contains the object store settings for task attachments.
type AttachmentsConfig struct {
	BucketName           string `mapstructure:"bucket_name" validate:"required"`
	URLExpirationSeconds int    `mapstructure:"url_expiration_seconds" default:"300" validate:"gt=0,lte=604800"`
	// RequireExistingTask issues upload URLs only for tasks that exist.
	// When false, URLs are issued only for task IDs with no stored task.
	RequireExistingTask bool `mapstructure:"require_existing_task"`
}

// URLExpiration returns the upload URL lifetime.
func (c AttachmentsConfig) URLExpiration() time.Duration {
	return time.Duration(c.URLExpirationSeconds) * time.Second
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWKSURL             string `mapstructure:"jwks_url" validate:"required,url"`
	FetchTimeoutSeconds int    `mapstructure:"fetch_timeout_seconds" default:"10" validate:"gt=0"`
	// Issuer and Audience are checked only when set.
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
	LeewaySeconds int    `mapstructure:"leeway_seconds" validate:"gte=0"`
}

// FetchTimeout returns the JWKS fetch timeout.
func (c AuthConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Leeway returns the allowed clock skew for time based claims.
func (c AuthConfig) Leeway() time.Duration {
	return time.Duration(c.LeewaySeconds) * time.Second
}
