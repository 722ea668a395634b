// Package config loads per-function settings from the environment, an
// optional YAML file and SSM Parameter Store.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// SettingsFileEnv names the optional YAML overlay.
const SettingsFileEnv = "SETTINGS_FILE"

// Base holds the settings every function reads. Embed it with
// `koanf:",squash"` into a function's own settings struct.
type Base struct {
	ServiceName    string `koanf:"service_name"`
	Environment    string `koanf:"environment"`
	LogLevel       string `koanf:"log_level"`
	AWSRegion      string `koanf:"aws_region"`
	AWSEndpointURL string `koanf:"aws_endpoint_url"`

	EnableTracing bool `koanf:"enable_tracing"`

	// Auth and dispatch policies, permissive unless set.
	AuthRequireToken      bool `koanf:"auth_require_token"`
	AuthRejectMalformed   bool `koanf:"auth_reject_malformed"`
	DispatchRejectUnknown bool `koanf:"dispatch_reject_unknown"`
}

// DefaultBase is applied before any source is read.
func DefaultBase(serviceName string) Base {
	return Base{
		ServiceName: serviceName,
		Environment: "production",
		LogLevel:    "info",
	}
}

// Settings is implemented by every settings struct embedding Base.
type Settings interface {
	BaseSettings() *Base
}

// BaseSettings returns the embedded base settings.
func (b *Base) BaseSettings() *Base {
	return b
}

// IsDevelopment checks if running in development mode
func (b Base) IsDevelopment() bool {
	return b.Environment == "development" || b.Environment == "local"
}

// IsProduction checks if running in production mode
func (b Base) IsProduction() bool {
	return b.Environment == "production"
}

// Seconds is a duration configured as a whole number of seconds.
type Seconds int

// Duration converts s to a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s) * time.Second
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	file     string
	resolver ParameterResolver
}

// WithSettingsFile overlays the YAML file at path below the environment.
func WithSettingsFile(path string) Option {
	return func(l *loader) { l.file = path }
}

// WithResolver resolves "ssm:" prefixed values through r.
func WithResolver(r ParameterResolver) Option {
	return func(l *loader) { l.resolver = r }
}

// Load fills target, a pointer to a settings struct with koanf tags, and
// validates it. Values already set in target are defaults. Keys are the
// lowercased environment variable names.
func Load(ctx context.Context, target any, opts ...Option) error {
	l := &loader{file: os.Getenv(SettingsFileEnv)}
	for _, opt := range opts {
		opt(l)
	}

	k := koanf.New(".")

	if l.file != "" {
		if err := k.Load(file.Provider(l.file), yaml.Parser()); err != nil {
			return fmt.Errorf("could not load settings file %s: %w", l.file, err)
		}
	}

	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return fmt.Errorf("could not load environment: %w", err)
	}

	if err := resolveParameters(ctx, k, l.resolver); err != nil {
		return err
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("could not unmarshal settings: %w", err)
	}

	if err := validator.New().Struct(target); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}
	return nil
}

// MustLoad is Load for main packages: a failure is fatal.
func MustLoad(ctx context.Context, target any, logger *zap.Logger, opts ...Option) {
	if err := Load(ctx, target, opts...); err != nil {
		logger.Fatal("Could not load settings", zap.Error(err))
	}
}
