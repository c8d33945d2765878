// Package config loads this resolver's runtime configuration from
// environment variables and command-line flags.
package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds this resolver's runtime configuration.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod". It controls
	// whether logging uses the development or production zap encoder.
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel is the minimum level emitted: "debug", "info", "warn", or
	// "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the UDP port the resolver listens on. 0 lets the kernel
	// choose an ephemeral port (used in tests); otherwise it must fall in
	// the registered high range [32768, 61000].
	Port int `koanf:"port" validate:"listenport"`

	// MaxRecursion bounds the number of upstream queries a single client
	// request may trigger across its full iterative descent, including any
	// CNAME restarts.
	MaxRecursion int `koanf:"max_recursion" validate:"required,gte=1"`
}

// DefaultAppConfig holds the configuration applied before environment
// variables and flags are layered on top.
var DefaultAppConfig = AppConfig{
	Env:          "prod",
	LogLevel:     "info",
	Port:         0,
	MaxRecursion: 1000,
}

// validListenPort implements the "listenport" validation tag: 0 (ephemeral,
// kernel-assigned) or any port in the registered high range this resolver
// is deployed into.
func validListenPort(fl validator.FieldLevel) bool {
	p := fl.Field().Int()
	return p == 0 || (p >= 32768 && p <= 61000)
}

// envLoader loads environment variables prefixed "RRDNS_", lower-cased with
// the prefix stripped, e.g. RRDNS_LOG_LEVEL becomes "log_level". It can be
// mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "RRDNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "RRDNS_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DefaultAppConfig into the provided Koanf instance
// using the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil)
}

// registerValidation registers the "listenport" validation tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("listenport", validListenPort)
}

// Load builds an AppConfig from defaults, then environment variables, then
// the command-line flags in args (typically os.Args[1:]), in that order of
// increasing precedence, and validates the result.
func Load(args []string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := applyFlags(&cfg, args); err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// applyFlags parses args and overlays the --port flag onto cfg. A flag
// takes precedence over whatever the environment set.
func applyFlags(cfg *AppConfig, args []string) error {
	fs := flag.NewFlagSet("ncsdnsd", flag.ContinueOnError)
	port := fs.Int("port", cfg.Port, "UDP port to listen on (0 for an ephemeral port, or [32768, 61000])")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}
	cfg.Port = *port
	return nil
}
