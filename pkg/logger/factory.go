package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Deployment environments recognized by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Format represents logger output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Redacted replaces the value of sensitive attributes.
const Redacted = "[REDACTED]"

// DefaultRedactedKeys are attribute keys whose values never reach the output.
// Matching is case-insensitive.
var DefaultRedactedKeys = []string{"token", "api_key", "authorization", "secret", "hash_secret", "password"}

type preset struct {
	level  slog.Level
	format Format
}

var presets = map[string]preset{
	EnvDevelopment: {level: slog.LevelDebug, format: FormatText},
	EnvStaging:     {level: slog.LevelInfo, format: FormatJSON},
	EnvProduction:  {level: slog.LevelInfo, format: FormatJSON},
}

var envAliases = map[string]string{
	"dev":   EnvDevelopment,
	"local": EnvDevelopment,
	"stage": EnvStaging,
	"prod":  EnvProduction,
}

// Option configures logger creation.
type Option func(*config)

func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat sets output format. Panics on an unknown format.
func WithFormat(f Format) Option {
	return func(c *config) {
		switch f {
		case FormatJSON, FormatText:
			c.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

func WithTextFormatter() Option {
	return WithFormat(FormatText)
}

func WithJSONFormatter() Option {
	return WithFormat(FormatJSON)
}

// WithOutput sets the destination. Nil is ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// WithContextExtractors registers functions that add attributes from the
// context passed to the *Context logging methods.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		c.extractors = append(c.extractors, extractors...)
	}
}

// WithRedactedKeys adds attribute keys to redact on top of DefaultRedactedKeys.
func WithRedactedKeys(keys ...string) Option {
	return func(c *config) {
		for _, k := range keys {
			c.redact[strings.ToLower(k)] = struct{}{}
		}
	}
}

// WithoutRedaction disables redaction entirely. Intended for tests.
func WithoutRedaction() Option {
	return func(c *config) {
		c.redact = map[string]struct{}{}
	}
}

func WithDevelopment(service string) Option {
	return withPreset(EnvDevelopment, service)
}

func WithStaging(service string) Option {
	return withPreset(EnvStaging, service)
}

func WithProduction(service string) Option {
	return withPreset(EnvProduction, service)
}

// WithEnvironment applies the preset for env. Unknown values fall back to
// development.
func WithEnvironment(env, service string) Option {
	name := strings.ToLower(strings.TrimSpace(env))
	if alias, ok := envAliases[name]; ok {
		name = alias
	}
	if _, ok := presets[name]; !ok {
		name = EnvDevelopment
	}
	return withPreset(name, service)
}

func withPreset(env, service string) Option {
	return func(c *config) {
		if service == "" {
			return
		}
		p := presets[env]
		c.level = p.level
		c.format = p.format
		c.attrs = append(c.attrs,
			slog.String("service", service),
			slog.String("env", env),
		)
	}
}

// ParseLevel accepts slog level names (debug, info, warn, error), optionally
// with an offset such as "info+2".
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("logger: invalid level %q: %w", s, err)
	}
	return lvl, nil
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

type config struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
	redact     map[string]struct{}
}

func defaultConfig() *config {
	redact := make(map[string]struct{}, len(DefaultRedactedKeys))
	for _, k := range DefaultRedactedKeys {
		redact[k] = struct{}{}
	}
	return &config{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
		redact: redact,
	}
}

func (c *config) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := c.redact[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// New builds a *slog.Logger. Defaults: JSON to stdout at info level with
// credential redaction enabled.
func New(opts ...Option) *slog.Logger {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	if len(cfg.redact) > 0 {
		handlerOpts.ReplaceAttr = cfg.replaceAttr
	}

	var handler slog.Handler
	if cfg.format == FormatText {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	}

	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}

	return slog.New(NewContextHandler(handler, cfg.extractors...))
}
