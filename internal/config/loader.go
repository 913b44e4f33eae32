package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc reports the value of a named setting and whether it is set.
// os.LookupEnv satisfies it.
type LookupFunc func(name string) (string, bool)

// Load reads the configuration from the process environment, then validates it.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the configuration through lookup, then validates it. Empty
// values count as unset.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	if err := bind(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// binding is the parsed form of a field's env, envAlt, default and
// required tags.
type binding struct {
	names    []string
	fallback string
	required bool
}

func bindingFor(f reflect.StructField) (binding, bool) {
	name := f.Tag.Get("env")
	if name == "" {
		return binding{}, false
	}
	b := binding{
		names:    []string{name},
		fallback: f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
	}
	if alt := f.Tag.Get("envAlt"); alt != "" {
		b.names = append(b.names, alt)
	}
	return b, true
}

// resolve returns the first non-empty value among the binding's names, or
// the default. ok is false when nothing applies.
func (b binding) resolve(lookup LookupFunc) (value string, ok bool, err error) {
	for _, name := range b.names {
		if v, set := lookup(name); set && v != "" {
			return v, true, nil
		}
	}
	if b.required {
		return "", false, fmt.Errorf("required environment variable %s is not set", b.names[0])
	}
	return b.fallback, b.fallback != "", nil
}

// bind fills the tagged fields of the struct v, descending into nested
// sections.
func bind(v reflect.Value, lookup LookupFunc) error {
	t := v.Type()
	for i := range t.NumField() {
		sf, fv := t.Field(i), v.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			if err := bind(fv, lookup); err != nil {
				return err
			}
			continue
		}

		b, tagged := bindingFor(sf)
		if !tagged {
			continue
		}
		raw, ok, err := b.resolve(lookup)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := assign(fv, raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", b.names[0], raw, err)
		}
	}
	return nil
}

var durationType = reflect.TypeFor[time.Duration]()

// assign parses raw into dst according to dst's type.
func assign(dst reflect.Value, raw string) error {
	if dst.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		dst.SetInt(int64(d))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		dst.SetInt(n)
	case reflect.Bool:
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		dst.SetBool(on)
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", dst.Type())
		}
		dst.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type: %s", dst.Type())
	}
	return nil
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for item := range strings.SplitSeq(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// problems accumulates validation failures.
type problems []string

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var p problems

	db := c.Database
	p.check(db.MaxConns >= db.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", db.MaxConns, db.MinConns)
	p.check(db.MaxConns > 0, "DB_MAX_CONNS must be positive")
	p.check(db.MinConns >= 0, "DB_MIN_CONNS must be non-negative")

	srv := c.Server
	p.check(srv.Port > 0 && srv.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", srv.Port)
	p.check(srv.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(srv.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	p.check(c.Export.Workers > 0, "EXPORT_WORKERS must be positive")
	p.check(c.Export.BatchSize > 0, "EXPORT_BATCH_SIZE must be positive")

	p.check(c.Parse.MaxFileSize > 0, "PARSE_MAX_FILE_SIZE must be positive")
	p.check(c.Parse.MaxConcurrent > 0, "PARSE_MAX_CONCURRENT must be positive")
	p.check(c.Parse.MaxWaitTime > 0, "PARSE_MAX_WAIT_TIME must be positive")

	p.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty")

	p.check(oneOf(c.Logging.Level, "debug", "info", "warn", "error"),
		"LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	p.check(oneOf(c.Logging.Format, "text", "json"),
		"LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)

	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if strings.EqualFold(s, o) {
			return true
		}
	}
	return false
}

const masked = "[MASKED]"

// String formats the configuration with the database URL and API keys
// masked.
func (c *Config) String() string {
	type plain Config
	r := plain(*c)
	if r.Database.URL != "" {
		r.Database.URL = masked
	}
	if len(r.Security.APIKeys) > 0 {
		r.Security.APIKeys = []string{masked}
	}
	return fmt.Sprintf("Config%+v", r)
}
