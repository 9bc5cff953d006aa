// Package config provides the typed key/value configuration collaborator:
// YAML-backed storage with dotted-path lookup and per-call defaults,
// consumed at setup only.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is an immutable configuration snapshot.
type Config struct {
	values map[string]any
}

// New wraps an already-decoded value map.
func New(values map[string]any) *Config {
	if values == nil {
		values = map[string]any{}
	}
	return &Config{values: values}
}

// Load decodes a YAML document.
func Load(r io.Reader) (*Config, error) {
	var values map[string]any
	if err := yaml.NewDecoder(r).Decode(&values); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return New(values), nil
}

// LoadFile decodes a YAML file.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Has reports whether key is present. Dots descend into nested maps.
func (c *Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c *Config) lookup(key string) (any, bool) {
	var cur any = c.values
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Get returns the typed value at key, or an error when the key is missing
// or the value does not convert.
func Get[T any](c *Config, key string) (T, error) {
	var zero T
	v, ok := c.lookup(key)
	if !ok {
		return zero, fmt.Errorf("config: missing key %q", key)
	}
	out, err := convert[T](v)
	if err != nil {
		return zero, fmt.Errorf("config: key %q: %w", key, err)
	}
	return out, nil
}

// GetOr returns the typed value at key, or def when the key is absent.
// A present but malformed value is still an error.
func GetOr[T any](c *Config, key string, def T) (T, error) {
	if !c.Has(key) {
		return def, nil
	}
	return Get[T](c, key)
}

func convert[T any](v any) (T, error) {
	var zero T
	switch any(zero).(type) {
	case bool:
		if b, ok := v.(bool); ok {
			return any(b).(T), nil
		}
	case string:
		if s, ok := v.(string); ok {
			return any(s).(T), nil
		}
	case int:
		if i, ok := asInt64(v); ok {
			return any(int(i)).(T), nil
		}
	case uint32:
		if i, ok := asInt64(v); ok && i >= 0 {
			return any(uint32(i)).(T), nil
		}
	case float64:
		switch n := v.(type) {
		case float64:
			return any(n).(T), nil
		case int:
			return any(float64(n)).(T), nil
		case int64:
			return any(float64(n)).(T), nil
		}
	}
	return zero, fmt.Errorf("cannot use %T value %v as %T", v, v, zero)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	}
	return 0, false
}
