package qdrant

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Config points at an optional Qdrant collection that mirrors the chunk
// embeddings. An empty URL disables the mirror.
type Config struct {
	URL             string `yaml:"url"`
	Collection      string `yaml:"collection"`
	NamespacePrefix string `yaml:"namespace_prefix"`
	VectorDim       int    `yaml:"vector_dim"`
	APIKey          string `yaml:"api_key"`
}

func (c Config) Enabled() bool { return strings.TrimSpace(c.URL) != "" }

type ConfigErrorCode string

const (
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	switch e.Code {
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("invalid qdrant.url=%q; expected absolute URL like http://qdrant:6333", e.Value)
	case ConfigErrorMissingCollection:
		return "qdrant.collection is required when qdrant.url is set"
	case ConfigErrorInvalidVectorDim:
		return fmt.Sprintf("invalid qdrant.vector_dim=%q; expected positive integer", e.Value)
	default:
		return "invalid qdrant config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Normalize trims the fields and fills the namespace prefix.
func (c Config) Normalize() Config {
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	c.Collection = strings.TrimSpace(c.Collection)
	c.NamespacePrefix = strings.TrimSpace(c.NamespacePrefix)
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.NamespacePrefix == "" {
		c.NamespacePrefix = "ql"
	}
	return c
}

// ValidateConfig checks an enabled config. A disabled one is always valid.
func ValidateConfig(cfg Config) error {
	if !cfg.Enabled() {
		return nil
	}
	parsed, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: cfg.URL, Cause: err}
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	if cfg.VectorDim <= 0 {
		return &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: strconv.Itoa(cfg.VectorDim)}
	}
	return nil
}
