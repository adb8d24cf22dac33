package serde

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/qslv/common-kafka/v1/schema_registry"
	"gopkg.in/yaml.v3"
)

// Property keys understood by ConfigFromProperties.
const (
	// PropertySchemaPrefix keys populate Config.Schemas. A schema resource that
	// cannot be read fails NewSerializer; there is no fallback to the sidecar
	// or generated schema for that type.
	PropertySchemaPrefix        = "mapper.schema."
	PropertyMixinPrefix         = "mapper.mixins."
	PropertyRegistryURL         = "schema.registry.url"
	PropertyBasicAuthUserInfo   = "basic.auth.user.info"
	PropertyBearerAuthToken     = "bearer.auth.token"
	PropertyRegistryTimeout     = "schema.registry.timeout"
	PropertyAutoRegister        = "auto.register.schemas"
	PropertyIsKey               = "is.key"
	PropertySubjectNameStrategy = "subject.name.strategy"
)

// Config holds configuration for a Serializer or Deserializer.
type Config struct {
	// Registry configures the schema registry client built by the fx module.
	Registry schema_registry.Config `yaml:"registry"`

	// Schemas maps a canonical type name to the resource path of a schema
	// overriding both sidecar lookup and generation for that type. Entries
	// are read when the Serializer is built: a missing or invalid resource
	// fails construction instead of falling back to the sidecar or generated
	// schema.
	Schemas map[string]string `yaml:"schemas"`

	// Mixins maps a canonical type name to the name of a registered overlay.
	Mixins map[string]string `yaml:"mixins"`

	// IsKey selects the key subject ("<topic>-key") instead of the value subject.
	IsKey bool `yaml:"is_key" envconfig:"SERDE_IS_KEY"`

	// LookupOnly disables automatic registration: schema ids are looked up
	// and a schema missing from the registry fails serialization.
	LookupOnly bool `yaml:"lookup_only" envconfig:"SERDE_LOOKUP_ONLY"`

	// SubjectNameStrategy is "topic" (default), "record" or "topic_record".
	SubjectNameStrategy string `yaml:"subject_name_strategy" envconfig:"SERDE_SUBJECT_NAME_STRATEGY"`
}

// ConfigFromProperties builds a Config from flat properties such as
//
//	schema.registry.url=http://localhost:8081
//	auto.register.schemas=false
//	mapper.schema.model.AccountOpened=schemas/account_opened.avsc
//	mapper.mixins.model.AccountOpened=model.AccountOpenedMixin
//
// Unknown keys are ignored.
func ConfigFromProperties(props map[string]string) (Config, error) {
	cfg := Config{
		Schemas: make(map[string]string),
		Mixins:  make(map[string]string),
	}

	for key, value := range props {
		value = strings.TrimSpace(value)
		switch {
		case strings.HasPrefix(key, PropertySchemaPrefix):
			cfg.Schemas[strings.TrimPrefix(key, PropertySchemaPrefix)] = value
		case strings.HasPrefix(key, PropertyMixinPrefix):
			cfg.Mixins[strings.TrimPrefix(key, PropertyMixinPrefix)] = value
		}
	}

	cfg.Registry.URL = props[PropertyRegistryURL]
	cfg.Registry.Token = props[PropertyBearerAuthToken]
	if userInfo, ok := props[PropertyBasicAuthUserInfo]; ok && userInfo != "" {
		user, pass, found := strings.Cut(userInfo, ":")
		if !found {
			return Config{}, fmt.Errorf("%s must have the form user:password", PropertyBasicAuthUserInfo)
		}
		cfg.Registry.Username, cfg.Registry.Password = user, pass
	}
	if raw, ok := props[PropertyRegistryTimeout]; ok && raw != "" {
		timeout, err := parseTimeout(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", PropertyRegistryTimeout, err)
		}
		cfg.Registry.Timeout = timeout
	}

	autoRegister, err := parseBool(props, PropertyAutoRegister, true)
	if err != nil {
		return Config{}, err
	}
	cfg.LookupOnly = !autoRegister

	if cfg.IsKey, err = parseBool(props, PropertyIsKey, false); err != nil {
		return Config{}, err
	}

	cfg.SubjectNameStrategy = props[PropertySubjectNameStrategy]
	if _, err := schema_registry.SubjectNameStrategyByName(cfg.SubjectNameStrategy); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadProperties reads a YAML document and flattens nested maps into dotted
// keys, so
//
//	schema.registry:
//	  url: http://localhost:8081
//	mapper:
//	  schema:
//	    model.AccountOpened: schemas/account_opened.avsc
//
// yields "schema.registry.url" and "mapper.schema.model.AccountOpened".
// Sequences are joined with commas.
func LoadProperties(r io.Reader) (map[string]string, error) {
	var doc map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to parse properties: %w", err)
	}

	props := make(map[string]string)
	flatten("", doc, props)
	return props, nil
}

func flatten(prefix string, value interface{}, out map[string]string) {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}

	switch v := value.(type) {
	case map[string]interface{}:
		for key, child := range v {
			flatten(join(key), child, out)
		}
	case map[interface{}]interface{}:
		for key, child := range v {
			flatten(join(fmt.Sprint(key)), child, out)
		}
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
		out[prefix] = strings.Join(items, ",")
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(v)
	}
}

func parseBool(props map[string]string, key string, def bool) (bool, error) {
	raw, ok := props[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// parseTimeout accepts a Go duration ("5s") or plain milliseconds ("5000").
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}

// sortedKeys returns the keys of m in lexical order, for deterministic loading.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Logger is an interface that matches the common-kafka/v1/logger.Logger interface.
// It provides context-aware structured logging with optional error and field parameters.
type Logger interface {
	// DebugWithContext logs a debug message with trace context.
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// InfoWithContext logs an informational message with trace context.
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// WarnWithContext logs a warning message with trace context.
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// ErrorWithContext logs an error message with trace context.
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) DebugWithContext(context.Context, string, error, ...map[string]interface{}) {}
func (nopLogger) InfoWithContext(context.Context, string, error, ...map[string]interface{})  {}
func (nopLogger) WarnWithContext(context.Context, string, error, ...map[string]interface{})  {}
func (nopLogger) ErrorWithContext(context.Context, string, error, ...map[string]interface{}) {}
