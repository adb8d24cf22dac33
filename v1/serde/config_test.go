package serde

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromProperties(t *testing.T) {
	cfg, err := ConfigFromProperties(map[string]string{
		"schema.registry.url":                 "http://registry:8081",
		"basic.auth.user.info":                "user:p:ss",
		"schema.registry.timeout":             "2500",
		"auto.register.schemas":               "false",
		"is.key":                              "true",
		"subject.name.strategy":               "io.confluent.kafka.serializers.subject.RecordNameStrategy",
		"mapper.schema.model.AccountOpened":   "schemas/account_opened.avsc",
		"mapper.mixins.model.AccountOpened":   "model.AccountOpenedMixin",
		"unrelated.key":                       "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://registry:8081", cfg.Registry.URL)
	assert.Equal(t, "user", cfg.Registry.Username)
	assert.Equal(t, "p:ss", cfg.Registry.Password)
	assert.Equal(t, 2500*time.Millisecond, cfg.Registry.Timeout)
	assert.True(t, cfg.LookupOnly)
	assert.True(t, cfg.IsKey)
	assert.Equal(t, map[string]string{"model.AccountOpened": "schemas/account_opened.avsc"}, cfg.Schemas)
	assert.Equal(t, map[string]string{"model.AccountOpened": "model.AccountOpenedMixin"}, cfg.Mixins)
}

func TestConfigFromPropertiesDefaults(t *testing.T) {
	cfg, err := ConfigFromProperties(map[string]string{
		"bearer.auth.token":       "token",
		"schema.registry.timeout": "3s",
	})
	require.NoError(t, err)

	assert.False(t, cfg.LookupOnly)
	assert.False(t, cfg.IsKey)
	assert.Equal(t, "token", cfg.Registry.Token)
	assert.Equal(t, 3*time.Second, cfg.Registry.Timeout)
	assert.Empty(t, cfg.Schemas)
}

func TestConfigFromPropertiesErrors(t *testing.T) {
	for _, props := range []map[string]string{
		{"basic.auth.user.info": "no-colon"},
		{"auto.register.schemas": "maybe"},
		{"is.key": "yes please"},
		{"schema.registry.timeout": "soon"},
		{"subject.name.strategy": "wildcard"},
	} {
		_, err := ConfigFromProperties(props)
		assert.Error(t, err, "%v", props)
	}
}

func TestLoadProperties(t *testing.T) {
	doc := `
schema.registry:
  url: http://registry:8081
auto.register.schemas: false
mapper:
  schema:
    model.AccountOpened: schemas/account_opened.avsc
  mixins:
    model.AccountOpened: model.AccountOpenedMixin
brokers:
  - a:9092
  - b:9092
empty:
`
	props, err := LoadProperties(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"schema.registry.url":               "http://registry:8081",
		"auto.register.schemas":             "false",
		"mapper.schema.model.AccountOpened": "schemas/account_opened.avsc",
		"mapper.mixins.model.AccountOpened": "model.AccountOpenedMixin",
		"brokers":                           "a:9092,b:9092",
		"empty":                             "",
	}, props)

	cfg, err := ConfigFromProperties(props)
	require.NoError(t, err)
	assert.True(t, cfg.LookupOnly)
	assert.Equal(t, "http://registry:8081", cfg.Registry.URL)
}

func TestLoadPropertiesEmptyAndInvalid(t *testing.T) {
	props, err := LoadProperties(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, props)

	_, err = LoadProperties(strings.NewReader("key: [unterminated"))
	require.Error(t, err)
}
