package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Defaults applied by NewClient to zero valued Config fields.
const (
	DefaultMinBytes       = 1
	DefaultMaxBytes       = 10e6
	DefaultMaxWait        = 500 * time.Millisecond
	DefaultCommitInterval = time.Second
	DefaultStartOffset    = kafka.FirstOffset
	DefaultPartition      = -1
	DefaultRequiredAcks   = kafka.RequireAll
	DefaultBatchSize      = 100
	DefaultBatchTimeout   = 10 * time.Millisecond
	DefaultMaxAttempts    = 10
	DefaultWriteTimeout   = 10 * time.Second
	DefaultBufferSize     = 100
)

// Config defines the configuration of a Kafka client. A client is either a
// producer or, with IsConsumer set, a consumer of a single topic.
type Config struct {
	// Brokers lists the bootstrap brokers, e.g. ["localhost:9092"].
	Brokers []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`

	// Topic is the topic produced to or consumed from.
	Topic string `yaml:"topic" envconfig:"KAFKA_TOPIC"`

	// GroupID is the consumer group. Without one the consumer reads Partition directly.
	GroupID string `yaml:"group_id" envconfig:"KAFKA_GROUP_ID"`

	// IsConsumer selects a reader instead of a writer.
	IsConsumer bool `yaml:"is_consumer" envconfig:"KAFKA_IS_CONSUMER"`

	// Partition is read when no GroupID is set; -1 leaves it to the reader.
	Partition int `yaml:"partition" envconfig:"KAFKA_PARTITION"`

	// Consumer fetch tuning.
	MinBytes    int           `yaml:"min_bytes" envconfig:"KAFKA_MIN_BYTES"`
	MaxBytes    int           `yaml:"max_bytes" envconfig:"KAFKA_MAX_BYTES"`
	MaxWait     time.Duration `yaml:"max_wait" envconfig:"KAFKA_MAX_WAIT"`
	StartOffset int64         `yaml:"start_offset" envconfig:"KAFKA_START_OFFSET"`

	// EnableAutoCommit commits offsets as messages are read, every
	// CommitInterval. When false, messages must be committed with CommitMsg.
	EnableAutoCommit bool          `yaml:"enable_auto_commit" envconfig:"KAFKA_ENABLE_AUTO_COMMIT"`
	CommitInterval   time.Duration `yaml:"commit_interval" envconfig:"KAFKA_COMMIT_INTERVAL"`

	// Producer tuning.
	RequiredAcks     kafka.RequiredAcks `yaml:"required_acks" envconfig:"KAFKA_REQUIRED_ACKS"`
	Async            bool               `yaml:"async" envconfig:"KAFKA_ASYNC"`
	BatchSize        int                `yaml:"batch_size" envconfig:"KAFKA_BATCH_SIZE"`
	BatchTimeout     time.Duration      `yaml:"batch_timeout" envconfig:"KAFKA_BATCH_TIMEOUT"`
	MaxAttempts      int                `yaml:"max_attempts" envconfig:"KAFKA_MAX_ATTEMPTS"`
	WriteTimeout     time.Duration      `yaml:"write_timeout" envconfig:"KAFKA_WRITE_TIMEOUT"`
	CompressionCodec string             `yaml:"compression_codec" envconfig:"KAFKA_COMPRESSION_CODEC"`

	// BufferSize is the capacity of the channel returned by Consume.
	BufferSize int `yaml:"buffer_size" envconfig:"KAFKA_BUFFER_SIZE"`

	TLS  TLSConfig  `yaml:"tls"`
	SASL SASLConfig `yaml:"sasl"`
}

// TLSConfig configures TLS towards the brokers.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" envconfig:"KAFKA_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" envconfig:"KAFKA_TLS_CA_CERT_PATH"`
	ClientCertPath     string `yaml:"client_cert_path" envconfig:"KAFKA_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath      string `yaml:"client_key_path" envconfig:"KAFKA_TLS_CLIENT_KEY_PATH"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" envconfig:"KAFKA_TLS_INSECURE_SKIP_VERIFY"`
}

// SASLConfig configures SASL authentication. Mechanism is one of PLAIN,
// SCRAM-SHA-256 or SCRAM-SHA-512.
type SASLConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"KAFKA_SASL_ENABLED"`
	Mechanism string `yaml:"mechanism" envconfig:"KAFKA_SASL_MECHANISM"`
	Username  string `yaml:"username" envconfig:"KAFKA_SASL_USERNAME"`
	Password  string `yaml:"password" envconfig:"KAFKA_SASL_PASSWORD"`
}

func (cfg Config) withDefaults() Config {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = DefaultMinBytes
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.CommitInterval == 0 {
		cfg.CommitInterval = DefaultCommitInterval
	}
	if cfg.StartOffset == 0 {
		cfg.StartOffset = DefaultStartOffset
	}
	if cfg.Partition == 0 {
		cfg.Partition = DefaultPartition
	}
	if cfg.RequiredAcks == 0 {
		cfg.RequiredAcks = DefaultRequiredAcks
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	return cfg
}

// Logger is an interface that matches the common-kafka/v1/logger.Logger interface.
type Logger interface {
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) DebugWithContext(context.Context, string, error, ...map[string]interface{}) {}
func (nopLogger) InfoWithContext(context.Context, string, error, ...map[string]interface{})  {}
func (nopLogger) WarnWithContext(context.Context, string, error, ...map[string]interface{})  {}
func (nopLogger) ErrorWithContext(context.Context, string, error, ...map[string]interface{}) {}
