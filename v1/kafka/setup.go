package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/qslv/common-kafka/v1/envelope"
	"github.com/qslv/common-kafka/v1/observability"
	"github.com/qslv/common-kafka/v1/tracer"
)

// Serializer encodes message values. *serde.Serializer implements it.
type Serializer interface {
	Serialize(ctx context.Context, topic string, v any) ([]byte, error)
}

// Deserializer decodes message values. *serde.Deserializer implements it.
type Deserializer interface {
	Deserialize(ctx context.Context, topic string, data []byte) (any, error)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaClient publishes values to, or consumes values from, one Kafka topic.
// Values go through a Serializer on publish and a Deserializer on consume,
// and the W3C trace context travels in the message headers.
type KafkaClient struct {
	cfg Config

	writer messageWriter
	reader messageReader

	serializer   Serializer
	deserializer Deserializer

	tracer      *tracer.Tracer
	traceLogger *envelope.TraceLogger
	logger      Logger
	observer    observability.Observer

	mu sync.RWMutex

	shutdownSignal    chan struct{}
	closeShutdownOnce sync.Once
}

// NewClient creates a producer or, when cfg.IsConsumer is set, a consumer.
// Zero valued tuning fields take the package defaults.
//
//	client, err := kafka.NewClient(kafka.Config{
//	    Brokers: []string{"localhost:9092"},
//	    Topic:   "acct-events",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.GracefulShutdown()
//	client.WithSerializer(ser)
func NewClient(cfg Config) (*KafkaClient, error) {
	cfg = cfg.withDefaults()
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}

	var tlsConfig *tls.Config
	var err error
	if cfg.TLS.Enabled {
		tlsConfig, err = createTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	var mechanism sasl.Mechanism
	if cfg.SASL.Enabled {
		mechanism, err = createSASLMechanism(cfg.SASL)
		if err != nil {
			return nil, fmt.Errorf("failed to create SASL mechanism: %w", err)
		}
	}

	k := &KafkaClient{
		cfg:            cfg,
		logger:         nopLogger{},
		shutdownSignal: make(chan struct{}),
	}

	if cfg.IsConsumer {
		k.reader = createReader(cfg, tlsConfig, mechanism, k.errorLogger)
	} else {
		w, err := createWriter(cfg, tlsConfig, mechanism, k.errorLogger)
		if err != nil {
			return nil, err
		}
		k.writer = w
	}

	return k, nil
}

// WithLogger sets the logger used for client and kafka-go internal errors.
func (k *KafkaClient) WithLogger(logger Logger) *KafkaClient {
	if logger != nil {
		k.logger = logger
	}
	return k
}

// WithObserver attaches an observer notified of every publish and consume.
func (k *KafkaClient) WithObserver(observer observability.Observer) *KafkaClient {
	k.observer = observer
	return k
}

// WithTracer enables a span per published and consumed message.
func (k *KafkaClient) WithTracer(t *tracer.Tracer) *KafkaClient {
	k.tracer = t
	return k
}

// WithTraceLogger logs a TRACE line for every consumed envelope.Traceable value.
func (k *KafkaClient) WithTraceLogger(l *envelope.TraceLogger) *KafkaClient {
	k.traceLogger = l
	return k
}

// WithSerializer sets the value serializer used by Publish.
func (k *KafkaClient) WithSerializer(s Serializer) *KafkaClient {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.serializer = s
	return k
}

// WithDeserializer sets the value deserializer used by Consume.
func (k *KafkaClient) WithDeserializer(d Deserializer) *KafkaClient {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.deserializer = d
	return k
}

func (k *KafkaClient) errorLogger(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	k.logger.ErrorWithContext(context.Background(), "Kafka internal error", nil, map[string]interface{}{
		"error": msg,
	})
}

func createWriter(cfg Config, tlsConfig *tls.Config, mechanism sasl.Mechanism, errorLogger kafka.LoggerFunc) (*kafka.Writer, error) {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: cfg.RequiredAcks,
		ErrorLogger:  errorLogger,
		Transport: &kafka.Transport{
			TLS:  tlsConfig,
			SASL: mechanism,
		},
	}

	if cfg.Async {
		w.Async = true
		w.BatchSize = cfg.BatchSize
		w.BatchTimeout = cfg.BatchTimeout
	}

	switch cfg.CompressionCodec {
	case "":
	case "gzip":
		w.Compression = compress.Gzip
	case "snappy":
		w.Compression = compress.Snappy
	case "lz4":
		w.Compression = compress.Lz4
	case "zstd":
		w.Compression = compress.Zstd
	default:
		return nil, fmt.Errorf("unsupported compression codec: %s", cfg.CompressionCodec)
	}

	return w, nil
}

func createReader(cfg Config, tlsConfig *tls.Config, mechanism sasl.Mechanism, errorLogger kafka.LoggerFunc) *kafka.Reader {
	readerConfig := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: cfg.StartOffset,
		ErrorLogger: errorLogger,
		Dialer: &kafka.Dialer{
			TLS:           tlsConfig,
			SASLMechanism: mechanism,
		},
	}

	if cfg.EnableAutoCommit {
		readerConfig.CommitInterval = cfg.CommitInterval
	}
	if cfg.GroupID == "" && cfg.Partition != -1 {
		readerConfig.Partition = cfg.Partition
	}

	return kafka.NewReader(readerConfig)
}

func createTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func createSASLMechanism(cfg SASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case "PLAIN":
		return plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.Mechanism)
	}
}
