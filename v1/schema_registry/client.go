package schema_registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/qslv/common-kafka/v1/observability"
	"golang.org/x/sync/singleflight"
)

const contentType = "application/vnd.schemaregistry.v1+json"

// Registry provides an interface for interacting with a Confluent Schema Registry.
// It handles schema registration, retrieval, and caching for efficient serialization.
//
// All calls are blocking network calls bounded by ctx and the client timeout.
// None of them are retried.
//
//go:generate mockgen -source=client.go -destination=mock_registry.go -package=schema_registry
type Registry interface {
	// GetSchemaByID retrieves a schema by its ID
	GetSchemaByID(ctx context.Context, id int) (string, error)

	// GetLatestSchema retrieves the latest version of a schema for a subject
	GetLatestSchema(ctx context.Context, subject string) (*Metadata, error)

	// RegisterSchema registers a schema for a subject. Registering an unchanged
	// schema again returns the same id.
	RegisterSchema(ctx context.Context, subject, schema string) (int, error)

	// LookupSchemaID returns the id of a schema already registered under subject.
	// It fails with ErrSubjectNotFound or ErrSchemaNotFound otherwise.
	LookupSchemaID(ctx context.Context, subject, schema string) (int, error)

	// CheckCompatibility checks if a schema is compatible with the latest version
	CheckCompatibility(ctx context.Context, subject, schema string) (bool, error)
}

// Metadata contains metadata about a registered schema
type Metadata struct {
	ID      int    `json:"id"`
	Version int    `json:"version"`
	Schema  string `json:"schema"`
	Subject string `json:"subject"`
	Type    string `json:"schemaType,omitempty"`
}

// Client is the default implementation of Registry
// that communicates with Confluent Schema Registry over HTTP.
//
// Schemas by id and ids by (subject, schema) are cached for the lifetime of
// the client. Entries are never evicted: an id never changes meaning once
// issued. Concurrent identical requests share a single network call.
type Client struct {
	url        string
	httpClient *http.Client

	// Cache for schemas by ID
	schemaCache      map[int]string
	schemaCacheMutex sync.RWMutex

	// Cache for schema IDs by subject and schema
	idCache      map[string]int
	idCacheMutex sync.RWMutex

	// group collapses concurrent identical requests
	group singleflight.Group

	// Authentication
	username string
	password string
	token    string

	observer observability.Observer
	logger   Logger
}

// NewClient creates a new schema registry client
// Returns the concrete *Client type.
func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("schema registry URL is required")
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		url: strings.TrimSuffix(config.URL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		schemaCache: make(map[int]string),
		idCache:     make(map[string]int),
		username:    config.Username,
		password:    config.Password,
		token:       config.Token,
	}, nil
}

// WithObserver attaches an observer notified after every network call.
// Cache hits are not reported. Returns the client for chaining.
func (c *Client) WithObserver(observer observability.Observer) *Client {
	c.observer = observer
	return c
}

// WithLogger attaches a logger used for registration events and failures.
func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	return c
}

// GetSchemaByID retrieves a schema from the registry by its ID
func (c *Client) GetSchemaByID(ctx context.Context, id int) (string, error) {
	if schema, ok := c.cachedSchema(id); ok {
		return schema, nil
	}

	v, err := c.shared(ctx, "id:"+strconv.Itoa(id), func(ctx context.Context) (interface{}, error) {
		if schema, ok := c.cachedSchema(id); ok {
			return schema, nil
		}

		start := time.Now()
		var result struct {
			Schema string `json:"schema"`
		}
		err := c.do(ctx, http.MethodGet, fmt.Sprintf("/schemas/ids/%d", id), nil, &result)
		c.observeOperation("get_schema_by_id", "", strconv.Itoa(id), start, err)
		if err != nil {
			return "", fmt.Errorf("failed to fetch schema %d: %w", id, err)
		}

		c.storeSchema(id, result.Schema)
		return result.Schema, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// GetLatestSchema retrieves the latest version of a schema for a subject.
// The result is not cached since the latest version moves.
func (c *Client) GetLatestSchema(ctx context.Context, subject string) (*Metadata, error) {
	start := time.Now()
	var metadata Metadata
	err := c.do(ctx, http.MethodGet, "/subjects/"+url.PathEscape(subject)+"/versions/latest", nil, &metadata)
	c.observeOperation("get_latest_schema", subject, "", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest schema for %s: %w", subject, err)
	}

	metadata.Subject = subject
	c.storeSchema(metadata.ID, metadata.Schema)

	return &metadata, nil
}

// RegisterSchema registers a new schema with the schema registry
func (c *Client) RegisterSchema(ctx context.Context, subject, schema string) (int, error) {
	return c.resolveID(ctx, "register_schema", "/subjects/"+url.PathEscape(subject)+"/versions", subject, schema)
}

// LookupSchemaID looks up the id of a schema previously registered under subject.
func (c *Client) LookupSchemaID(ctx context.Context, subject, schema string) (int, error) {
	return c.resolveID(ctx, "lookup_schema", "/subjects/"+url.PathEscape(subject), subject, schema)
}

// CheckCompatibility checks if a schema is compatible with the existing schema for a subject
func (c *Client) CheckCompatibility(ctx context.Context, subject, schema string) (bool, error) {
	start := time.Now()
	var result struct {
		IsCompatible bool `json:"is_compatible"`
	}
	path := "/compatibility/subjects/" + url.PathEscape(subject) + "/versions/latest"
	err := c.do(ctx, http.MethodPost, path, schemaRequest{Schema: schema}, &result)
	c.observeOperation("check_compatibility", subject, "", start, err)
	if err != nil {
		return false, fmt.Errorf("failed to check compatibility for %s: %w", subject, err)
	}

	return result.IsCompatible, nil
}

type schemaRequest struct {
	Schema string `json:"schema"`
}

// resolveID posts schema to path and caches the returned id under (subject, schema).
// Registration and lookup share the cache: both yield the same id for the same pair.
func (c *Client) resolveID(ctx context.Context, operation, path, subject, schema string) (int, error) {
	cacheKey := subject + "\x00" + schema
	if id, ok := c.cachedID(cacheKey); ok {
		return id, nil
	}

	v, err := c.shared(ctx, operation+":"+cacheKey, func(ctx context.Context) (interface{}, error) {
		if id, ok := c.cachedID(cacheKey); ok {
			return id, nil
		}

		start := time.Now()
		var result struct {
			ID int `json:"id"`
		}
		err := c.do(ctx, http.MethodPost, path, schemaRequest{Schema: schema}, &result)
		c.observeOperation(operation, subject, strconv.Itoa(result.ID), start, err)
		if err != nil {
			err = fmt.Errorf("%s failed for subject %s: %w", strings.ReplaceAll(operation, "_", " "), subject, err)
			if c.logger != nil {
				c.logger.ErrorWithContext(ctx, "schema registry call failed", err, map[string]interface{}{
					"operation": operation,
					"subject":   subject,
				})
			}
			return 0, err
		}
		if c.logger != nil {
			c.logger.InfoWithContext(ctx, "resolved schema id", nil, map[string]interface{}{
				"operation": operation,
				"subject":   subject,
				"schema_id": result.ID,
			})
		}

		c.idCacheMutex.Lock()
		c.idCache[cacheKey] = result.ID
		c.idCacheMutex.Unlock()
		c.storeSchema(result.ID, schema)

		return result.ID, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// shared runs fn once for all concurrent callers of key. fn gets a context
// that is not cancelled with the caller's, so one caller giving up does not
// fail the others; the http client timeout still bounds it. Each caller
// returns early when its own ctx is done.
func (c *Client) shared(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return fn(flightCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) cachedSchema(id int) (string, bool) {
	c.schemaCacheMutex.RLock()
	defer c.schemaCacheMutex.RUnlock()
	schema, ok := c.schemaCache[id]
	return schema, ok
}

// storeSchema keeps the first schema text seen for id.
func (c *Client) storeSchema(id int, schema string) {
	c.schemaCacheMutex.Lock()
	defer c.schemaCacheMutex.Unlock()
	if _, ok := c.schemaCache[id]; !ok {
		c.schemaCache[id] = schema
	}
}

func (c *Client) cachedID(key string) (int, bool) {
	c.idCacheMutex.RLock()
	defer c.idCacheMutex.RUnlock()
	id, ok := c.idCache[key]
	return id, ok
}

// do performs a registry request, encoding in as JSON when non-nil and
// decoding the response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", contentType)
	if in != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
