package schema_registry

import (
	"context"
	"sync"
)

// MemoryRegistry is an in-process Registry. It is meant for tests and local
// development where no registry server is available.
//
// Ids are assigned per distinct schema text, so the same schema registered
// under two subjects shares one id, matching the Confluent server.
type MemoryRegistry struct {
	mu sync.RWMutex

	nextID   int
	ids      map[string]int
	schemas  map[int]string
	subjects map[string][]int
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty registry handing out ids starting at firstID.
// A firstID below 1 starts at 1.
func NewMemoryRegistry(firstID int) *MemoryRegistry {
	if firstID < 1 {
		firstID = 1
	}
	return &MemoryRegistry{
		nextID:   firstID,
		ids:      make(map[string]int),
		schemas:  make(map[int]string),
		subjects: make(map[string][]int),
	}
}

// GetSchemaByID returns the schema registered under id.
func (m *MemoryRegistry) GetSchemaByID(_ context.Context, id int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	schema, ok := m.schemas[id]
	if !ok {
		return "", &APIError{StatusCode: 404, ErrorCode: errorCodeSchemaNotFound, Message: "Schema not found"}
	}
	return schema, nil
}

// GetLatestSchema returns the newest version registered under subject.
func (m *MemoryRegistry) GetLatestSchema(_ context.Context, subject string) (*Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := m.subjects[subject]
	if len(versions) == 0 {
		return nil, &APIError{StatusCode: 404, ErrorCode: errorCodeSubjectNotFound, Message: "Subject '" + subject + "' not found."}
	}
	id := versions[len(versions)-1]
	return &Metadata{
		ID:      id,
		Version: len(versions),
		Schema:  m.schemas[id],
		Subject: subject,
	}, nil
}

// RegisterSchema adds schema to subject. Re-registering returns the existing id.
func (m *MemoryRegistry) RegisterSchema(_ context.Context, subject, schema string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.ids[schema]
	if !ok {
		id = m.nextID
		m.nextID++
		m.ids[schema] = id
		m.schemas[id] = schema
	}

	for _, existing := range m.subjects[subject] {
		if existing == id {
			return id, nil
		}
	}
	m.subjects[subject] = append(m.subjects[subject], id)
	return id, nil
}

// LookupSchemaID returns the id of schema if it was registered under subject.
func (m *MemoryRegistry) LookupSchemaID(_ context.Context, subject, schema string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions, ok := m.subjects[subject]
	if !ok {
		return 0, &APIError{StatusCode: 404, ErrorCode: errorCodeSubjectNotFound, Message: "Subject '" + subject + "' not found."}
	}
	if id, ok := m.ids[schema]; ok {
		for _, existing := range versions {
			if existing == id {
				return id, nil
			}
		}
	}
	return 0, &APIError{StatusCode: 404, ErrorCode: errorCodeSchemaNotFound, Message: "Schema not found"}
}

// CheckCompatibility always reports compatible; no compatibility rules are evaluated in memory.
func (m *MemoryRegistry) CheckCompatibility(_ context.Context, _, _ string) (bool, error) {
	return true, nil
}
