package schema_registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistryRegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry(42)

	id, err := reg.RegisterSchema(ctx, "acct-events-value", userSchema)
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	again, err := reg.RegisterSchema(ctx, "acct-events-value", userSchema)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	// same text under another subject keeps its id
	other, err := reg.RegisterSchema(ctx, "audit-value", userSchema)
	require.NoError(t, err)
	assert.Equal(t, id, other)

	next, err := reg.RegisterSchema(ctx, "acct-events-value", `"string"`)
	require.NoError(t, err)
	assert.Equal(t, 43, next)

	meta, err := reg.GetLatestSchema(ctx, "acct-events-value")
	require.NoError(t, err)
	assert.Equal(t, 43, meta.ID)
	assert.Equal(t, 2, meta.Version)
}

func TestMemoryRegistryLookup(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry(0)

	_, err := reg.LookupSchemaID(ctx, "users-value", userSchema)
	assert.ErrorIs(t, err, ErrSubjectNotFound)

	id, err := reg.RegisterSchema(ctx, "users-value", userSchema)
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	got, err := reg.LookupSchemaID(ctx, "users-value", userSchema)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = reg.LookupSchemaID(ctx, "users-value", `"string"`)
	assert.ErrorIs(t, err, ErrSchemaNotFound)
}

func TestMemoryRegistryGetSchemaByID(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry(1)

	_, err := reg.GetSchemaByID(ctx, 1)
	assert.True(t, IsNotFoundError(err))

	id, err := reg.RegisterSchema(ctx, "users-value", userSchema)
	require.NoError(t, err)

	schema, err := reg.GetSchemaByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, userSchema, schema)

	ok, err := reg.CheckCompatibility(ctx, "users-value", `"string"`)
	require.NoError(t, err)
	assert.True(t, ok)
}
