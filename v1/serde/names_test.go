package serde

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type Box[T any] struct {
	Value T
}

type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want string
	}{
		{name: "struct", typ: reflect.TypeOf(AccountOpened{}), want: "serde.AccountOpened"},
		{name: "pointer", typ: reflect.TypeOf(&AccountOpened{}), want: "serde.AccountOpened"},
		{name: "other package", typ: reflect.TypeOf(time.Time{}), want: "time.Time"},
		{name: "generic builtin", typ: reflect.TypeOf(Box[int]{}), want: "serde.Box_int"},
		{name: "generic local", typ: reflect.TypeOf(Box[AccountOpened]{}), want: "serde.Box_serde_AccountOpened"},
		{name: "generic nested", typ: reflect.TypeOf(Pair[string, Box[time.Time]]{}), want: "serde.Pair_string_serde_Box_time_Time"},
		{name: "generic pointer arg", typ: reflect.TypeOf(Box[*AccountOpened]{}), want: "serde.Box_serde_AccountOpened"},
		{name: "unnamed", typ: reflect.TypeOf(struct{}{}), want: ""},
		{name: "builtin", typ: reflect.TypeOf(""), want: "string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalName(tt.typ))
		})
	}
}

func TestCanonicalNameOf(t *testing.T) {
	assert.Equal(t, "serde.AccountOpened", CanonicalNameOf[AccountOpened]())
	assert.Equal(t, "serde.AccountOpened", CanonicalNameOf[*AccountOpened]())
}

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, "serde/AccountOpened.avsc", sidecarPath("serde.AccountOpened"))
	assert.Equal(t, "serde/Box_int.avsc", sidecarPath("serde.Box_int"))
}

func TestSplitName(t *testing.T) {
	ns, name := splitName("a.b.C")
	assert.Equal(t, "a.b", ns)
	assert.Equal(t, "C", name)

	ns, name = splitName("C")
	assert.Equal(t, "", ns)
	assert.Equal(t, "C", name)
}
