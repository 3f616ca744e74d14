package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPreservesOrder(t *testing.T) {
	r := NewRegistry(false, "")

	for _, name := range []string{"zebra", "apple", "mango"} {
		desc, err := Build(name, usersTable(), nil, false)
		require.NoError(t, err)
		require.NoError(t, r.Add(desc))
	}

	var names []string
	for _, d := range r.Resources() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"zebra", "apple", "mango"}, names)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry(false, "")

	desc, err := Build("users", usersTable(), nil, false)
	require.NoError(t, err)
	require.NoError(t, r.Add(desc))

	err = r.Add(desc)
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Len(t, r.Resources(), 1)
}

func TestRegistryRoutes(t *testing.T) {
	r := NewRegistry(false, "")

	desc, err := Build("Users", usersTable(), nil, false)
	require.NoError(t, err)
	require.NoError(t, r.Add(desc))

	routes := r.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "/users{/id}", routes["Users"])
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(false, "")

	desc, err := Build("users", usersTable(), nil, false)
	require.NoError(t, err)
	require.NoError(t, r.Add(desc))

	got, ok := r.Lookup("users")
	require.True(t, ok)
	assert.Same(t, desc, got)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}
