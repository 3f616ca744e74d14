package resource

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabrest/tabrest/pkg/pgx/schema"
)

func usersTable() schema.Table {
	return schema.Table{
		Schema: "public",
		Name:   "users",
		Type:   schema.TypeTable,
		Columns: []schema.Column{
			{Name: "id", DataType: "integer", IsPrimaryKey: true},
			{Name: "email", DataType: "text"},
			{Name: "age", DataType: "integer", IsNullable: true},
		},
		PrimaryKeys: []string{"id"},
	}
}

func TestBuildDefaults(t *testing.T) {
	desc, err := Build("Users", usersTable(), nil, false)
	require.NoError(t, err)

	assert.Equal(t, "Users", desc.Name)
	assert.Equal(t, "/users", desc.URLPrefix)
	assert.Equal(t, []string{http.MethodGet, http.MethodPost}, desc.Methods)
	assert.Equal(t, "id", desc.PrimaryKey)
	assert.Equal(t, RouteInt, desc.PKType)
}

func TestBuildDeclaredMethods(t *testing.T) {
	desc, err := Build("users", usersTable(), []string{"get", "delete", "put"}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{http.MethodGet, http.MethodPut, http.MethodDelete}, desc.Methods)
	assert.True(t, desc.Allows(http.MethodDelete))
	assert.False(t, desc.Allows(http.MethodPost))
}

func TestBuildReadOnlyOverridesDeclaration(t *testing.T) {
	// read-only must win even over an explicit full method set
	desc, err := Build("users", usersTable(), []string{"GET", "POST", "PUT", "DELETE"}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{http.MethodGet}, desc.Methods)
}

func TestBuildRejectsUnknownMethod(t *testing.T) {
	// a typo must not silently register a resource with missing routes
	_, err := Build("users", usersTable(), []string{"GET", "GETT"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported method")

	_, err = Build("users", usersTable(), []string{"OPTIONS"}, false)
	assert.Error(t, err)
}

func TestBuildNoPrimaryKey(t *testing.T) {
	tbl := usersTable()
	tbl.PrimaryKeys = nil

	_, err := Build("users", tbl, nil, false)
	require.ErrorIs(t, err, ErrNoPrimaryKey)
}

func TestBuildCompositeKeyRoutesAsString(t *testing.T) {
	tbl := schema.Table{
		Schema: "public",
		Name:   "order_lines",
		Columns: []schema.Column{
			{Name: "order_id", DataType: "integer", IsPrimaryKey: true},
			{Name: "line_no", DataType: "integer", IsPrimaryKey: true},
		},
		PrimaryKeys: []string{"order_id", "line_no"},
	}

	desc, err := Build("order_lines", tbl, nil, false)
	require.NoError(t, err)

	// only the first key column is tracked; routing degrades to string
	assert.Equal(t, "order_id", desc.PrimaryKey)
	assert.Equal(t, RouteString, desc.PKType)
}

func TestRouteTemplate(t *testing.T) {
	desc, err := Build("Users", usersTable(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, "/users{/id}", desc.RouteTemplate())
}
