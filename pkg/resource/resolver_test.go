package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabrest/tabrest/pkg/pgx/schema"
)

func TestResolveRouteType(t *testing.T) {
	tests := []struct {
		name    string
		columns []schema.Column
		want    RouteType
	}{
		{
			name:    "text column",
			columns: []schema.Column{{Name: "id", DataType: "text"}},
			want:    RouteString,
		},
		{
			name:    "varchar column",
			columns: []schema.Column{{Name: "id", DataType: "character varying"}},
			want:    RouteString,
		},
		{
			name:    "uuid column",
			columns: []schema.Column{{Name: "id", DataType: "uuid"}},
			want:    RouteString,
		},
		{
			name:    "integer column",
			columns: []schema.Column{{Name: "id", DataType: "integer"}},
			want:    RouteInt,
		},
		{
			name:    "bigint column",
			columns: []schema.Column{{Name: "id", DataType: "bigint"}},
			want:    RouteInt,
		},
		{
			name:    "numeric column",
			columns: []schema.Column{{Name: "id", DataType: "numeric"}},
			want:    RouteFloat,
		},
		{
			name:    "double precision column",
			columns: []schema.Column{{Name: "id", DataType: "double precision"}},
			want:    RouteFloat,
		},
		{
			name: "composite key degrades to string",
			columns: []schema.Column{
				{Name: "order_id", DataType: "integer"},
				{Name: "line_no", DataType: "integer"},
			},
			want: RouteString,
		},
		{
			name:    "no key degrades to string",
			columns: nil,
			want:    RouteString,
		},
		{
			name:    "unknown type degrades to string",
			columns: []schema.Column{{Name: "id", DataType: "tsvector"}},
			want:    RouteString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRouteType(tt.columns))
		})
	}
}

func TestParseRouteType(t *testing.T) {
	for _, tag := range []string{"string", "int", "float"} {
		got, err := ParseRouteType(tag)
		require.NoError(t, err)
		assert.Equal(t, RouteType(tag), got)
	}

	_, err := ParseRouteType("decimal")
	assert.Error(t, err)
}

func TestRouteTypeMatch(t *testing.T) {
	assert.True(t, RouteString.Match("abc"))
	assert.True(t, RouteString.Match("42"))
	assert.False(t, RouteString.Match(""))

	assert.True(t, RouteInt.Match("42"))
	assert.True(t, RouteInt.Match("-7"))
	assert.False(t, RouteInt.Match("42.5"))
	assert.False(t, RouteInt.Match("abc"))

	assert.True(t, RouteFloat.Match("42.5"))
	assert.True(t, RouteFloat.Match("42"))
	assert.False(t, RouteFloat.Match("abc"))
}

func TestRouteTypeValue(t *testing.T) {
	v, err := RouteInt.Value("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = RouteFloat.Value("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	v, err = RouteString.Value("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}
