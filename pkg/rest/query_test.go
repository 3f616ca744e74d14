package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabrest/tabrest/pkg/pgx/schema"
)

func testTable() schema.Table {
	return schema.Table{
		Schema: "public",
		Name:   "users",
		Columns: []schema.Column{
			{Name: "id", DataType: "integer", IsPrimaryKey: true},
			{Name: "email", DataType: "text"},
			{Name: "age", DataType: "integer", IsNullable: true},
		},
		PrimaryKeys: []string{"id"},
	}
}

func TestBuildListQuery(t *testing.T) {
	query, args := buildListQuery(testTable(), "id", 100, 0)
	assert.Equal(t, `SELECT * FROM "public"."users" ORDER BY "id" LIMIT $1`, query)
	assert.Equal(t, []any{100}, args)

	query, args = buildListQuery(testTable(), "id", 50, 10)
	assert.Equal(t, `SELECT * FROM "public"."users" ORDER BY "id" LIMIT $1 OFFSET $2`, query)
	assert.Equal(t, []any{50, 10}, args)
}

func TestBuildItemQuery(t *testing.T) {
	query, args := buildItemQuery(testTable(), "id", int64(42))
	assert.Equal(t, `SELECT * FROM "public"."users" WHERE "id" = $1`, query)
	assert.Equal(t, []any{int64(42)}, args)
}

func TestBuildInsertQuery(t *testing.T) {
	query, args, err := buildInsertQuery(testTable(), map[string]any{
		"email": "a@b.c",
		"age":   30,
	})
	require.NoError(t, err)
	// columns are sorted for deterministic statements
	assert.Equal(t, `INSERT INTO "public"."users" ("age", "email") VALUES ($1, $2) RETURNING *`, query)
	assert.Equal(t, []any{30, "a@b.c"}, args)
}

func TestBuildInsertQueryRejectsUnknownColumn(t *testing.T) {
	_, _, err := buildInsertQuery(testTable(), map[string]any{"nope": 1})
	assert.ErrorContains(t, err, "unknown column")

	_, _, err = buildInsertQuery(testTable(), map[string]any{})
	assert.ErrorContains(t, err, "empty payload")
}

func TestBuildUpdateQuery(t *testing.T) {
	query, args, err := buildUpdateQuery(testTable(), "id", int64(7), map[string]any{"email": "x@y.z"})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "public"."users" SET "email" = $1 WHERE "id" = $2 RETURNING *`, query)
	assert.Equal(t, []any{"x@y.z", int64(7)}, args)
}

func TestBuildUpsertQuery(t *testing.T) {
	query, args, err := buildUpsertQuery(testTable(), "id", map[string]any{
		"id":    int64(7),
		"email": "x@y.z",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "public"."users" ("email", "id") VALUES ($1, $2) ON CONFLICT ("id") DO UPDATE SET "email" = EXCLUDED."email" RETURNING *`,
		query)
	assert.Equal(t, []any{"x@y.z", int64(7)}, args)
}

func TestBuildDeleteQuery(t *testing.T) {
	query, args := buildDeleteQuery(testTable(), "id", int64(42))
	assert.Equal(t, `DELETE FROM "public"."users" WHERE "id" = $1`, query)
	assert.Equal(t, []any{int64(42)}, args)
}
