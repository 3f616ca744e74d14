package rest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tabrest/tabrest/pkg/pgx/schema"
)

func tableIdent(tbl schema.Table) string {
	return pgx.Identifier{tbl.Schema, tbl.Name}.Sanitize()
}

func colIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func hasColumn(tbl schema.Table, name string) bool {
	for _, c := range tbl.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// buildListQuery selects the whole collection, ordered by primary key for a
// stable listing.
func buildListQuery(tbl schema.Table, pk string, limit, offset int) (string, []any) {
	var query strings.Builder
	var args []any

	fmt.Fprintf(&query, "SELECT * FROM %s ORDER BY %s", tableIdent(tbl), colIdent(pk))

	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&query, " LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		fmt.Fprintf(&query, " OFFSET $%d", len(args))
	}
	return query.String(), args
}

func buildItemQuery(tbl schema.Table, pk string, id any) (string, []any) {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", tableIdent(tbl), colIdent(pk)), []any{id}
}

// buildInsertQuery inserts the payload columns and returns the created row.
// Unknown columns in the payload are a caller error.
func buildInsertQuery(tbl schema.Table, data map[string]any) (string, []any, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("empty payload")
	}

	// sort for deterministic statements
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var columns, placeholders []string
	var args []any
	for _, key := range keys {
		if !hasColumn(tbl, key) {
			return "", nil, fmt.Errorf("unknown column %q", key)
		}
		args = append(args, data[key])
		columns = append(columns, colIdent(key))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		tableIdent(tbl),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args, nil
}

// buildUpdateQuery updates the payload columns of the row identified by the
// primary key and returns the updated row.
func buildUpdateQuery(tbl schema.Table, pk string, id any, data map[string]any) (string, []any, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("empty payload")
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var setClauses []string
	var args []any
	for _, key := range keys {
		if !hasColumn(tbl, key) {
			return "", nil, fmt.Errorf("unknown column %q", key)
		}
		args = append(args, data[key])
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", colIdent(key), len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d RETURNING *",
		tableIdent(tbl),
		strings.Join(setClauses, ", "),
		colIdent(pk),
		len(args),
	)
	return query, args, nil
}

func buildDeleteQuery(tbl schema.Table, pk string, id any) (string, []any) {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = $1", tableIdent(tbl), colIdent(pk)), []any{id}
}
