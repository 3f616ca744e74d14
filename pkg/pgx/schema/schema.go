// Package schema introspects PostgreSQL metadata: tables, views, materialized
// views, their columns and primary keys. The reflector runs once during
// application startup; the resulting metadata is immutable afterwards.
package schema

import (
	"context"
	"errors"
	"fmt"

	pg "github.com/tabrest/tabrest/pkg/pgx"
)

// DefaultSchema is used when no schema namespace override is configured.
const DefaultSchema = "public"

// ErrNotFound is returned by LoadTable when the named relation does not exist
// in the target schema.
var ErrNotFound = errors.New("relation not found")

type TableType string

const (
	TypeTable            TableType = "TABLE"
	TypeView             TableType = "VIEW"
	TypeMaterializedView TableType = "MATERIALIZED VIEW"
)

// Table describes one table, view or materialized view.
type Table struct {
	Schema      string    `json:"schema"`
	Name        string    `json:"name"`
	Type        TableType `json:"type"`
	Columns     []Column  `json:"columns"`
	PrimaryKeys []string  `json:"primary_keys"`
}

// Column describes a single column of a Table.
type Column struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsNullable   bool   `json:"is_nullable"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// PrimaryKeyColumns returns the column metadata for the table's primary key,
// in declaration order.
func (t Table) PrimaryKeyColumns() []Column {
	var cols []Column
	for _, pk := range t.PrimaryKeys {
		for _, c := range t.Columns {
			if c.Name == pk {
				cols = append(cols, c)
				break
			}
		}
	}
	return cols
}

// Reflector loads relation metadata from a live database.
type Reflector struct {
	conn pg.Conn
}

func NewReflector(conn pg.Conn) *Reflector {
	return &Reflector{conn: conn}
}

// Load enumerates every table, view and materialized view in schemaName
// (DefaultSchema when empty), ordered by relation name. Column and
// primary-key metadata is populated for each relation.
func (r *Reflector) Load(ctx context.Context, schemaName string) ([]Table, error) {
	if schemaName == "" {
		schemaName = DefaultSchema
	}

	rows, err := r.conn.Query(ctx, `
		SELECT table_schema, table_name, 'TABLE'::text AS table_type
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		UNION ALL
		SELECT table_schema, table_name, 'VIEW'::text
		FROM information_schema.views
		WHERE table_schema = $1
		UNION ALL
		SELECT schemaname, matviewname, 'MATERIALIZED VIEW'::text
		FROM pg_matviews
		WHERE schemaname = $1
		ORDER BY table_name`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		var typ string
		if err := rows.Scan(&t.Schema, &t.Name, &typ); err != nil {
			return nil, err
		}
		t.Type = TableType(typ)
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tables {
		cols, pkeys, err := r.queryColumns(ctx, tables[i].Schema, tables[i].Name)
		if err != nil {
			return nil, fmt.Errorf("query columns %s.%s: %w", tables[i].Schema, tables[i].Name, err)
		}
		tables[i].Columns = cols
		tables[i].PrimaryKeys = pkeys
	}
	return tables, nil
}

// LoadTable loads metadata for a single named relation. Views typically
// report no primary keys; callers that need one must supply it out-of-band.
func (r *Reflector) LoadTable(ctx context.Context, schemaName, name string) (Table, error) {
	if schemaName == "" {
		schemaName = DefaultSchema
	}

	t := Table{Schema: schemaName, Name: name}
	var typ string
	err := r.conn.QueryRow(ctx, `
		SELECT table_type FROM (
			SELECT table_schema, table_name, 'TABLE'::text AS table_type
			FROM information_schema.tables
			WHERE table_type = 'BASE TABLE'
			UNION ALL
			SELECT table_schema, table_name, 'VIEW'::text
			FROM information_schema.views
			UNION ALL
			SELECT schemaname, matviewname, 'MATERIALIZED VIEW'::text
			FROM pg_matviews
		) rel
		WHERE table_schema = $1 AND table_name = $2`, schemaName, name).Scan(&typ)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %s.%s", ErrNotFound, schemaName, name)
	}
	t.Type = TableType(typ)

	cols, pkeys, err := r.queryColumns(ctx, schemaName, name)
	if err != nil {
		return Table{}, fmt.Errorf("query columns %s.%s: %w", schemaName, name, err)
	}
	if len(cols) == 0 {
		return Table{}, fmt.Errorf("%w: %s.%s", ErrNotFound, schemaName, name)
	}
	t.Columns = cols
	t.PrimaryKeys = pkeys
	return t, nil
}

func (r *Reflector) queryColumns(ctx context.Context, schemaName, table string) ([]Column, []string, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema = $1
					AND tc.table_name = $2
					AND kcu.column_name = c.column_name
			) AS is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`, schemaName, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var cols []Column
	var pkeys []string
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable, &col.IsPrimaryKey); err != nil {
			return nil, nil, err
		}
		cols = append(cols, col)
		if col.IsPrimaryKey {
			pkeys = append(pkeys, col.Name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	// information_schema.columns does not cover materialized views
	if len(cols) == 0 {
		return r.queryAttributes(ctx, schemaName, table)
	}
	return cols, pkeys, nil
}

// queryAttributes introspects columns from pg_catalog, which covers relations
// information_schema does not, materialized views in particular. Such
// relations carry no primary-key constraints.
func (r *Reflector) queryAttributes(ctx context.Context, schemaName, table string) ([]Column, []string, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT a.attname, format_type(a.atttypid, NULL), NOT a.attnotnull
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2
			AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`, schemaName, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable); err != nil {
			return nil, nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil, rows.Err()
}
