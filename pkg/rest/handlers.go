package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tabrest/tabrest/pkg/httputil"
	pg "github.com/tabrest/tabrest/pkg/pgx"
	"github.com/tabrest/tabrest/pkg/pgx/schema"
	"github.com/tabrest/tabrest/pkg/resource"
)

const defaultListLimit = 100

// resourceHandler executes CRUD operations for one registered resource
// against the shared database handle.
type resourceHandler struct {
	db     pg.Conn
	desc   *resource.Descriptor
	logger *zap.Logger
}

func newResourceHandler(db pg.Conn, desc *resource.Descriptor, logger *zap.Logger) *resourceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &resourceHandler{db: db, desc: desc, logger: logger}
}

// log prefers the request-scoped logger injected by the logger middleware.
func (h *resourceHandler) log(r *http.Request) *zap.Logger {
	if l := httputil.LogEntry(r.Context()); l != nil {
		return l
	}
	return h.logger
}

// pathID parses the {id} path segment according to the resource's routing
// type. A segment that does not parse is a routing-level miss.
func (h *resourceHandler) pathID(r *http.Request) (any, error) {
	seg := r.PathValue("id")
	if !h.desc.PKType.Match(seg) {
		return nil, NotFound("not found")
	}
	id, err := h.desc.PKType.Value(seg)
	if err != nil {
		return nil, NotFound("not found")
	}
	return id, nil
}

func (h *resourceHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := intQueryParam(r, "limit", defaultListLimit)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}
	offset, err := intQueryParam(r, "offset", 0)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}

	query, args := buildListQuery(h.desc.Table, h.desc.PrimaryKey, limit, offset)
	rows, err := h.db.Query(r.Context(), query, args...)
	if err != nil {
		writeError(w, h.log(r), translateDBError(err))
		return
	}
	defer rows.Close()

	results, err := rowsToMaps(rows)
	if err != nil {
		writeError(w, h.log(r), fmt.Errorf("scan rows: %w", err))
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"resources": results})
}

func (h *resourceHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	data, err := decodePayload(r)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}

	query, args, err := buildInsertQuery(h.desc.Table, data)
	if err != nil {
		writeError(w, h.log(r), BadRequest("%s", err))
		return
	}

	row, err := h.queryOne(r, query, args)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}

	if pkVal, ok := row[h.desc.PrimaryKey]; ok {
		w.Header().Set("Location", fmt.Sprintf("%s/%v", h.desc.URLPrefix, pkVal))
	}
	httputil.JSON(w, http.StatusCreated, row)
}

func (h *resourceHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}

	query, args := buildItemQuery(h.desc.Table, h.desc.PrimaryKey, id)
	row, err := h.queryOne(r, query, args)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}
	httputil.JSON(w, http.StatusOK, row)
}

// handleReplace implements PUT: the row identified by the path is created or
// fully replaced with the payload.
func (h *resourceHandler) handleReplace(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}

	data, err := decodePayload(r)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}
	data[h.desc.PrimaryKey] = id

	query, args, err := buildUpsertQuery(h.desc.Table, h.desc.PrimaryKey, data)
	if err != nil {
		writeError(w, h.log(r), BadRequest("%s", err))
		return
	}

	row, err := h.queryOne(r, query, args)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}
	httputil.JSON(w, http.StatusOK, row)
}

// handleUpdate implements PATCH: only the payload columns change.
func (h *resourceHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}

	data, err := decodePayload(r)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}

	query, args, err := buildUpdateQuery(h.desc.Table, h.desc.PrimaryKey, id, data)
	if err != nil {
		writeError(w, h.log(r), BadRequest("%s", err))
		return
	}

	row, err := h.queryOne(r, query, args)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}
	httputil.JSON(w, http.StatusOK, row)
}

func (h *resourceHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		writeError(w, h.log(r), err)
		return
	}

	query, args := buildDeleteQuery(h.desc.Table, h.desc.PrimaryKey, id)
	tag, err := h.db.Exec(r.Context(), query, args...)
	if err != nil {
		writeError(w, h.log(r), translateDBError(err))
		return
	}
	if tag.RowsAffected() == 0 {
		writeError(w, h.log(r), NotFound("%s %v not found", h.desc.Name, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMeta serves the resource's schema metadata.
func (h *resourceHandler) handleMeta(w http.ResponseWriter, r *http.Request) {
	type metaColumn struct {
		Name       string `json:"name"`
		DataType   string `json:"data_type"`
		Nullable   bool   `json:"nullable"`
		PrimaryKey bool   `json:"primary_key"`
	}
	cols := make([]metaColumn, 0, len(h.desc.Table.Columns))
	for _, c := range h.desc.Table.Columns {
		cols = append(cols, metaColumn{
			Name:       c.Name,
			DataType:   c.DataType,
			Nullable:   c.IsNullable,
			PrimaryKey: c.IsPrimaryKey,
		})
	}
	httputil.JSON(w, http.StatusOK, map[string]any{
		"name":             h.desc.Name,
		"url":              h.desc.URLPrefix,
		"methods":          h.desc.Methods,
		"primary_key":      h.desc.PrimaryKey,
		"primary_key_type": h.desc.PKType,
		"columns":          cols,
	})
}

// queryOne runs a query expected to return exactly one row and maps it.
func (h *resourceHandler) queryOne(r *http.Request, query string, args []any) (map[string]any, error) {
	rows, err := h.db.Query(r.Context(), query, args...)
	if err != nil {
		return nil, translateDBError(err)
	}
	defer rows.Close()

	results, err := rowsToMaps(rows)
	if err != nil {
		return nil, fmt.Errorf("scan rows: %w", err)
	}
	if len(results) == 0 {
		return nil, NotFound("%s not found", h.desc.Name)
	}
	return results[0], nil
}

func decodePayload(r *http.Request) (map[string]any, error) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		return nil, NotAcceptable("unsupported content type %q", ct)
	}
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return nil, BadRequest("invalid JSON body: %s", err)
	}
	return data, nil
}

func intQueryParam(r *http.Request, name string, defaultValue int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, BadRequest("invalid %s %q: must be a non-negative integer", name, v)
	}
	return n, nil
}

func rowsToMaps(rows pgx.Rows) ([]map[string]any, error) {
	fieldDescriptions := rows.FieldDescriptions()
	columnNames := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columnNames[i] = string(fd.Name)
	}

	result := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePointers := make([]any, len(columnNames))
		for i := range values {
			valuePointers[i] = &values[i]
		}
		if err := rows.Scan(valuePointers...); err != nil {
			return nil, err
		}

		rowMap := make(map[string]any, len(columnNames))
		for i, name := range columnNames {
			rowMap[name] = values[i]
		}
		result = append(result, rowMap)
	}
	return result, rows.Err()
}

// buildUpsertQuery inserts the row or, when the primary key already exists,
// replaces the non-key columns.
func buildUpsertQuery(tbl schema.Table, pk string, data map[string]any) (string, []any, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var columns, placeholders, setClauses []string
	var args []any
	for _, key := range keys {
		if !hasColumn(tbl, key) {
			return "", nil, fmt.Errorf("unknown column %q", key)
		}
		args = append(args, data[key])
		columns = append(columns, colIdent(key))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		if key != pk {
			setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", colIdent(key), colIdent(key)))
		}
	}

	var query strings.Builder
	fmt.Fprintf(&query, "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET ",
		tableIdent(tbl),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		colIdent(pk),
	)
	if len(setClauses) == 0 {
		// payload was the bare key; touch it so RETURNING still yields the row
		setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", colIdent(pk), colIdent(pk)))
	}
	query.WriteString(strings.Join(setClauses, ", "))
	query.WriteString(" RETURNING *")
	return query.String(), args, nil
}
