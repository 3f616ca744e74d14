// Package resource turns database relation metadata into API resource
// descriptors: the URL prefix, allowed HTTP methods and primary-key routing
// type for each table or view exposed by the server.
package resource

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/tabrest/tabrest/pkg/pgx/schema"
)

// ErrNoPrimaryKey is returned when a resource's relation declares no primary
// key. Primary-key routing cannot function without one, so this is a fatal
// configuration error at startup.
var ErrNoPrimaryKey = errors.New("no primary key")

// defaultMethods is the method set applied when a resource declares none.
func defaultMethods() []string {
	return []string{http.MethodGet, http.MethodPost}
}

// Descriptor holds everything the route binder needs to expose one resource.
type Descriptor struct {
	// Name identifies the resource, normally the relation name.
	Name string
	// URLPrefix is "/" + lowercase(Name).
	URLPrefix string
	// Methods is the set of allowed HTTP verbs, upper-cased, in a stable order.
	Methods []string
	// PrimaryKey is the routing primary-key column name. For composite keys
	// this is the first key column; the rest are only flagged via PKType.
	PrimaryKey string
	// PKType is the routing type constraint for the {id} path segment.
	PKType RouteType
	// Table carries the full column metadata, served by the meta endpoint and
	// used to validate write payloads.
	Table schema.Table
}

// Allows reports whether the method is in the resource's allowed set.
func (d *Descriptor) Allows(method string) bool {
	return slices.Contains(d.Methods, method)
}

// RouteTemplate renders the URL template listed by the index endpoint,
// e.g. "/users{/id}".
func (d *Descriptor) RouteTemplate() string {
	return fmt.Sprintf("%s{/%s}", d.URLPrefix, d.PrimaryKey)
}

// Definition is a caller-supplied resource declaration for the explicit
// discovery mode. A definition with no Columns relies on live reflection to
// fill in its relation metadata.
type Definition struct {
	// Name of the resource; required.
	Name string `mapstructure:"name"`
	// Table is the backing relation name; defaults to lowercase(Name).
	Table string `mapstructure:"table"`
	// Methods optionally restricts the allowed HTTP verbs.
	Methods []string `mapstructure:"methods"`
	// Columns statically declares the relation's columns. Empty means the
	// relation is reflected from the database instead.
	Columns []schema.Column `mapstructure:"columns"`
}

// TableName returns the backing relation name for the definition.
func (def Definition) TableName() string {
	if def.Table != "" {
		return def.Table
	}
	return strings.ToLower(def.Name)
}

// Build derives a Descriptor from relation metadata. declared optionally
// restricts the method set; readOnly overrides any declaration and forces
// {GET}. A relation without a primary key is rejected.
func Build(name string, tbl schema.Table, declared []string, readOnly bool) (*Descriptor, error) {
	if len(tbl.PrimaryKeys) == 0 {
		return nil, fmt.Errorf("resource %s: %w", name, ErrNoPrimaryKey)
	}

	methods := defaultMethods()
	if len(declared) > 0 {
		var err error
		methods, err = normalizeMethods(declared)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
	}
	// read-only is an override, not a merge
	if readOnly {
		methods = []string{http.MethodGet}
	}

	return &Descriptor{
		Name:       name,
		URLPrefix:  "/" + strings.ToLower(name),
		Methods:    methods,
		PrimaryKey: tbl.PrimaryKeys[0],
		PKType:     ResolveRouteType(tbl.PrimaryKeyColumns()),
		Table:      tbl,
	}, nil
}

// normalizeMethods upper-cases and orders a declared method set. A method
// outside the CRUD verbs is a configuration error, not something to drop
// silently: a typo would otherwise register a resource with missing routes.
func normalizeMethods(methods []string) ([]string, error) {
	order := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	seen := make(map[string]bool, len(methods))
	for _, m := range methods {
		u := strings.ToUpper(m)
		if !slices.Contains(order, u) {
			return nil, fmt.Errorf("unsupported method %q (want GET, POST, PUT, PATCH or DELETE)", m)
		}
		seen[u] = true
	}
	var out []string
	for _, m := range order {
		if seen[m] {
			out = append(out, m)
		}
	}
	return out, nil
}
