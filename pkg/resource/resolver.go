package resource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tabrest/tabrest/pkg/pgx/schema"
)

// RouteType constrains the URL path segment carrying a resource's primary key.
type RouteType string

const (
	RouteString RouteType = "string"
	RouteInt    RouteType = "int"
	RouteFloat  RouteType = "float"
)

// ParseRouteType parses a route-type tag as used in ad-hoc view specs.
func ParseRouteType(tag string) (RouteType, error) {
	switch RouteType(tag) {
	case RouteString, RouteInt, RouteFloat:
		return RouteType(tag), nil
	default:
		return "", fmt.Errorf("unknown primary-key type %q (want string, int or float)", tag)
	}
}

// Match reports whether a URL path segment parses as the route type. Segments
// that don't match must be treated as a routing-level miss, not an
// application error.
func (t RouteType) Match(segment string) bool {
	if segment == "" {
		return false
	}
	switch t {
	case RouteInt:
		_, err := strconv.ParseInt(segment, 10, 64)
		return err == nil
	case RouteFloat:
		_, err := strconv.ParseFloat(segment, 64)
		return err == nil
	default:
		return true
	}
}

// Value converts a matching path segment to the Go value passed to the
// database as the primary-key argument.
func (t RouteType) Value(segment string) (any, error) {
	switch t {
	case RouteInt:
		return strconv.ParseInt(segment, 10, 64)
	case RouteFloat:
		return strconv.ParseFloat(segment, 64)
	default:
		return segment, nil
	}
}

// DataType returns the PostgreSQL column type corresponding to the route
// type, used when synthesizing a primary-key column for an ad-hoc view.
func (t RouteType) DataType() string {
	switch t {
	case RouteInt:
		return "integer"
	case RouteFloat:
		return "double precision"
	default:
		return "text"
	}
}

// ResolveRouteType decides the routing type for a primary key given its
// column metadata. Composite keys are not tracked individually and always
// degrade to string, as does any column type without a better mapping.
func ResolveRouteType(pkColumns []schema.Column) RouteType {
	if len(pkColumns) != 1 {
		return RouteString
	}
	return routeTypeFor(pkColumns[0].DataType)
}

func routeTypeFor(dataType string) RouteType {
	switch strings.ToLower(dataType) {
	case "character", "character varying", "varchar", "char", "text", "uuid", "name", "citext":
		return RouteString
	case "smallint", "integer", "bigint", "int2", "int4", "int8", "smallserial", "serial", "bigserial":
		return RouteInt
	case "numeric", "decimal", "real", "double precision", "float4", "float8", "money":
		return RouteFloat
	default:
		return RouteString
	}
}
