package resource

import (
	"fmt"
	"strings"
)

// ViewSpec declares a primary key for a view whose metadata exposes none.
// Specs are supplied out-of-band as a compact string:
//
//	view1_name/pk1_name/pk1_type,view2_name/pk2_name/pk2_type
//
// with pk_type one of string, int or float.
type ViewSpec struct {
	Name       string
	PrimaryKey string
	PKType     RouteType
}

// ParseViewSpecs parses the compact view-spec string. A malformed spec is a
// configuration error; startup aborts rather than registering a subset.
func ParseViewSpecs(s string) ([]ViewSpec, error) {
	var specs []ViewSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, "/")
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed view spec %q (want name/pk_name/pk_type)", part)
		}
		name, pk, tag := fields[0], fields[1], fields[2]
		if name == "" || pk == "" {
			return nil, fmt.Errorf("malformed view spec %q (empty name or primary key)", part)
		}
		pkType, err := ParseRouteType(tag)
		if err != nil {
			return nil, fmt.Errorf("view spec %q: %w", part, err)
		}
		specs = append(specs, ViewSpec{Name: name, PrimaryKey: pk, PKType: pkType})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("empty view spec %q", s)
	}
	return specs, nil
}
