package resource

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"github.com/tabrest/tabrest/pkg/pgx/schema"
)

// Discoverer enumerates candidate resources and registers their descriptors.
// Three modes compose in one startup pass: explicit caller-supplied
// definitions, full schema reflection, and ad-hoc view specs. Any failure is
// fatal; no partial registration is kept.
type Discoverer struct {
	reflector *schema.Reflector
	registry  *Registry
	logger    *zap.Logger

	// full reflection pass, run at most once per startup
	reflected   []schema.Table
	reflectDone bool
}

func NewDiscoverer(reflector *schema.Reflector, registry *Registry, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{reflector: reflector, registry: registry, logger: logger}
}

func (d *Discoverer) reflect(ctx context.Context) ([]schema.Table, error) {
	if d.reflectDone {
		return d.reflected, nil
	}
	tables, err := d.reflector.Load(ctx, d.registry.Schema)
	if err != nil {
		return nil, fmt.Errorf("reflect schema: %w", err)
	}
	d.reflected = tables
	d.reflectDone = true
	d.logger.Info("reflected schema",
		zap.String("schema", d.registry.Schema),
		zap.Int("relations", len(tables)))
	return tables, nil
}

// DiscoverExplicit registers caller-supplied resource definitions. If any
// definition carries no static column metadata, one reflection pass fills in
// the relation metadata for all such definitions.
func (d *Discoverer) DiscoverExplicit(ctx context.Context, defs []Definition) error {
	needsReflection := slices.ContainsFunc(defs, func(def Definition) bool {
		return len(def.Columns) == 0
	})
	if needsReflection {
		if _, err := d.reflect(ctx); err != nil {
			return err
		}
	}

	for _, def := range defs {
		if def.Name == "" {
			return fmt.Errorf("explicit resource with empty name")
		}

		var tbl schema.Table
		if len(def.Columns) > 0 {
			tbl = staticTable(def, d.registry.Schema)
		} else {
			found := false
			for _, t := range d.reflected {
				if t.Name == def.TableName() {
					tbl = t
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("explicit resource %s: relation %q not found in schema", def.Name, def.TableName())
			}
		}

		if err := d.register(def.Name, tbl, def.Methods); err != nil {
			return err
		}
	}
	return nil
}

// DiscoverAll reflects the whole target schema and registers every relation
// not named in exclude.
func (d *Discoverer) DiscoverAll(ctx context.Context, exclude []string) error {
	tables, err := d.reflect(ctx)
	if err != nil {
		return err
	}

	for _, tbl := range tables {
		if slices.Contains(exclude, tbl.Name) {
			d.logger.Debug("excluded from reflection", zap.String("table", tbl.Name))
			continue
		}
		// views and matviews rarely expose primary-key metadata; they are
		// reachable via an ad-hoc view spec instead
		if len(tbl.PrimaryKeys) == 0 {
			d.logger.Debug("skipping relation without primary key", zap.String("table", tbl.Name))
			continue
		}
		var declared []string
		if d.registry.ReadOnly {
			declared = []string{http.MethodGet}
		}
		if err := d.register(tbl.Name, tbl, declared); err != nil {
			return err
		}
	}
	return nil
}

// DiscoverViews registers ad-hoc views from a compact spec string. For each
// spec a resource is synthesized around the declared primary key; every other
// column is reflected from the live relation as a nullable attribute.
func (d *Discoverer) DiscoverViews(ctx context.Context, specString string) error {
	specs, err := ParseViewSpecs(specString)
	if err != nil {
		return err
	}

	for _, spec := range specs {
		live, err := d.reflector.LoadTable(ctx, d.registry.Schema, spec.Name)
		if err != nil {
			return fmt.Errorf("view %s: %w", spec.Name, err)
		}
		if err := d.register(spec.Name, synthesize(spec, live), nil); err != nil {
			return err
		}
	}
	return nil
}

// synthesize builds relation metadata for a view that exposes no primary key
// of its own: the declared key first, then the remaining live columns as
// nullable attributes.
func synthesize(spec ViewSpec, live schema.Table) schema.Table {
	cols := []schema.Column{{
		Name:         spec.PrimaryKey,
		DataType:     spec.PKType.DataType(),
		IsPrimaryKey: true,
	}}
	for _, c := range live.Columns {
		if c.Name == spec.PrimaryKey {
			continue
		}
		c.IsNullable = true
		c.IsPrimaryKey = false
		cols = append(cols, c)
	}
	return schema.Table{
		Schema:      live.Schema,
		Name:        live.Name,
		Type:        live.Type,
		Columns:     cols,
		PrimaryKeys: []string{spec.PrimaryKey},
	}
}

func (d *Discoverer) register(name string, tbl schema.Table, declared []string) error {
	desc, err := Build(name, tbl, declared, d.registry.ReadOnly)
	if err != nil {
		return err
	}
	if err := d.registry.Add(desc); err != nil {
		return err
	}
	d.logger.Info("registered resource",
		zap.String("name", desc.Name),
		zap.String("url", desc.URLPrefix),
		zap.Strings("methods", desc.Methods),
		zap.String("pk", desc.PrimaryKey),
		zap.String("pk_type", string(desc.PKType)))
	return nil
}

func staticTable(def Definition, schemaName string) schema.Table {
	if schemaName == "" {
		schemaName = schema.DefaultSchema
	}
	var pkeys []string
	for _, c := range def.Columns {
		if c.IsPrimaryKey {
			pkeys = append(pkeys, c.Name)
		}
	}
	return schema.Table{
		Schema:      schemaName,
		Name:        def.TableName(),
		Type:        schema.TypeTable,
		Columns:     def.Columns,
		PrimaryKeys: pkeys,
	}
}
