package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tabrest/tabrest/pkg/httputil"
	"github.com/tabrest/tabrest/pkg/metrics"
	pg "github.com/tabrest/tabrest/pkg/pgx"
	"github.com/tabrest/tabrest/pkg/pgx/schema"
	"github.com/tabrest/tabrest/pkg/resource"
)

// Options configures server construction. Discovery runs once inside
// NewServer; any discovery failure aborts construction, no partially
// registered server is returned.
type Options struct {
	// ConnString is the PostgreSQL connection string. Required.
	ConnString string
	// Schema optionally overrides the default schema namespace ("public").
	Schema string
	// ReadOnly forces every resource to {GET}.
	ReadOnly bool
	// ReflectAll exposes every table and view in the target schema.
	ReflectAll bool
	// ExcludeTables lists relation names skipped during full reflection.
	ExcludeTables []string
	// Resources are explicit caller-supplied definitions, registered first.
	Resources []resource.Definition
	// ViewSpec is the compact ad-hoc view declaration string
	// ("name/pk/type,..."), registered last.
	ViewSpec string
	// ConnectTimeout bounds the startup connection retry. Zero means one
	// minute.
	ConnectTimeout time.Duration
	// Logger defaults to a production zap logger.
	Logger *zap.Logger
}

// Server is the composition root: it owns the connection pool, the registry
// of discovered resources and the route table. After NewServer returns, both
// the registry and the route table are immutable.
type Server struct {
	pool     *pgxpool.Pool
	router   *httputil.Router
	registry *resource.Registry
	logger   *zap.Logger
}

// NewServer connects to the database, runs resource discovery per opts and
// binds every discovered resource, the index endpoint and a liveness probe.
func NewServer(ctx context.Context, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	connectTimeout := opts.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = time.Minute
	}
	pool, err := pg.NewPool(ctx, opts.ConnString, connectTimeout)
	if err != nil {
		return nil, err
	}

	registry := resource.NewRegistry(opts.ReadOnly, opts.Schema)
	if err := discover(ctx, pool, registry, opts, logger); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Server{
		pool:     pool,
		router:   httputil.NewRouter(),
		registry: registry,
		logger:   logger,
	}

	b := newBinder(s.router, pool, logger)
	for _, desc := range registry.Resources() {
		b.bind(desc)
	}
	s.router.Handle("GET /{$}", http.HandlerFunc(s.handleIndex))
	s.router.Handle("GET /healthz", http.HandlerFunc(s.handleHealthz))

	metrics.RegisteredResources.Set(float64(len(registry.Resources())))
	return s, nil
}

// discover runs the three discovery modes in order: explicit definitions,
// full reflection, ad-hoc view specs.
func discover(ctx context.Context, pool *pgxpool.Pool, registry *resource.Registry, opts Options, logger *zap.Logger) error {
	d := resource.NewDiscoverer(schema.NewReflector(pool), registry, logger)

	if len(opts.Resources) > 0 {
		if err := d.DiscoverExplicit(ctx, opts.Resources); err != nil {
			return fmt.Errorf("register explicit resources: %w", err)
		}
	}
	if opts.ReflectAll {
		if err := d.DiscoverAll(ctx, opts.ExcludeTables); err != nil {
			return fmt.Errorf("reflect all: %w", err)
		}
	}
	if opts.ViewSpec != "" {
		if err := d.DiscoverViews(ctx, opts.ViewSpec); err != nil {
			return fmt.Errorf("register ad-hoc views: %w", err)
		}
	}
	return nil
}

// handleIndex lists every registered resource's URL template, keyed by
// resource name, e.g. {"users": "/users{/id}"}.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, s.registry.Routes())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		writeError(w, s.logger, ServiceUnavailable("database unavailable"))
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Use adds middleware to the underlying router.
func (s *Server) Use(mw httputil.Middleware, additional ...httputil.Middleware) {
	s.router.Use(mw, additional...)
}

// Registry exposes the immutable resource registry.
func (s *Server) Registry() *resource.Registry {
	return s.registry
}

// Handler returns the fully wired HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router.Handler()
}

// Start serves HTTP on addr until the server is shut down.
func (s *Server) Start(addr string) error {
	s.logger.Info("server starting",
		zap.String("addr", addr),
		zap.Int("resources", len(s.registry.Resources())))
	return s.router.ListenAndServe(addr)
}

// Shutdown gracefully stops the HTTP server and closes the pool.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.router.Shutdown(ctx)
	s.pool.Close()
	return err
}
