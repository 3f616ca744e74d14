package main

import (
	"cmp"
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tabrest/tabrest/pkg/httputil/middleware"
	"github.com/tabrest/tabrest/pkg/metrics"
	"github.com/tabrest/tabrest/pkg/rest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Reflects the target database schema and serves a REST resource per table or view`,
	Run:   runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringP("api.pg.connString", "c", "", "PostgreSQL connection string")
	f.StringP("api.listenAddr", "l", "", "API server listen address")
	f.String("api.schema", "", "Schema namespace to reflect (default public)")
	f.Bool("api.readOnly", false, "Only allow GET on every resource")
	f.Bool("api.reflectAll", true, "Expose every table and view in the schema")
	f.StringSlice("api.excludeTables", nil, "Table names to skip during reflection")
	f.String("api.viewSpec", "", "Ad-hoc view specs: name/pk_name/pk_type,... (pk_type: string, int, float)")
	f.String("metrics.listenAddr", "", "Prometheus metrics listen address; empty disables")

	viper.BindPFlags(f)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	logger, err := buildLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg == nil {
		logger.Fatal("configuration not loaded")
	}

	connString := cmp.Or(
		viper.GetString("api.pg.connString"),
		cfg.API.PG.ConnString,
		os.Getenv("TABREST_API_PG_CONN_STRING"),
	)
	if connString == "" {
		logger.Fatal("PostgreSQL connection string required")
	}

	// flag overrides
	if addr := viper.GetString("api.listenAddr"); addr != "" {
		cfg.API.ListenAddr = addr
	}
	if cfg.API.ListenAddr == "" {
		cfg.API.ListenAddr = ":8080"
	}
	if viper.IsSet("api.readOnly") {
		cfg.API.ReadOnly = cfg.API.ReadOnly || viper.GetBool("api.readOnly")
	}
	if spec := viper.GetString("api.viewSpec"); spec != "" {
		cfg.API.ViewSpec = spec
	}
	if schema := viper.GetString("api.schema"); schema != "" {
		cfg.API.Schema = schema
	}
	if exclude := viper.GetStringSlice("api.excludeTables"); len(exclude) > 0 {
		cfg.API.ExcludeTables = exclude
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := rest.NewServer(ctx, rest.Options{
		ConnString:    connString,
		Schema:        cfg.API.Schema,
		ReadOnly:      cfg.API.ReadOnly,
		ReflectAll:    cfg.API.ReflectAll,
		ExcludeTables: cfg.API.ExcludeTables,
		Resources:     cfg.API.Resources,
		ViewSpec:      cfg.API.ViewSpec,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	server.Use(
		middleware.RequestID,
		middleware.CORSWithOptions(nil),
	)
	if len(cfg.API.BasicAuth) > 0 {
		server.Use(middleware.VerifyBasicAuth(&middleware.BasicAuthConfig{
			Credentials: cfg.API.BasicAuth,
		}))
	}
	server.Use(metrics.Instrument)
	if logLevel != "none" {
		server.Use(middleware.LoggerWithOptions(&middleware.LoggerOptions{Logger: logger}))
	}

	var wg sync.WaitGroup
	metricsAddr := cmp.Or(viper.GetString("metrics.listenAddr"), cfg.Metrics.ListenAddr)
	if metricsAddr != "" {
		metrics.StartPrometheusServer(ctx, &wg, &metrics.PromServerOpts{Addr: metricsAddr})
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(cfg.API.ListenAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown error", zap.Error(err))
	}
	cancel()
	wg.Wait()

	logger.Info("server gracefully stopped")
}

func buildLogger() (*zap.Logger, error) {
	if logLevel == "none" {
		return zap.NewNop(), nil
	}
	level, err := zap.ParseAtomicLevel(logLevel)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	return zcfg.Build()
}
