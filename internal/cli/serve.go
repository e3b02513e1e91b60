package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cityscale/hypertransit/internal/server"
	"github.com/cityscale/hypertransit/pkg/cache"
	"github.com/cityscale/hypertransit/pkg/pipeline"
	"github.com/cityscale/hypertransit/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr          string
	redisAddr     string
	redisPassword string
	redisDB       int
	mongoURI      string
	mongoDB       string
	noCache       bool
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	so := serveOpts{
		addr:    ":8080",
		mongoDB: "hypertransit",
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the JSON HTTP API.

Endpoints live under /api/v1 (generate, route, compare, render, networks),
with /healthz and Prometheus /metrics beside them. Request bodies take the
same fields as the CLI flags; omitted fields fall back to the same
defaults.

By default results cache on local disk and archived networks live in
memory. Point --redis-addr at a Redis instance to share the cache across
replicas, and --mongo-uri at MongoDB to persist the archive.

Examples:
  hypertransit serve
  hypertransit serve --addr :9000 --redis-addr localhost:6379
  hypertransit serve --mongo-uri mongodb://localhost:27017`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), so)
		},
	}

	cmd.Flags().StringVar(&so.addr, "addr", so.addr, "listen address")
	cmd.Flags().StringVar(&so.redisAddr, "redis-addr", "", "Redis address for the shared cache (empty: local disk)")
	cmd.Flags().StringVar(&so.redisPassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&so.redisDB, "redis-db", 0, "Redis database number")
	cmd.Flags().StringVar(&so.mongoURI, "mongo-uri", "", "MongoDB URI for the network archive (empty: in-memory)")
	cmd.Flags().StringVar(&so.mongoDB, "mongo-db", so.mongoDB, "MongoDB database name")
	cmd.Flags().BoolVar(&so.noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe assembles the cache, store, and runner, then serves until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, so serveOpts) error {
	cch, err := c.serveCache(ctx, so)
	if err != nil {
		return err
	}

	st, err := c.serveStore(ctx, so)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	// On a shared Redis backend, scope server entries apart from ad-hoc
	// CLI runs pointed at the same database.
	var keyer cache.Keyer
	if so.redisAddr != "" {
		keyer = cache.NewScopedKeyer(nil, "srv:")
	}

	runner := pipeline.NewRunner(cch, keyer, c.Logger)
	defer runner.Close()

	// Pipeline and cache events feed the Prometheus counters from here on.
	server.RegisterMetricsHooks()

	srv := server.New(server.Options{
		Addr:   so.addr,
		Runner: runner,
		Store:  st,
		Logger: c.Logger,
	})

	c.Logger.Info("Serving HTTP API", "addr", so.addr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case <-ctx.Done():
		c.Logger.Info("Shutting down")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// serveCache picks the cache backend from the serve flags.
func (c *CLI) serveCache(ctx context.Context, so serveOpts) (cache.Cache, error) {
	if so.noCache {
		return cache.NewNullCache(), nil
	}
	if so.redisAddr != "" {
		c.Logger.Info("Using Redis cache", "addr", so.redisAddr)
		return cache.NewRedisCache(ctx, so.redisAddr, so.redisPassword, so.redisDB)
	}
	return newCache(false)
}

// serveStore picks the archive backend from the serve flags.
func (c *CLI) serveStore(ctx context.Context, so serveOpts) (store.Store, error) {
	if so.mongoURI != "" {
		c.Logger.Info("Using MongoDB archive", "database", so.mongoDB)
		return store.NewMongoStore(ctx, so.mongoURI, so.mongoDB)
	}
	return store.NewMemoryStore(), nil
}
