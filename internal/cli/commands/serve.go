package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/restbind/internal/app"
	"github.com/conduit-lang/restbind/internal/orm/attachment"
	"github.com/conduit-lang/restbind/internal/orm/metadata"
	"github.com/conduit-lang/restbind/internal/orm/session"
	"github.com/conduit-lang/restbind/internal/web/server"
)

// NewServeCommand runs the HTTP API
func NewServeCommand(flags *globalFlags) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the entity API over HTTP",
		Long: `Serve every entity over HTTP until interrupted.

Routes (under server.api_prefix):
  GET   /{entity}/metadata   field catalog
  POST  /{entity}            create from JSON, form or multipart data
  GET   /{entity}/{id}       export one entity
  PATCH /{entity}/{id}       update from the request
  GET   /metadata            every catalog as JSON Lines
  GET   /openapi.json        OpenAPI 3.0 document
  GET   /files/{id}          a stored attachment`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.logger.Sync()

			if port > 0 {
				env.cfg.Server.Port = port
			}
			if host != "" {
				env.cfg.Server.Host = host
			}

			stack, err := newServeStack(cmd.Context(), env)
			if err != nil {
				return err
			}

			addr := env.cfg.Server.Address()
			srv, err := server.New(addr, stack.handler, env.logger)
			if err != nil {
				stack.close(context.Background())
				return err
			}

			gs := server.NewGracefulShutdown(srv, &server.ShutdownConfig{
				Timeout: env.cfg.Server.ShutdownTimeout,
				Logger:  env.logger,
			})
			gs.RegisterHook(stack.close)

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s%s\n",
				stack.app, addr, env.cfg.Server.APIPrefix)
			return gs.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides server.port)")
	cmd.Flags().StringVar(&host, "host", "", "Host to bind (overrides server.host)")
	return cmd
}

// serveStack is everything the HTTP handler depends on
type serveStack struct {
	db      *sql.DB
	redis   redis.UniversalClient
	app     *app.App
	handler http.Handler
	logger  *zap.Logger
}

func newServeStack(ctx context.Context, env *environment) (*serveStack, error) {
	cfg := env.cfg
	stack := &serveStack{logger: env.logger}

	db, dialect, err := env.openDatabase(ctx)
	if err != nil {
		return nil, err
	}
	stack.db = db

	baseURL := cfg.Attachments.BaseURL
	if baseURL == "" {
		baseURL = cfg.Server.APIPrefix + "/files"
	}
	store, err := attachment.NewLocalStore(&attachment.Config{
		Dir:          cfg.Attachments.Dir,
		BaseURL:      baseURL,
		MaxFileSize:  cfg.Attachments.MaxFileSize,
		AllowedTypes: cfg.Attachments.AllowedTypes,
	})
	if err != nil {
		stack.close(ctx)
		return nil, err
	}

	a, err := app.New(store, env.logger)
	if err != nil {
		stack.close(ctx)
		return nil, err
	}
	stack.app = a

	if cfg.Database.AutoMigrate {
		sess := session.New(db, dialect, a.Registry, session.WithLogger(env.logger))
		if err := createTables(ctx, sess, a, nil); err != nil {
			stack.close(ctx)
			return nil, err
		}
	}

	var catalogStore metadata.Store
	if cfg.Catalog.RedisAddr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{cfg.Catalog.RedisAddr},
		})
		stack.redis = client
		if err := client.Ping(ctx).Err(); err != nil {
			stack.close(ctx)
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Catalog.RedisAddr, err)
		}
		catalogStore = metadata.NewRedisStore(client, cfg.Catalog.Prefix, cfg.Catalog.TTL)
	}

	api := &server.API{
		App:         a,
		DB:          db,
		Dialect:     dialect,
		Catalogs:    metadata.NewCache(catalogStore, env.logger),
		Files:       store,
		Logger:      env.logger,
		Prefix:      cfg.Server.APIPrefix,
		MaxBodySize: cfg.Server.MaxBodySize,
		Version:     Version,
	}
	stack.handler = api.Routes()
	return stack, nil
}

// close releases the database and redis connections
func (s *serveStack) close(context.Context) error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	err := errors.Join(errs...)
	if err != nil {
		s.logger.Warn("failed to release connections", zap.Error(err))
	}
	return err
}
