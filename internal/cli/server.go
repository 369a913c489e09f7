package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"amia-console/internal/app"
	"amia-console/internal/auth"
	"amia-console/internal/config"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
	"amia-console/internal/infra/memory"
	"amia-console/internal/infra/postgres"
	redisinfra "amia-console/internal/infra/redis"
	"amia-console/internal/logger"
	transport "amia-console/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the console server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// accounts is a credential store that can also load profiles by id.
type accounts interface {
	auth.Directory
	LoadProfile(ctx context.Context, id string) (domain.Profile, error)
}

type backends struct {
	store    *datastore.Store
	provider *auth.Provider
	closers  []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	ws := transport.NewWSHandler(transport.ConsoleDeps{
		Store:         b.store,
		Auth:          b.provider,
		ToastDuration: config.TTLDuration(cfg.Console.ToastDuration, 3*time.Second),
		Log:           log,
	})
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           transport.NewRouter(ws, log),
		ReadHeaderTimeout: 15 * time.Second,
	}
	server.RegisterOnShutdown(ws.CloseAll)

	go func() {
		log.Info("starting console", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openBackends picks Postgres or memory for data and accounts, and Redis or
// memory for tokens and the profile cache, from what cfg configures.
func openBackends(ctx context.Context, cfg config.Config, log *logger.Logger) (*backends, error) {
	b := &backends{}
	var directory accounts

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return nil, err
		}
		db := postgres.Open(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		b.store = postgres.NewStore(db)

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		directory = postgres.NewDirectory(pool)
		if len(cfg.Auth.Users) > 0 {
			log.Warn("auth.users ignored with postgres; use seed-admin", "count", len(cfg.Auth.Users))
		}
	} else {
		b.store, _ = memory.NewStore()
		users, err := bootstrapDirectory(cfg.Auth.Users)
		if err != nil {
			return nil, err
		}
		directory = users
		log.Info("using in-memory data store", "users", len(cfg.Auth.Users))
	}

	if cfg.Console.SeedDemoData {
		if err := seedIfEmpty(ctx, b.store); err != nil {
			b.close()
			return nil, err
		}
	}

	sessionTTL := config.TTLDuration(cfg.Auth.SessionTTL, 12*time.Hour)
	profileTTL := config.TTLDuration(cfg.Auth.ProfileTTL, 10*time.Minute)
	var (
		tokens   auth.TokenStore
		profiles auth.ProfileRepository
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			b.close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		tokens = redisinfra.NewTokenStore(client, sessionTTL)
		profiles = redisinfra.NewProfileCache(client, directory, profileTTL)
	} else {
		tokens = memory.NewTokenStore(sessionTTL)
		profiles = memory.NewProfileCache(directory, profileTTL)
	}

	b.provider = auth.NewProvider(directory, profiles, tokens, log)
	return b, nil
}

func bootstrapDirectory(users []config.User) (*memory.Directory, error) {
	directory := memory.NewDirectory()
	for _, u := range users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		role := domain.Role(strings.TrimSpace(u.Role))
		if role == "" {
			role = domain.RoleAdmin
		}
		directory.Add(domain.Profile{Email: u.Email, FullName: u.Name, Role: role, PasswordHash: hash})
	}
	return directory, nil
}

func seedIfEmpty(ctx context.Context, store *datastore.Store) error {
	existing, err := store.Positions.Select(ctx, datastore.Query{}.Take(1))
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return datastore.SeedDemo(ctx, store)
}

// Compile-time check that the provider satisfies what consoles need.
var _ app.SessionProvider = (*auth.Provider)(nil)
