package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/marksapp/marks/internal/auth"
	"github.com/marksapp/marks/internal/config"
	"github.com/marksapp/marks/internal/db"
	"github.com/marksapp/marks/internal/handler"
	"github.com/marksapp/marks/internal/logger"
	"github.com/marksapp/marks/internal/notify"
	"github.com/marksapp/marks/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
			defer func() { _ = log.Sync() }()

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			sessionManager := auth.NewSessionManager(database, cfg.DB.Driver, cfg.SessionLifetime, !cfg.InsecureCookies)

			ctx := context.Background()
			oidcProvider, err := auth.NewProvider(ctx, cfg)
			if err != nil {
				return err
			}

			broker, err := newBroker(ctx, cfg, log)
			if err != nil {
				return err
			}

			userStore := store.NewUserStore(database)
			bookmarkStore := store.NewBookmarkStore(database, notify.ChangeFunc(broker))
			tokenStore := auth.NewSQLTokenStore(database)

			authHandlers := auth.NewHandlers(oidcProvider, sessionManager, userStore, cfg.OIDC.RedirectURL, !cfg.InsecureCookies)
			authMiddleware := auth.NewMiddleware(sessionManager, userStore)

			router := handler.NewRouter(handler.Deps{
				SessionManager: sessionManager,
				AuthHandlers:   authHandlers,
				AuthMiddleware: authMiddleware,
				Bookmarks:      bookmarkStore,
				UserStore:      userStore,
				TokenStore:     tokenStore,
				Broker:         broker,
				Log:            log,
			})

			log.Info("listening", logger.String("addr", cfg.HTTP.Addr))
			return http.ListenAndServe(cfg.HTTP.Addr, router)
		},
	}
}

// newBroker selects the change-notification backend. Memory serves a single
// process; redis fans events out across instances.
func newBroker(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Broker, error) {
	if cfg.Notifier.Backend != "redis" {
		return notify.NewMemoryBroker(log), nil
	}
	client, err := notify.Dial(ctx, notify.DialOptions{
		Addr:     cfg.Notifier.Redis.Addr,
		Username: cfg.Notifier.Redis.Username,
		Password: cfg.Notifier.Redis.Password,
		DB:       cfg.Notifier.Redis.DB,
	}, log)
	if err != nil {
		return nil, err
	}
	return notify.NewRedisBroker(client, log), nil
}
