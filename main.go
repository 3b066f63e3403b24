package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"circloth_server/config"
	"circloth_server/likeindex"
	"circloth_server/logger"
	"circloth_server/routes"
	"circloth_server/services"
	"circloth_server/socket"
	"circloth_server/store"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"

	cfgFile string
)

func main() {
	root := &cobra.Command{
		Use:          "circloth",
		Short:        "Circloth clothing exchange API",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file")
	root.AddCommand(serveCmd, migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return nil, err
	}
	return cfg, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and socket.io server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		return serve(cmd.Context(), cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the SQL schema",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.Storage.Driver == config.DriverDynamo {
			return errors.New("migrate only applies to the postgres and sqlite drivers")
		}
		s, err := store.OpenSQL(cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Migrate(); err != nil {
			return err
		}
		logger.Info("schema migrated", zap.String("driver", cfg.Storage.Driver))
		return nil
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	var index services.LikeIndex
	if cfg.Redis.Enabled() {
		idx, err := likeindex.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer idx.Close()

		likes, err := st.AllLikeActions(ctx)
		if err != nil {
			return fmt.Errorf("failed to load likes for the index: %w", err)
		}
		if err := idx.Rebuild(ctx, likes); err != nil {
			return err
		}
		logger.Info("like index rebuilt", zap.Int("likes", len(likes)))
		index = idx
	}

	sock := socket.NewSocketServer()
	go func() {
		if err := sock.Serve(); err != nil {
			logger.Error("socket.io server stopped", zap.Error(err))
		}
	}()
	defer sock.Close()

	chatService := &services.ChatService{Store: st, Notifier: sock}
	sock.Chats = chatService

	svc := routes.Services{
		Match:   &services.MatchService{Store: st, Index: index, PassExpiry: cfg.Matching.PassExpiry},
		Action:  &services.ActionService{Store: st, Index: index, Chats: chatService, Notifier: sock},
		Catalog: &services.CatalogService{Store: st, Index: index},
		User:    &services.UserService{Store: st, Index: index},
		Chat:    chatService,
	}
	if cfg.AWS.S3Bucket != "" {
		svc.Upload, err = services.NewUploadService(ctx, cfg.AWS.Region, cfg.AWS.Endpoint, cfg.AWS.S3Bucket)
		if err != nil {
			return err
		}
	}

	var limiter *routes.ActionLimiter
	if cfg.RateLimit.ActionsPerSecond > 0 {
		limiter = routes.NewActionLimiter(cfg.RateLimit.ActionsPerSecond, cfg.RateLimit.Burst)
		if cfg.RateLimit.IdleTTL > 0 {
			go limiter.RunCleanup(ctx, cfg.RateLimit.IdleTTL/2, cfg.RateLimit.IdleTTL)
		}
	}

	r := routes.NewRouter(svc, limiter)
	r.Handle("/socket.io/", sock.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
