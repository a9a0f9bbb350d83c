package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/authgate/authgate/internal/api/http/handler"
	"github.com/authgate/authgate/internal/api/http/middleware"
	"github.com/authgate/authgate/internal/api/http/router"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/logger"
	"github.com/authgate/authgate/internal/model"
	"github.com/authgate/authgate/internal/repository/postgres"
	redisrepo "github.com/authgate/authgate/internal/repository/redis"
	"github.com/authgate/authgate/internal/server"
	"github.com/authgate/authgate/internal/service"
	"github.com/authgate/authgate/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	store, cleanup, err := newAccountStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize account store", "error", err)
	}
	defer cleanup()

	codec := token.NewJWT(token.Config{
		Secret:      cfg.JWT.Secret,
		AccessTTL:   cfg.JWT.AccessTTL,
		RotationTTL: cfg.JWT.RotationTTL,
		Leeway:      cfg.JWT.Leeway,
	})

	reconciler := service.NewReconciler(store, cfg.Login.RefreshProfileOnLogin, logger.Component("reconciler"))
	issuer := service.NewCredentialIssuer(codec, store, logger.Component("issuer"))

	authenticate := middleware.NewAuthenticate(codec, store, issuer, middleware.Config{
		AccessHeader:  cfg.JWT.AccessHeader,
		RefreshHeader: cfg.JWT.RefreshHeader,
		ExemptPaths:   cfg.HTTP.ExemptPaths,
	}, logger.Component("authenticate"))

	authHandler := handler.NewAuth(reconciler, issuer, cfg.JWT.AccessHeader, cfg.JWT.RefreshHeader, logger.Component("auth"))

	engine := router.New(authHandler, authenticate, logger.Component("http")).Register()
	httpServer := server.NewHTTPServer(engine, fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func newAccountStore(ctx context.Context, cfg *config.Config) (model.AccountStore, func(), error) {
	switch cfg.Database.Backend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisrepo.NewAccountRepository(client), func() { _ = client.Close() }, nil
	case "postgres":
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewAccountRepository(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown database backend: %q", cfg.Database.Backend)
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
