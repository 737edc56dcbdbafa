package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/nxkoriyav/accountd/internal/db"
	"github.com/nxkoriyav/accountd/internal/handlers"
	"github.com/nxkoriyav/accountd/internal/lock"
	"github.com/nxkoriyav/accountd/internal/logger"
	"github.com/nxkoriyav/accountd/internal/repository/postgres"
	"github.com/nxkoriyav/accountd/internal/service/account"
	"github.com/nxkoriyav/accountd/internal/service/auth"
	"github.com/nxkoriyav/accountd/internal/service/ledger"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger

	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	log := logger.New(c.Environment, c.LogLevel)

	app := &ServerApp{
		ListenAddr: c.ListenAddr,
		Logger:     log,
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	// Connect to the shared lock backend
	redisAddr := c.RedisAddr
	if redisAddr == "" {
		if c.Environment == logger.EnvProduction {
			return nil, errors.New("redis address is required in production")
		}

		// No backend configured outside production: run an embedded one,
		// the locks then serialize this process only
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("error while starting embedded redis. Err: %w", err)
		}
		app.closers = append(app.closers, mr.Close)
		redisAddr = mr.Addr()
		log.Warn("no redis address configured, using embedded redis", "addr", redisAddr)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	app.closers = append(app.closers, func() { _ = redisClient.Close() })

	// Initialize repositories and the lock coordinator
	storage := postgres.NewStorage(pool)
	locks := lock.NewCoordinator(lock.Config{}, lock.NewRedis(redisClient), log)

	// Initialize services
	tokenManager, err := auth.NewTokenManager(auth.TokenConfig{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService := auth.NewService(auth.DefaultHasher, tokenManager, storage.User())
	accountService := account.NewService(storage)
	ledgerService := ledger.NewService(storage, locks, log)

	app.Handler = handlers.NewRouter(authService, accountService, ledgerService, log)

	return app, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	s.Close()

	return err
}

// Close releases everything the app owns, last acquired first
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
