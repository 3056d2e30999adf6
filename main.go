package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"goblog/internal/auth"
	"goblog/internal/blog"
	"goblog/internal/config"
	"goblog/internal/store"
	"goblog/internal/web"
)

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("unknown LOG_LEVEL %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// newSessionStore keeps sessions in Redis when REDIS_ADDR is set and in a
// signed cookie otherwise.
func newSessionStore(ctx context.Context, cfg *config.Config) (sessions.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return auth.NewCookieStore(cfg.SecretKey, cfg.SessionMaxAge), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, err
	}
	return auth.NewRedisStore(rdb, cfg.SessionMaxAge, cfg.SecretKey), func() { rdb.Close() }, nil
}

func main() {
	if err := config.LoadDotenv(); err != nil {
		logrus.Fatalf("Error loading .env file: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := newLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Dev {
		log.Warn("DEV=true: sessions will not survive a restart unless SECRET_KEY is set")
	}

	ctx := context.Background()

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	sessionStore, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer closeSessions()

	accounts := auth.NewAccounts(st)
	srv := web.NewServer(web.Options{
		Accounts:    accounts,
		Sessions:    auth.NewSessions(sessionStore, accounts),
		Posts:       blog.NewPosts(st),
		Logger:      log,
		TemplateDir: cfg.TemplateDir,
		StaticDir:   cfg.StaticDir,
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Listening on http://localhost%s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
