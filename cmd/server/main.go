package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"deedledger/internal/access"
	"deedledger/internal/audit"
	audithandler "deedledger/internal/audit/handler"
	"deedledger/internal/deed"
	deedhandler "deedledger/internal/deed/handler"
	deedservice "deedledger/internal/deed/service"
	deedstore "deedledger/internal/deed/store"
	"deedledger/internal/docs"
	"deedledger/internal/jwttoken"
	"deedledger/internal/platform/config"
	"deedledger/internal/platform/httpserver"
	"deedledger/internal/platform/logger"
	"deedledger/internal/platform/metrics"
	"deedledger/internal/platform/postgres"
	platformredis "deedledger/internal/platform/redis"
	httptransport "deedledger/internal/transport/http"
	"deedledger/internal/user"
	userhandler "deedledger/internal/user/handler"
	"deedledger/internal/user/revocation"
	"deedledger/pkg/email"
)

// revocationList is what both the user service (revoke on logout) and the
// auth middleware (check on every request) need.
type revocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the domain services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	access.BootstrapAdminUsername = cfg.BootstrapAdmin

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)

	var (
		deedStore  deed.Store
		auditStore audit.Store
		userStore  user.Store
		runner     deedservice.TxRunner
		health     func(context.Context) error
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		deedStore = deedstore.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		userStore = user.NewPostgresStore(db)
		runner = postgres.NewTxRunner(db)
		health = db.PingContext
		log.Info("using postgres storage")
	} else {
		deedStore = deedstore.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
		userStore = user.NewMemoryStore()
		runner = postgres.PassthroughRunner{}
		log.Warn("no postgres DSN configured, falling back to in-memory stores")
	}

	var trl revocationList = revocation.NewMemoryTRL()
	redisClient, err := platformredis.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		trl = revocation.NewRedisTRL(redisClient.Client)
		log.Info("using redis token revocation list")
	}

	storage, err := docs.NewFSStorage(cfg.DocumentDir)
	if err != nil {
		return err
	}

	recorder := audit.NewRecorder(auditStore, m)
	deeds := deedservice.New(deedStore, recorder, runner, m, log, cfg.VerifyCacheSize, cfg.VerifyCacheTTL)
	users := user.NewService(userStore, recorder, tokens, trl, email.NewLogSender(log), cfg.TokenTTL, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Deeds:          deedhandler.New(deeds, storage, log),
		Audit:          audithandler.New(recorder, log),
		Users:          userhandler.New(users, log),
		TokenValidator: tokens,
		Revocation:     trl,
		Logger:         log,
		Metrics:        m,
		DocumentDir:    cfg.DocumentDir,
		HealthCheck:    health,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting deedledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
