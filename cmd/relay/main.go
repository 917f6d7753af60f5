package main

import (
	"context"
	"errors"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/physioquantum/auth-relay/internal/cache"
	memcache "github.com/physioquantum/auth-relay/internal/cache/memory"
	rediscache "github.com/physioquantum/auth-relay/internal/cache/redis"
	"github.com/physioquantum/auth-relay/internal/config"
	"github.com/physioquantum/auth-relay/internal/directory"
	relayhttp "github.com/physioquantum/auth-relay/internal/http"
	healthctrl "github.com/physioquantum/auth-relay/internal/http/controllers/health"
	relayctrl "github.com/physioquantum/auth-relay/internal/http/controllers/relay"
	"github.com/physioquantum/auth-relay/internal/http/proxy"
	"github.com/physioquantum/auth-relay/internal/oauth/google"
	"github.com/physioquantum/auth-relay/internal/observability/logger"
	relaysvc "github.com/physioquantum/auth-relay/internal/relay"
)

func main() {
	// .env es opcional; en despliegues reales la config viene del entorno.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "auth-relay",
	})
	defer func() { _ = logger.Sync() }()
	zl := logger.L()

	ctx := context.Background()

	// Cache: memoria por defecto, redis para despliegues multi-instancia.
	var store cache.Cache
	switch cfg.Cache.Kind {
	case "redis":
		store = rediscache.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		zl.Info("cache backend: redis", logger.String("addr", cfg.Cache.Redis.Addr))
	default:
		store = memcache.New(cfg.Cache.Memory.DefaultTTL)
		zl.Info("cache backend: memory")
	}

	oauth := google.New(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.Google.RedirectURL,
		cfg.Google.Scopes,
		cfg.Relay.UpstreamTimeout,
	)

	// El gate se evalúa UNA vez: si la credencial del directorio falta o es
	// inválida, el proceso arranca igual en modo degradado.
	dirSvc, gate := directory.Evaluate(ctx, directory.Credentials{
		File:      cfg.Directory.CredentialsFile,
		JSON:      cfg.Directory.CredentialsJSON,
		ProjectID: cfg.Directory.ProjectID,
	})

	svc := relaysvc.NewService(relaysvc.Deps{
		Provider:     relaysvc.NewGoogleProvider(oauth),
		ProviderName: "google",
		Signer:       relaysvc.NewStateSigner(cfg.Relay.StateSecret, cfg.Relay.StateTTL, store),
		Issuer:       relaysvc.NewIssuer(gate, dirSvc, "google"),
		Links:        relaysvc.DeepLink{Scheme: cfg.Relay.AppScheme},
		RequireState: cfg.RequireState(),
	})

	var proxyHandler *proxy.Handler
	if cfg.Proxy.Upstream != "" {
		proxyHandler, err = proxy.New(cfg.Proxy.Upstream, cfg.Proxy.Timeout, relayhttp.RecordProxyUpstreamError)
		if err != nil {
			zl.Fatal("proxy upstream inválido", logger.Err(err))
		}
	}

	router, err := relayhttp.NewRouter(relayhttp.RouterDeps{
		Relay:  relayctrl.NewControllers(svc, "google", relayhttp.RecordCallbackOutcome),
		Health: healthctrl.NewController(gate, cfg.App.Env),
		Proxy:  proxyHandler,
	})
	if err != nil {
		zl.Fatal("router", logger.Err(err))
	}

	srv := &stdhttp.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		zl.Info("auth relay listening",
			logger.String("addr", cfg.Server.Addr),
			logger.Bool("directory_ready", gate.Ready()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Fatal("server terminated", logger.Err(err))
	}
	zl.Info("shutdown complete")
}
