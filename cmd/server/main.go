package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"vitrine/internal/address/lookup"
	docgate "vitrine/internal/document/gate"
	docmetrics "vitrine/internal/document/metrics"
	"vitrine/internal/identity/registry"
	"vitrine/internal/identity/verifier"
	jwttoken "vitrine/internal/jwt_token"
	"vitrine/internal/platform/config"
	"vitrine/internal/platform/httpserver"
	"vitrine/internal/platform/logger"
	"vitrine/internal/platform/metrics"
	"vitrine/internal/platform/tracer"
	profilehandler "vitrine/internal/profile/handler"
	profilemetrics "vitrine/internal/profile/metrics"
	profileservice "vitrine/internal/profile/service"
	"vitrine/pkg/platform/circuit"
	"vitrine/pkg/platform/httputil"
	"vitrine/pkg/platform/middleware/admin"
	"vitrine/pkg/platform/middleware/auth"
	"vitrine/pkg/platform/middleware/metadata"
	request "vitrine/pkg/platform/middleware/request"
	"vitrine/pkg/platform/middleware/requesttime"
)

// main wires the profile engine: storage backends chosen by configuration,
// the document gate, identity verifier and postal lookup behind the profile
// service, and one HTTP router in front of it.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close(log)

	tr := tracer.NewOTel()

	gate := docgate.New(infra.documents, infra.files,
		docgate.WithMetrics(docmetrics.New()),
		docgate.WithPublisher(infra.publisher),
		docgate.WithLogger(log),
	)

	breaker := circuit.New("tax-id-registry",
		circuit.WithFailureThreshold(cfg.Registry.FailureThreshold),
		circuit.WithCooldown(cfg.Registry.Cooldown),
	)
	idVerifier := verifier.New(
		registry.NewHTTPClient(cfg.Registry.BaseURL, cfg.Registry.APIKey, cfg.Registry.Timeout),
		verifier.WithTimeout(cfg.Registry.Timeout),
		verifier.WithAttemptLimit(cfg.Registry.AttemptLimit, cfg.Registry.AttemptWindow),
		verifier.WithBreaker(breaker),
		verifier.WithTracer(tr),
		verifier.WithLogger(log),
	)

	postal := lookup.NewCached(
		lookup.NewHTTPClient(cfg.Postal.BaseURL, cfg.Postal.Timeout),
		infra.postalCache(cfg.Postal.CacheTTL),
		tr,
		log,
	)

	svc := profileservice.New(infra.profiles, gate, idVerifier, postal,
		profileservice.WithPublisher(infra.publisher),
		profileservice.WithMetrics(profilemetrics.New()),
		profileservice.WithLogger(log),
		profileservice.WithAddressAssistant(cfg.Postal.QuietPeriod, cfg.Postal.Timeout),
	)
	defer svc.Close()

	router := newRouter(cfg, log, profilehandler.New(svc, log), infra)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(cfg config.Config, log *slog.Logger, h *profilehandler.Handler, infra *infra) http.Handler {
	httpMetrics := metrics.New()
	validator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience),
	)

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.Logger(log))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(httpMetrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status, checks := infra.Health(ctx)
		httputil.WriteJSON(w, status, map[string]any{"checks": checks})
	})
	r.Handle("/metrics", metrics.Handler())

	if cfg.Storage.Dir != "" {
		r.Handle(cfg.Storage.BaseURL+"/*",
			http.StripPrefix(cfg.Storage.BaseURL, http.FileServer(http.Dir(cfg.Storage.Dir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.Server.RequestTimeout))
		r.Use(request.ContentTypeJSON)
		r.Use(auth.RequireAuth(validator, log))
		h.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.Server.RequestTimeout))
		r.Use(request.ContentTypeJSON)
		r.Use(optionalAuth(auth.RequireAuth(validator, log)))
		r.Use(admin.RequireReviewer(cfg.Server.AdminToken, log))
		h.RegisterReviewer(r)
	})

	return r
}

// optionalAuth applies authenticate only when the request carries a bearer
// token, so back-office calls with just the admin token reach the reviewer
// check unauthenticated.
func optionalAuth(authenticate func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authed := authenticate(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			authed.ServeHTTP(w, r)
		})
	}
}
