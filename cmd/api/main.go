package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/application/report"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	inframetrics "github.com/jhoicas/stock-ledger-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/stock-ledger-api/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ledgerUC := ledger.NewLedgerUseCase(
		st.txRunner, st.locker,
		st.items, st.locations, st.entries, st.levels,
		ledger.WithMetrics(inframetrics.NewLedgerMetrics(reg)),
		ledger.WithLogger(log.Component("ledger")),
	)
	reportUC := report.NewReportUseCase(
		st.reports, st.items, st.locations, st.entries,
		infrapdf.NewMarotoPDFGenerator(cfg.App.Name),
		decimal.NewFromInt(int64(cfg.Ledger.LowStockThreshold)),
	)
	authUC := auth.NewAuthUseCase(st.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Component("auth"))

	if _, err := authUC.Bootstrap(ctx, cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword); err != nil {
		log.Fatal().Err(err).Msg("crear usuario inicial")
	}

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:         cfg.App.Name,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		SwaggerFile:  cfg.HTTP.SwaggerFile,
		Logger:       log.Component("http"),
		HTTPMetrics:  inframetrics.NewHTTPMetrics(reg),
		Gatherer:     reg,
		HealthCheck:  st.ping,
	}, httpRouter.RouterDeps{
		AuthUC:         authUC,
		ItemUC:         usecase.NewItemUseCase(st.items),
		LocationUC:     usecase.NewLocationUseCase(st.locations),
		UserUC:         usecase.NewUserUseCase(st.users),
		LedgerUC:       ledgerUC,
		ReportUC:       reportUC,
		JWTSecret:      cfg.JWT.Secret,
		Users:          st.users,
		Idempotency:    st.idempotency,
		IdempotencyTTL: cfg.Ledger.IdempotencyTTL,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
