// Command clientgeod serves the caller's resolved client IP and geolocation.
//
// Configuration is read from CLIENTGEO_* variables (and a .env file when present); run with -h
// to list them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/evan-idocoding/clientkit/geo"
	"github.com/evan-idocoding/clientkit/internal/envconf"
	"github.com/evan-idocoding/clientkit/ops"
)

const envPrefix = "CLIENTGEO"

type config struct {
	Addr            string        `envconfig:"ADDR" default:":8080" validate:"required"`
	LookupEndpoint  string        `envconfig:"LOOKUP_ENDPOINT" default:"http://ip-api.com/json/{ip}" validate:"required,contains={ip}"`
	LookupTimeout   time.Duration `envconfig:"LOOKUP_TIMEOUT" default:"3s" validate:"gte=0"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s" validate:"gte=0"`
	RatePerMinute   int           `envconfig:"RATE_PER_MINUTE" default:"45" validate:"gte=0"`
	RateBurst       int           `envconfig:"RATE_BURST" default:"5" validate:"gte=1"`
	TrustedProxies  []string      `envconfig:"TRUSTED_PROXIES"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
}

func main() {
	help := flag.Bool("h", false, "list configuration variables")
	flag.Parse()
	if *help {
		_ = envconf.Usage(os.Stdout, envPrefix, &config{})
		return
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "clientgeod:", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config
	if err := envconf.Load(envPrefix, &cfg); err != nil {
		return err
	}

	var lv slog.LevelVar
	level, err := ops.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	lv.Set(level)
	logger := envconf.NewLogger(&lv, cfg.LogFormat)
	slog.SetDefault(logger)

	trusted, err := geo.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []geo.Option{
		geo.WithEndpoint(cfg.LookupEndpoint),
		geo.WithTimeout(cfg.LookupTimeout),
		geo.WithTrustedProxies(trusted),
		geo.WithMetrics(reg),
		geo.WithLogger(logger),
	}
	if cfg.RatePerMinute > 0 {
		opts = append(opts, geo.WithRateLimit(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RateBurst))
	}
	resolver := geo.NewResolver(opts...)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(resolver, reg, &lv, logger, cfg.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
