// Command topictail subscribes to STOMP topics over websocket and logs every message it receives.
//
// Configuration is read from TOPICTAIL_* variables (and a .env file when present); run with -h
// to list them. The command exits when the broker connection is lost.
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

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/evan-idocoding/clientkit/internal/envconf"
	"github.com/evan-idocoding/clientkit/ops"
	"github.com/evan-idocoding/clientkit/realtime"
)

const envPrefix = "TOPICTAIL"

// errConnectionLost is returned when the broker goes away after connecting.
var errConnectionLost = errors.New("broker connection lost")

type config struct {
	BrokerURL       string        `envconfig:"BROKER_URL" required:"true" validate:"required,url"`
	Token           string        `envconfig:"TOKEN"`
	Topics          []string      `envconfig:"TOPICS" required:"true" validate:"min=1,dive,required"`
	RequestID       bool          `envconfig:"REQUEST_ID" default:"true"`
	TabID           bool          `envconfig:"TAB_ID" default:"true"`
	HeartBeat       time.Duration `envconfig:"HEARTBEAT" default:"10s" validate:"gte=0"`
	ConnectTimeout  time.Duration `envconfig:"CONNECT_TIMEOUT" default:"15s" validate:"gt=0"`
	OpsAddr         string        `envconfig:"OPS_ADDR"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s" validate:"gt=0"`
}

func main() {
	help := flag.Bool("h", false, "list configuration variables")
	flag.Parse()
	if *help {
		_ = envconf.Usage(os.Stdout, envPrefix, &config{})
		return
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "topictail:", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config
	if err := envconf.Load(envPrefix, &cfg); err != nil {
		return err
	}

	lv := new(slog.LevelVar)
	level, err := ops.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	lv.Set(level)
	logger := envconf.NewLogger(lv, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	states := make(chan realtime.State, 8)
	hook := realtime.New(realtime.Params{
		BaseURL:         cfg.BrokerURL,
		Token:           cfg.Token,
		EnableRequestID: cfg.RequestID,
		EnableTabID:     cfg.TabID,
	},
		realtime.WithBrokerFactory(realtime.NewSTOMPBroker(realtime.WithHeartBeat(cfg.HeartBeat, cfg.HeartBeat))),
		realtime.WithLogger(logger),
		realtime.WithStateListener(func(s realtime.State) { states <- s }),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := newTailer(hook, cfg.Topics, logger)
		err := t.run(ctx, states, cfg.ConnectTimeout)
		if cerr := hook.Close(); cerr != nil {
			logger.Warn("close hook", slog.Any("error", cerr))
		}
		return err
	})

	if cfg.OpsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.OpsAddr,
			Handler:           newOpsRouter(hook, lv),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("ops listening", slog.String("addr", cfg.OpsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func newOpsRouter(hook *realtime.Hook, lv *slog.LevelVar) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/healthz", ops.HealthzHandler())
	r.Method(http.MethodGet, "/readyz", ops.ReadyzHandler([]ops.ReadyCheck{
		ops.StateCheck("broker", hook.Connected),
	}))
	r.Handle("/admin/log-level", ops.LogLevelHandler(lv))
	return r
}
