package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap/zapcore"

	"github.com/booklab-dev/matchbook/params"
	"github.com/booklab-dev/matchbook/pkg/api"
	"github.com/booklab-dev/matchbook/pkg/engine"
	"github.com/booklab-dev/matchbook/pkg/exchange"
	"github.com/booklab-dev/matchbook/pkg/journal"
	"github.com/booklab-dev/matchbook/pkg/sim"
	"github.com/booklab-dev/matchbook/pkg/stream"
	"github.com/booklab-dev/matchbook/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.LogFile, zapcore.InfoLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("starting", "symbol", cfg.Market.Symbol, "addr", cfg.API.Addr)

	// ---- Matching engine + exchange shell ----
	eng := engine.New()
	app := exchange.NewApp(cfg.Market.Symbol, eng, sugar)

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			sugar.Fatalw("journal_open_failed", "path", cfg.Journal.Path, "err", err)
		}
		defer j.Close()
		app.Journal = j
		sugar.Infow("journal_enabled", "path", cfg.Journal.Path)
	}

	if cfg.Stream.Enabled {
		p := stream.NewProducer(cfg.Stream.Brokers, cfg.Stream.Topic)
		defer p.Close()
		app.Producer = p
		sugar.Infow("trade_stream_enabled", "brokers", cfg.Stream.Brokers, "topic", cfg.Stream.Topic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API server ----
	server := api.NewServer(app, sugar)

	// Hook exchange to WebSocket hub: push trades and books as they happen.
	app.OnTrade = server.BroadcastTrade
	app.OnBook = server.BroadcastOrderbook

	// ---- Synthetic display feed (never routed into the engine) ----
	if cfg.Sim.Enabled {
		feed := sim.NewFeed(sim.FeedConfig{
			Interval: cfg.Sim.Interval,
			Depth:    cfg.Sim.Depth,
			StartMid: cfg.Sim.StartMid,
		}, sugar)
		feed.OnSnapshot = func(s sim.Snapshot) { server.BroadcastSim(s) }
		feed.OnTick = func(t sim.Tick) { server.BroadcastSim(t) }
		app.Feed = feed

		cancelFeed := feed.Start(ctx)
		defer cancelFeed()
	}

	go func() {
		if err := server.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting_down")
}
