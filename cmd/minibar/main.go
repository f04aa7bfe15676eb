package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/bootstrap"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/session"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/transport/kabus"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/config"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.NewLogger(logger.WithLoggingLevel(logger.Level(cfg.App.LogLevel)))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(err)
		logg.Sync()
		log.Fatalf("minibar terminated: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logg logger.Interface) error {
	boot, err := bootstrap.Init(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer boot.Close()

	wsURL, err := feedURL(ctx, cfg, logg)
	if err != nil {
		return err
	}

	stream := kabus.NewStream(wsURL, boot.Handler, logg)
	streamErr := make(chan error, 1)
	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()
	go func() {
		streamErr <- stream.Run(streamCtx)
	}()

	loopErr := newPollLoop(boot.Handler, logg, time.Now).run(ctx, streamErr)

	// Stop the feed before flushing so no tick races the final bar.
	cancelStream()

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := boot.Handler.Finalize(flushCtx); err != nil {
		logg.Error(err)
	}

	return loopErr
}

// feedURL authenticates and registers the active contract against the
// broker, unless the dummy feed is selected.
func feedURL(ctx context.Context, cfg *config.Config, logg logger.Interface) (string, error) {
	if cfg.Feed.DummyMode {
		logg.Info("dummy feed mode", logger.NewField("url", cfg.Feed.DummyURL))
		return cfg.Feed.DummyURL, nil
	}

	now := time.Now()
	client := kabus.NewClient(cfg.Kabus, logg)

	token, err := client.Token(ctx, cfg.Kabus.APIPassword)
	if err != nil {
		return "", err
	}
	symbol, err := client.FutureSymbol(ctx, token, kabus.ActiveContractMonth(now))
	if err != nil {
		return "", err
	}
	if err := client.RegisterSymbol(ctx, token, symbol, session.ExchangeCode(now)); err != nil {
		return "", err
	}
	return cfg.Kabus.WebSocketURL, nil
}
