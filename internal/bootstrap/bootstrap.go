// Package bootstrap wires the persistence sink, the bar builder and the
// tick dispatcher from the loaded configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/handler"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/infrastructure/csvstore"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/infrastructure/kafkasink"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/infrastructure/questdb"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/ohlc"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/transport/kabus"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/config"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/logger"
)

// Bootstrap holds the wired application components.
type Bootstrap struct {
	Config  *config.Config
	Logger  logger.Interface
	Bars    market.BarStore
	Ticks   market.TickLog
	Handler *handler.Handler

	pool *pgxpool.Pool
}

// Init builds the component graph for the given configuration.
func Init(ctx context.Context, cfg *config.Config, log logger.Interface) (*Bootstrap, error) {
	b := &Bootstrap{Config: cfg, Logger: log}

	switch cfg.Storage.Driver {
	case "questdb":
		pool, err := questdb.NewPool(ctx, cfg.QuestDB)
		if err != nil {
			return nil, err
		}
		b.pool = pool
		b.Bars = questdb.NewBarStore(pool)
		if cfg.Storage.TickOutput {
			b.Ticks = questdb.NewTickLog(pool)
		}
	case "csv":
		bars, err := csvstore.NewBarStore(cfg.Storage.CSVDir)
		if err != nil {
			return nil, err
		}
		b.Bars = bars
		if cfg.Storage.TickOutput {
			ticks, err := csvstore.NewTickLog(cfg.Storage.CSVDir)
			if err != nil {
				return nil, err
			}
			b.Ticks = ticks
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Kafka.Enabled {
		b.Bars = kafkasink.NewPublishingBarStore(b.Bars, kafkasink.NewPublisher(cfg.Kafka), log)
		log.Info("kafka bar publisher enabled",
			logger.NewField("topic", cfg.Kafka.Topic))
	}

	handlerCfg := handler.Config{
		SameTimestampLimit: cfg.Handler.SameTimestampLimit,
		ContractMonth:      kabus.ActiveContractMonth,
	}

	h, err := handler.New(ctx, ohlc.NewBuilder(), b.Bars, b.Ticks, log, handlerCfg)
	if err != nil {
		return nil, err
	}
	b.Handler = h

	return b, nil
}

// Close releases the storage resources.
func (b *Bootstrap) Close() error {
	err := b.Bars.Close()
	if b.pool != nil {
		b.pool.Close()
	}
	return err
}
