// Package handler orchestrates the bar builder, the gap filler and the
// persistence sink. It owns the watermark below which no write is
// permitted, which makes restarts idempotent and duplicate ticks harmless.
package handler

import (
	"context"
	"sync"
	"time"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/ohlc"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/session"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/errors"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/logger"
	"github.com/shopspring/decimal"
)

// DefaultSameTimestampLimit is the streak length at which the feed is
// considered stalled on one timestamp and the in-progress bar is forced.
// Empirical for a 1-second polling cadence; override via config.
const DefaultSameTimestampLimit = 300

// Config tunes the dispatcher.
type Config struct {
	// SameTimestampLimit forces bar finalization after this many
	// consecutive ticks sharing one timestamp. Zero disables the check.
	SameTimestampLimit int

	// ContractMonth resolves the active contract month stamped on live
	// bars. Nil leaves the field empty.
	ContractMonth func(time.Time) string

	// Now is the wall clock, injectable for tests.
	Now func() time.Time
}

// Handler receives ticks from the transport adapter and wall-clock prompts
// from the polling loop. Both entry points serialize on one mutex; the
// builder underneath is single-threaded by design.
type Handler struct {
	mu      sync.Mutex
	builder *ohlc.Builder
	bars    market.BarStore
	ticks   market.TickLog // nil when raw tick output is disabled
	log     logger.Interface

	sameTimestampLimit int
	contractMonth      func(time.Time) string

	latestPrice     decimal.Decimal
	hasLatestPrice  bool
	latestTimestamp time.Time
	hasLatestTS     bool
	latestStatus    market.PriceStatus

	previousTimestamp  time.Time
	sameTimestampCount int

	lastWrittenMinute time.Time // zero until the first write or resume

	prevSessionClose decimal.Decimal
	hasPrevClose     bool
}

// New builds a Handler and initializes the watermark from the bar store so
// a restart resumes exactly where the previous run stopped.
func New(ctx context.Context, builder *ohlc.Builder, bars market.BarStore, ticks market.TickLog, log logger.Interface, cfg Config) (*Handler, error) {
	if cfg.SameTimestampLimit == 0 {
		cfg.SameTimestampLimit = DefaultSameTimestampLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	h := &Handler{
		builder:            builder,
		bars:               bars,
		ticks:              ticks,
		log:                log,
		sameTimestampLimit: cfg.SameTimestampLimit,
		contractMonth:      cfg.ContractMonth,
	}

	last, ok, err := bars.LastBarMinute(ctx)
	if err != nil {
		// Unreadable history means "start fresh"; the first tick seeds the
		// series with no backfill.
		log.Warn("could not read last persisted bar, starting fresh",
			logger.NewField("error", err.Error()))
	} else if ok {
		h.lastWrittenMinute = resumeWatermark(last, cfg.Now())
		log.Info("resuming from persisted bars",
			logger.NewField("last_bar", last.Format("2006/01/02 15:04")),
			logger.NewField("watermark", h.lastWrittenMinute.Format("2006/01/02 15:04")))
	}

	prevClose, ok, err := bars.PreviousSessionClose(ctx)
	if err != nil {
		log.Warn("could not read previous session close",
			logger.NewField("error", err.Error()))
	} else if ok {
		h.prevSessionClose = prevClose
		h.hasPrevClose = true
		builder.Seed(prevClose)
		log.Info("previous session close loaded",
			logger.NewField("close", prevClose.String()))
	}

	return h, nil
}

// resumeWatermark advances a stale watermark past a session that fully
// elapsed while the process was down, so gap filling does not backfill an
// entire closed session. 08:44 precedes the day open, 16:59 the night open.
func resumeWatermark(last, now time.Time) time.Time {
	var anchor time.Time
	switch session.Classify(now) {
	case session.PhaseDay:
		anchor = time.Date(now.Year(), now.Month(), now.Day(), 8, 44, 0, 0, now.Location())
	case session.PhaseNight:
		open := now
		if now.Hour() < 17 {
			open = now.AddDate(0, 0, -1)
		}
		anchor = time.Date(open.Year(), open.Month(), open.Day(), 16, 59, 0, 0, now.Location())
	default:
		return last
	}
	if anchor.After(last) {
		return anchor
	}
	return last
}

// LatestPrice reports the most recent tick price.
func (h *Handler) LatestPrice() (decimal.Decimal, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latestPrice, h.hasLatestPrice
}

// LatestTimestamp reports the most recent tick timestamp.
func (h *Handler) LatestTimestamp() (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latestTimestamp, h.hasLatestTS
}

// LatestStatus reports the most recent price status.
func (h *Handler) LatestStatus() market.PriceStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latestStatus
}

// SameTimestampCount reports the current duplicate-timestamp streak.
func (h *Handler) SameTimestampCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sameTimestampCount
}

// LastWrittenMinute reports the persistence watermark.
func (h *Handler) LastWrittenMinute() (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastWrittenMinute, !h.lastWrittenMinute.IsZero()
}

// RecordStatus notes a status push that carried no price, so the polling
// loop can see a circuit break before any tick for that minute arrived.
func (h *Handler) RecordStatus(status market.PriceStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latestStatus = status
}

// HandleTick feeds one tick through the builder and persists whatever bars
// complete. forceFinalize additionally flushes the bar at the tick's own
// minute (closing boundary); isDummy marks that forced bar synthetic.
func (h *Handler) HandleTick(ctx context.Context, price decimal.Decimal, ts time.Time, status market.PriceStatus, isDummy, forceFinalize bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latestPrice = price
	h.hasLatestPrice = true
	h.latestTimestamp = ts
	h.hasLatestTS = true
	h.latestStatus = status

	if h.ticks != nil {
		tick := &market.Tick{Price: price, Timestamp: ts, Status: status}
		if err := h.ticks.AppendTick(ctx, tick); err != nil {
			// Losing one raw tick row does not endanger the bar series.
			h.log.Warn("tick log append failed",
				logger.NewField("timestamp", ts.Format("2006/01/02 15:04:05")),
				logger.NewField("error", err.Error()))
		}
	}

	if ts.Equal(h.previousTimestamp) {
		h.sameTimestampCount++
	} else {
		h.sameTimestampCount = 1
		h.previousTimestamp = ts
	}
	if h.sameTimestampLimit > 0 && h.sameTimestampCount >= h.sameTimestampLimit && !forceFinalize {
		h.log.Info("same-timestamp streak limit reached, forcing bar finalization",
			logger.NewField("timestamp", ts.Format("2006/01/02 15:04:05")),
			logger.NewField("streak", h.sameTimestampCount))
		forceFinalize = true
		h.sameTimestampCount = 1
	}

	contractMonth := ""
	if h.contractMonth != nil {
		contractMonth = h.contractMonth(ts)
	}

	tickMinute := ts.Truncate(time.Minute)
	for {
		bar := h.builder.Update(price, ts, contractMonth)
		if bar == nil {
			break
		}
		if !bar.Minute.Before(tickMinute) && !bar.Synthetic {
			// Current or future minute: not confirmed complete yet.
			h.log.Debug("bar not confirmed yet, holding",
				logger.NewField("minute", bar.Minute.Format("2006/01/02 15:04")))
			break
		}
		if !h.lastWrittenMinute.IsZero() && !bar.Minute.After(h.lastWrittenMinute) {
			h.log.Debug("bar at or below watermark, skipping",
				logger.NewField("minute", bar.Minute.Format("2006/01/02 15:04")),
				logger.NewField("watermark", h.lastWrittenMinute.Format("2006/01/02 15:04")))
			break
		}
		if err := h.writeBar(ctx, bar); err != nil {
			return err
		}
	}

	if forceFinalize {
		final := h.builder.ForceFinalize(ts, isDummy)
		if final == nil {
			return nil
		}
		if !h.lastWrittenMinute.IsZero() && !final.Minute.After(h.lastWrittenMinute) {
			h.log.Debug("forced bar already persisted",
				logger.NewField("minute", final.Minute.Format("2006/01/02 15:04")))
			return nil
		}
		if err := h.writeBar(ctx, final); err != nil {
			return err
		}
		h.log.Info("bar force-finalized",
			logger.NewField("minute", final.Minute.Format("2006/01/02 15:04")),
			logger.NewField("synthetic", final.Synthetic))
	}

	return nil
}

// FillGap closes the hole between the watermark and the feed's present.
// The polling loop calls it once per wall-clock minute change. Fill stops
// short of the latest tick minute so an in-progress real bar is never
// clobbered by a synthetic one; during a circuit break (or before any tick
// at all) it runs up to the wall clock instead.
func (h *Handler) FillGap(ctx context.Context, now time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	last := h.lastWrittenMinute
	if last.IsZero() {
		if !h.hasLatestTS {
			// Nothing persisted and no tick seen: start fresh, no backfill.
			return nil
		}
		last = h.latestTimestamp.Truncate(time.Minute)
	}

	nowMinute := now.Truncate(time.Minute)
	until := nowMinute
	if h.hasLatestTS && h.latestStatus != market.StatusCircuitBreak {
		until = h.latestTimestamp.Truncate(time.Minute)
		if until.After(nowMinute) {
			until = nowMinute
		}
	}

	base := h.latestPrice
	if !h.hasLatestPrice {
		if !h.hasPrevClose {
			h.log.Warn("no base price available, gap left unfilled",
				logger.NewField("watermark", h.lastWrittenMinute.Format("2006/01/02 15:04")))
			return nil
		}
		base = h.prevSessionClose
	}

	for _, bar := range ohlc.FillMissing(last, until, base, market.DummyContractMonth) {
		if !h.lastWrittenMinute.IsZero() && !bar.Minute.After(h.lastWrittenMinute) {
			continue
		}
		if err := h.writeBar(ctx, bar); err != nil {
			// Watermark already reflects every successful write, so a crash
			// or retry resumes mid-fill without duplicates.
			return err
		}
		h.log.Info("gap filled with synthetic bar",
			logger.NewField("minute", bar.Minute.Format("2006/01/02 15:04")),
			logger.NewField("price", base.String()))
	}
	return nil
}

// Finalize flushes the in-progress bar at shutdown and closes the tick log.
func (h *Handler) Finalize(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if bar := h.builder.Peek(); bar != nil {
		if h.lastWrittenMinute.IsZero() || bar.Minute.After(h.lastWrittenMinute) {
			if err := h.writeBar(ctx, bar); err != nil {
				return err
			}
			h.log.Info("final bar flushed",
				logger.NewField("minute", bar.Minute.Format("2006/01/02 15:04")))
		}
	}

	if h.ticks != nil {
		if err := h.ticks.Close(); err != nil {
			return errors.TracerFromError(err)
		}
	}
	return nil
}

// writeBar persists one bar and advances the watermark only after the sink
// acknowledged the write. Callers hold the mutex.
func (h *Handler) writeBar(ctx context.Context, bar *market.Bar) error {
	if err := h.bars.WriteBar(ctx, bar); err != nil {
		return errors.TracerFromError(err)
	}
	h.lastWrittenMinute = bar.Minute
	return nil
}
