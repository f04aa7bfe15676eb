package main

import (
	"context"
	"time"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/handler"
	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/session"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/logger"
)

// pollLoop drives the wall-clock side of the pipeline: gap filling once per
// minute, the forced closing bar, and the session end stop. None of these
// may depend on tick delivery alone; the feed can stall right before the
// boundary and the closing bar still has to come out.
type pollLoop struct {
	handler *handler.Handler
	log     logger.Interface
	now     func() time.Time

	endTime time.Time
	hasEnd  bool

	closingDeadline  time.Time
	closingFinalized bool
	lastFilledMinute int
}

func newPollLoop(h *handler.Handler, log logger.Interface, now func() time.Time) *pollLoop {
	wall := now()
	end, hasEnd := session.SessionEnd(wall)
	if hasEnd {
		log.Info("session end scheduled",
			logger.NewField("end_time", end.Format("2006/01/02 15:04")))
	}
	return &pollLoop{
		handler:          h,
		log:              log,
		now:              now,
		endTime:          end,
		hasEnd:           hasEnd,
		closingDeadline:  session.NextClosing(wall),
		lastFilledMinute: -1,
	}
}

func (p *pollLoop) run(ctx context.Context, streamErr <-chan error) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("shutdown requested")
			return nil
		case err := <-streamErr:
			return err
		case <-ticker.C:
		}

		done, err := p.step(ctx)
		if done || err != nil {
			return err
		}
	}
}

// step runs one polling iteration; done reports that the session end passed.
func (p *pollLoop) step(ctx context.Context) (bool, error) {
	wall := p.now()

	if p.hasEnd && !wall.Before(p.endTime) {
		p.log.Info("session end reached, stopping")
		return true, nil
	}

	// Wall-clock fallback for the closing bar: once real time passes the
	// closing instant the bar is forced at the last known price, whether or
	// not the feed delivered a tick inside the closing minute.
	if !p.closingFinalized && !wall.Before(p.closingDeadline) {
		if err := p.forceClosing(ctx, p.closingDeadline); err != nil {
			return false, err
		}
	}

	ts, ok := p.handler.LatestTimestamp()
	if !ok {
		// No tick yet; during a circuit break the wall clock still drives
		// gap filling.
		minute := wall.Truncate(time.Minute)
		if p.handler.LatestStatus() == market.StatusCircuitBreak && minute.Minute() != p.lastFilledMinute {
			p.log.Info("circuit break, filling by wall clock",
				logger.NewField("minute", minute.Format("15:04")))
			if err := p.handler.FillGap(ctx, minute); err != nil {
				return false, err
			}
			p.lastFilledMinute = minute.Minute()
		}
		return false, nil
	}

	now := ts.Truncate(time.Minute)

	if session.IsOpeningMinute(now) && p.closingFinalized {
		p.log.Info("session opened, closing flag reset",
			logger.NewField("minute", now.Format("15:04")))
		p.closingFinalized = false
		p.closingDeadline = session.NextClosing(wall)
	}

	if !session.IsClosingMinute(now) {
		if now.Minute() != p.lastFilledMinute {
			if err := p.handler.FillGap(ctx, now); err != nil {
				return false, err
			}
			p.lastFilledMinute = now.Minute()
		}
		return false, nil
	}

	if !p.closingFinalized {
		return false, p.forceClosing(ctx, now)
	}
	return false, nil
}

// forceClosing replays the last price as a dummy tick at the closing minute.
func (p *pollLoop) forceClosing(ctx context.Context, target time.Time) error {
	price, ok := p.handler.LatestPrice()
	if !ok {
		// Nothing traded this run; there is no price to close on.
		return nil
	}

	minute := target.Truncate(time.Minute)
	p.log.Info("forcing closing bar",
		logger.NewField("minute", minute.Format("15:04")),
		logger.NewField("price", price.String()))
	if err := p.handler.HandleTick(ctx, price, minute, p.handler.LatestStatus(), true, true); err != nil {
		return err
	}
	p.closingFinalized = true
	p.lastFilledMinute = minute.Minute()
	return nil
}
