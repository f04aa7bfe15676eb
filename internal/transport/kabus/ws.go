package kabus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/shopspring/decimal"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/errors"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/logger"
)

const dialTimeout = 10 * time.Second

// TickSink receives parsed ticks from the stream. Implemented by the
// dispatcher; the stream serializes its calls.
type TickSink interface {
	HandleTick(ctx context.Context, price decimal.Decimal, ts time.Time, status market.PriceStatus, isDummy, forceFinalize bool) error
	RecordStatus(status market.PriceStatus)
}

// pushMessage covers both payload shapes: the broker's PUSH fields and the
// dummy tick server's short form.
type pushMessage struct {
	CurrentPrice       *float64    `json:"CurrentPrice"`
	CurrentPriceTime   string      `json:"CurrentPriceTime"`
	CurrentPriceStatus *int        `json:"CurrentPriceStatus"`
	Price              json.Number `json:"Price"`
	Time               string      `json:"Time"`
}

// Stream reads PUSH messages from one websocket connection and forwards
// each tick to the sink. Reconnection policy belongs to the caller.
type Stream struct {
	url  string
	sink TickSink
	log  logger.Interface
}

// NewStream returns a Stream for the given websocket URL.
func NewStream(url string, sink TickSink, log logger.Interface) *Stream {
	return &Stream{url: url, sink: sink, log: log}
}

// Run dials the endpoint and reads until the context is canceled or the
// connection closes. A canceled context is a clean stop, not an error.
func (s *Stream) Run(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, s.url, nil)
	if err != nil {
		return errors.NewTracer("websocket dial failed").Wrap(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(-1)

	s.log.Info("tick stream connected", logger.NewField("url", s.url))

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("tick stream stopped")
				return nil
			}
			return errors.NewTracer("websocket read failed").Wrap(err)
		}
		s.dispatch(ctx, data)
	}
}

// dispatch parses one message and forwards it. Malformed messages are
// dropped with a warning; they must never stop the stream.
func (s *Stream) dispatch(ctx context.Context, data []byte) {
	var msg pushMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Warn("dropping malformed push message",
			logger.NewField("error", err.Error()))
		return
	}

	status := market.StatusNormal
	if msg.CurrentPriceStatus != nil {
		status = market.PriceStatus(*msg.CurrentPriceStatus)
	}

	price, ts, ok := s.extract(&msg)
	if !ok {
		// Status-only push (price withheld during a circuit break).
		s.sink.RecordStatus(status)
		return
	}

	if err := s.sink.HandleTick(ctx, price, ts, status, false, false); err != nil {
		s.log.Error(errors.NewTracer("tick handling failed").Wrap(err))
	}
}

func (s *Stream) extract(msg *pushMessage) (decimal.Decimal, time.Time, bool) {
	switch {
	case msg.CurrentPrice != nil && msg.CurrentPriceTime != "":
		ts, err := time.Parse(time.RFC3339, msg.CurrentPriceTime)
		if err != nil {
			s.log.Warn("dropping tick with bad CurrentPriceTime",
				logger.NewField("value", msg.CurrentPriceTime))
			return decimal.Decimal{}, time.Time{}, false
		}
		return decimal.NewFromFloat(*msg.CurrentPrice), ts.In(time.Local).Truncate(time.Second), true

	case msg.Price != "" && msg.Time != "":
		price, err := decimal.NewFromString(msg.Price.String())
		if err != nil {
			s.log.Warn("dropping tick with non-numeric price",
				logger.NewField("value", msg.Price.String()))
			return decimal.Decimal{}, time.Time{}, false
		}
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", msg.Time, time.Local)
		if err != nil {
			s.log.Warn("dropping tick with bad Time",
				logger.NewField("value", msg.Time))
			return decimal.Decimal{}, time.Time{}, false
		}
		return price, ts, true

	default:
		return decimal.Decimal{}, time.Time{}, false
	}
}
