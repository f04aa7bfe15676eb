package kabus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Nagaken1/Prompt-Follow-Reverse/internal/domain/market"
	"github.com/coder/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type sinkCall struct {
	price  decimal.Decimal
	ts     time.Time
	status market.PriceStatus
}

type stubSink struct {
	mu       sync.Mutex
	ticks    []sinkCall
	statuses []market.PriceStatus
	err      error
}

func (s *stubSink) HandleTick(_ context.Context, price decimal.Decimal, ts time.Time, status market.PriceStatus, _, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks = append(s.ticks, sinkCall{price: price, ts: ts, status: status})
	return s.err
}

func (s *stubSink) RecordStatus(status market.PriceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
}

func (s *stubSink) snapshot() ([]sinkCall, []market.PriceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkCall(nil), s.ticks...), append([]market.PriceStatus(nil), s.statuses...)
}

func TestStream_Dispatch(t *testing.T) {
	testCases := []struct {
		name             string
		message          string
		expectedTicks    int
		expectedStatuses int
		assertFn         func(t *testing.T, ticks []sinkCall, statuses []market.PriceStatus)
	}{
		{
			name:          "broker push message",
			message:       `{"CurrentPrice":38005.0,"CurrentPriceTime":"2025-06-02T09:00:12+09:00","CurrentPriceStatus":1}`,
			expectedTicks: 1,
			assertFn: func(t *testing.T, ticks []sinkCall, _ []market.PriceStatus) {
				assert.True(t, ticks[0].price.Equal(decimal.RequireFromString("38005")))
				assert.Equal(t, market.StatusNormal, ticks[0].status)
				want, err := time.Parse(time.RFC3339, "2025-06-02T09:00:12+09:00")
				require.NoError(t, err)
				assert.True(t, ticks[0].ts.Equal(want))
			},
		},
		{
			name:          "dummy feed message",
			message:       `{"Price":38010,"Time":"2025-06-02 09:00:13","CurrentPriceStatus":1}`,
			expectedTicks: 1,
			assertFn: func(t *testing.T, ticks []sinkCall, _ []market.PriceStatus) {
				assert.True(t, ticks[0].price.Equal(decimal.RequireFromString("38010")))
				assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 13, 0, time.Local), ticks[0].ts)
			},
		},
		{
			name:             "status-only push records the status",
			message:          `{"CurrentPriceStatus":12}`,
			expectedStatuses: 1,
			assertFn: func(t *testing.T, _ []sinkCall, statuses []market.PriceStatus) {
				assert.Equal(t, market.StatusCircuitBreak, statuses[0])
			},
		},
		{
			name:    "malformed json is dropped",
			message: `{not json`,
		},
		{
			name:    "bad timestamp is dropped into a status record",
			message: `{"CurrentPrice":38005.0,"CurrentPriceTime":"today","CurrentPriceStatus":1}`,
			// Unparsable time falls back to the status-only path.
			expectedStatuses: 1,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			sink := &stubSink{}
			stream := NewStream("ws://unused", sink, newTestLogger(ctrl))

			stream.dispatch(context.Background(), []byte(testCase.message))

			ticks, statuses := sink.snapshot()
			assert.Len(t, ticks, testCase.expectedTicks)
			assert.Len(t, statuses, testCase.expectedStatuses)
			if testCase.assertFn != nil {
				testCase.assertFn(t, ticks, statuses)
			}
		})
	}
}

func TestStream_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	messages := []string{
		`{"CurrentPrice":38000.0,"CurrentPriceTime":"2025-06-02T09:00:10+09:00","CurrentPriceStatus":1}`,
		`{"CurrentPrice":38010.0,"CurrentPriceTime":"2025-06-02T09:00:11+09:00","CurrentPriceStatus":1}`,
	}
	delivered := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		for _, msg := range messages {
			require.NoError(t, conn.Write(r.Context(), websocket.MessageText, []byte(msg)))
		}
		<-delivered
	}))
	defer server.Close()

	sink := &stubSink{}
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	stream := NewStream(url, sink, newTestLogger(ctrl))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- stream.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		ticks, _ := sink.snapshot()
		return len(ticks) == len(messages)
	}, 5*time.Second, 10*time.Millisecond)
	close(delivered)

	// Cancellation is a clean stop.
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}

	ticks, _ := sink.snapshot()
	require.Len(t, ticks, 2)
	assert.True(t, ticks[0].price.Equal(decimal.RequireFromString("38000")))
	assert.True(t, ticks[1].price.Equal(decimal.RequireFromString("38010")))
}
