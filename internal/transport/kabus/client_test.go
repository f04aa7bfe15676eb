package kabus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/config"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/errors"
	loggerMock "github.com/Nagaken1/Prompt-Follow-Reverse/pkg/logger/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestLogger(ctrl *gomock.Controller) *loggerMock.MockInterface {
	log := loggerMock.NewMockInterface(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ctrl := gomock.NewController(t)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.KabusConfig{BaseURL: server.URL}, newTestLogger(ctrl))
}

func TestClient_Token(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/token", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "secret", body["APIPassword"])

			json.NewEncoder(w).Encode(map[string]any{"ResultCode": 0, "Token": "abc123"})
		})

		token, err := client.Token(context.Background(), "secret")
		require.NoError(t, err)
		assert.Equal(t, "abc123", token)
	})

	t.Run("empty token is an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"ResultCode": 0})
		})

		_, err := client.Token(context.Background(), "secret")
		require.Error(t, err)
		assert.True(t, errors.ErrorCodeEquals(err, errors.BrokerAuthError))
	})

	t.Run("http error surfaces", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"Code":4001007,"Message":"invalid password"}`, http.StatusUnauthorized)
		})

		_, err := client.Token(context.Background(), "wrong")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

func TestClient_RegisterSymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/register", r.URL.Path)
		assert.Equal(t, "abc123", r.Header.Get("X-API-KEY"))

		var body struct {
			Symbols []struct {
				Symbol   string `json:"Symbol"`
				Exchange int    `json:"Exchange"`
			} `json:"Symbols"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Symbols, 1)
		assert.Equal(t, "167060019", body.Symbols[0].Symbol)
		assert.Equal(t, 24, body.Symbols[0].Exchange)

		json.NewEncoder(w).Encode(map[string]any{"RegistList": []any{}})
	})

	assert.NoError(t, client.RegisterSymbol(context.Background(), "abc123", "167060019", 24))
}

func TestClient_FutureSymbol(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/symbolname/future", r.URL.Path)
			assert.Equal(t, "abc123", r.Header.Get("X-API-KEY"))
			assert.Equal(t, "NK225mini", r.URL.Query().Get("FutureCode"))
			assert.Equal(t, "202506", r.URL.Query().Get("DerivMonth"))

			json.NewEncoder(w).Encode(map[string]string{
				"Symbol":     "167060019",
				"SymbolName": "日経225mini 25/06",
			})
		})

		symbol, err := client.FutureSymbol(context.Background(), "abc123", "202506")
		require.NoError(t, err)
		assert.Equal(t, "167060019", symbol)
	})

	t.Run("empty symbol is an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{})
		})

		_, err := client.FutureSymbol(context.Background(), "abc123", "202506")
		require.Error(t, err)
		assert.True(t, errors.ErrorCodeEquals(err, errors.BrokerRegisterError))
	})
}
