// Package kabus adapts the broker's kabu STATION API: the REST calls that
// authenticate and register the derivative symbol, and the websocket PUSH
// stream delivering price ticks.
package kabus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/config"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/errors"
	"github.com/Nagaken1/Prompt-Follow-Reverse/pkg/logger"
)

// Client issues the REST calls of the kabu STATION API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Interface
}

// NewClient returns a Client for the given base URL.
func NewClient(cfg config.KabusConfig, log logger.Interface) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Token requests an API token with the configured password.
func (c *Client) Token(ctx context.Context, apiPassword string) (string, error) {
	payload, err := json.Marshal(map[string]string{"APIPassword": apiPassword})
	if err != nil {
		return "", errors.TracerFromError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", bytes.NewReader(payload))
	if err != nil {
		return "", errors.TracerFromError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	var res struct {
		Token string `json:"Token"`
	}
	if err := c.do(req, &res); err != nil {
		return "", errors.NewTracer("token request failed").Wrap(err)
	}
	if res.Token == "" {
		return "", errors.NewErrorDetails("broker returned an empty token", string(errors.BrokerAuthError), "Token")
	}

	c.log.Info("api token acquired")
	return res.Token, nil
}

// RegisterSymbol registers the derivative symbol for PUSH delivery.
func (c *Client) RegisterSymbol(ctx context.Context, token, symbol string, exchange int) error {
	payload, err := json.Marshal(map[string]any{
		"Symbols": []map[string]any{
			{"Symbol": symbol, "Exchange": exchange},
		},
	})
	if err != nil {
		return errors.TracerFromError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/register", bytes.NewReader(payload))
	if err != nil {
		return errors.TracerFromError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", token)

	if err := c.do(req, nil); err != nil {
		return errors.NewTracer("symbol registration failed").Wrap(err)
	}

	c.log.Info("symbol registered",
		logger.NewField("symbol", symbol),
		logger.NewField("exchange", exchange))
	return nil
}

// FutureSymbol resolves the symbol code of the mini future for the given
// contract month ("YYYYMM").
func (c *Client) FutureSymbol(ctx context.Context, token, derivMonth string) (string, error) {
	url := fmt.Sprintf("%s/symbolname/future?FutureCode=NK225mini&DerivMonth=%s", c.baseURL, derivMonth)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.TracerFromError(err)
	}
	req.Header.Set("X-API-KEY", token)

	var res struct {
		Symbol     string `json:"Symbol"`
		SymbolName string `json:"SymbolName"`
	}
	if err := c.do(req, &res); err != nil {
		return "", errors.NewTracer("future symbol lookup failed").Wrap(err)
	}
	if res.Symbol == "" {
		return "", errors.NewErrorDetails("broker returned an empty symbol", string(errors.BrokerRegisterError), "Symbol")
	}

	c.log.Info("future symbol resolved",
		logger.NewField("deriv_month", derivMonth),
		logger.NewField("symbol", res.Symbol),
		logger.NewField("name", res.SymbolName))
	return res.Symbol, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
