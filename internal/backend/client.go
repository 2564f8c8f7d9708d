// Package backend is the typed client for the fortune backend: it builds
// requests, attaches the bearer token, normalizes the {code, message, data}
// envelope into typed results and errors, and surfaces user-facing toasts
// for transport and business failures.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adam936936/bagua-ai/internal/notify"
	"github.com/adam936936/bagua-ai/internal/storage"
)

const (
	toastNetworkError  = "网络错误"
	toastRequestFailed = "请求失败"

	defaultTimeout = 30 * time.Second
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	store      storage.Storage
	notifier   notify.Notifier
	loading    *notify.Loading
	log        zerolog.Logger
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Storage    storage.Storage
	Notifier   notify.Notifier
	Loading    *notify.Loading
	Logger     zerolog.Logger
	HTTPClient *http.Client
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	store := cfg.Storage
	if store == nil {
		store = storage.NewMemory()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	loading := cfg.Loading
	if loading == nil {
		loading = notify.NewLoading(nil, nil)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		store:      store,
		notifier:   notifier,
		loading:    loading,
		log:        cfg.Logger,
	}
}

func (c *Client) Get(ctx context.Context, path string, params url.Values, header http.Header) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, params, nil, header)
}

func (c *Client) Post(ctx context.Context, path string, body any, header http.Header) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, header)
}

func (c *Client) Put(ctx context.Context, path string, body any, header http.Header) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, nil, body, header)
}

func (c *Client) Delete(ctx context.Context, path string, params url.Values, header http.Header) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, params, nil, header)
}

// do runs one request through the full pipeline. The loading gauge is
// released on every exit path.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, header http.Header) (json.RawMessage, error) {
	c.loading.Begin()
	defer c.loading.End()

	urlStr := c.baseURL + path
	if len(params) > 0 {
		urlStr += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, bodyReader)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, header)

	log := c.log.With().
		Str("request_id", req.Header.Get("X-Request-Id")).
		Str("method", method).
		Str("path", path).
		Logger()
	log.Debug().Msg("request start")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("request failed")
		c.notifier.Toast(toastNetworkError)
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("read response failed")
		c.notifier.Toast(toastNetworkError)
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("unexpected status")
		c.notifier.Toast(fmt.Sprintf("%s: %d", toastRequestFailed, resp.StatusCode))
		return nil, &HTTPError{Status: resp.StatusCode}
	}

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		log.Error().Err(err).Msg("decode envelope failed")
		c.notifier.Toast(toastRequestFailed)
		return nil, &BusinessError{Code: -1, Message: "invalid response body"}
	}

	if env.Code != codeOK {
		log.Warn().Int("code", env.Code).Str("message", env.Message).Msg("business failure")
		msg := env.Message
		if msg == "" {
			msg = toastRequestFailed
		}
		c.notifier.Toast(msg)
		return nil, &BusinessError{Code: env.Code, Message: env.Message}
	}

	log.Debug().Msg("request ok")
	return env.Data, nil
}

// setHeaders applies the defaults, then the caller-supplied overrides.
func (c *Client) setHeaders(req *http.Request, header http.Header) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token, ok := c.store.Get(storage.KeyToken); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, values := range header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

// decodeInto unwraps envelope data into a typed value; a missing or null
// data field leaves the zero value in place.
func decodeInto(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}
