// Package gateway speaks the payment gateway's XML-over-HTTP protocol:
// it issues transaction tokens, verifies them, and classifies the gateway's
// mixed XML/HTML responses into typed results.
package gateway

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"

	"hotel-payment-service/internal/config"
)

const (
	defaultTimeoutMs   = 30_000
	defaultTokenTTL    = 96
	defaultServiceType = "5525"

	// Environment variables holding the merchant credentials. Kept out of
	// the yaml config on purpose.
	EnvCompanyToken = "GATEWAY_COMPANY_TOKEN"
	EnvAPIURL       = "GATEWAY_API_URL"
	EnvPayURL       = "GATEWAY_PAY_URL"
)

var (
	tokenSuccessCounter   = metrics.GetOrCreateCounter(`gateway_requests_total{request="createToken",result="success"}`)
	tokenBlockedCounter   = metrics.GetOrCreateCounter(`gateway_requests_total{request="createToken",result="blocked"}`)
	tokenRejectedCounter  = metrics.GetOrCreateCounter(`gateway_requests_total{request="createToken",result="rejected"}`)
	tokenMalformedCounter = metrics.GetOrCreateCounter(`gateway_requests_total{request="createToken",result="malformed"}`)
	tokenTransportCounter = metrics.GetOrCreateCounter(`gateway_requests_total{request="createToken",result="transport_error"}`)

	verifySuccessCounter   = metrics.GetOrCreateCounter(`gateway_requests_total{request="verifyToken",result="success"}`)
	verifyFailureCounter   = metrics.GetOrCreateCounter(`gateway_requests_total{request="verifyToken",result="failure"}`)
	verifyTransportCounter = metrics.GetOrCreateCounter(`gateway_requests_total{request="verifyToken",result="transport_error"}`)

	requestDurationHistogram = metrics.GetOrCreateHistogram(`gateway_request_duration_milliseconds`)
)

// Config carries the merchant credentials and request tuning for one gateway
// account.
type Config struct {
	CompanyToken  string
	APIURL        string
	PayURL        string
	TimeoutMs     int
	TokenTTLHours int
	ServiceType   string
}

// ConfigFromEnv assembles a gateway Config from the environment plus the yaml
// tuning section. Missing credentials are returned as an error so callers can
// surface a configuration failure instead of crashing.
func ConfigFromEnv(cfg config.Gateway) (Config, error) {
	companyToken, err := config.GetRequired(EnvCompanyToken)
	if err != nil {
		return Config{}, err
	}
	apiURL, err := config.GetRequired(EnvAPIURL)
	if err != nil {
		return Config{}, err
	}
	payURL, err := config.GetRequired(EnvPayURL)
	if err != nil {
		return Config{}, err
	}

	out := Config{
		CompanyToken:  companyToken,
		APIURL:        apiURL,
		PayURL:        payURL,
		TimeoutMs:     cfg.TimeoutMs,
		TokenTTLHours: cfg.TokenTTLHours,
		ServiceType:   cfg.ServiceType,
	}
	if out.TimeoutMs <= 0 {
		out.TimeoutMs = defaultTimeoutMs
	}
	if out.TokenTTLHours <= 0 {
		out.TokenTTLHours = defaultTokenTTL
	}
	if out.ServiceType == "" {
		out.ServiceType = defaultServiceType
	}
	return out, nil
}

type Client struct {
	client *http.Client
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
		cfg:    cfg,
		logger: logger,
	}
}

// CreateToken submits a createToken request and returns the issued token or a
// typed failure. Transport failures are wrapped; response-level failures are
// BlockedError, RejectedError or MalformedResponseError.
func (c *Client) CreateToken(ctx context.Context, req TokenRequest) (*TokenResult, error) {
	payload, err := c.buildCreateToken(req, time.Now())
	if err != nil {
		return nil, err
	}

	body, statusCode, err := c.post(ctx, payload)
	if err != nil {
		tokenTransportCounter.Inc()
		return nil, errors.Wrap(err, "submitting token request")
	}

	result, err := c.parseTokenResponse(body, statusCode)
	switch {
	case err == nil:
		tokenSuccessCounter.Inc()
	default:
		c.logger.WarnContext(ctx, "Token request failed", "error", err)
		var blocked *BlockedError
		var rejected *RejectedError
		switch {
		case errors.As(err, &blocked):
			tokenBlockedCounter.Inc()
		case errors.As(err, &rejected):
			tokenRejectedCounter.Inc()
		default:
			tokenMalformedCounter.Inc()
		}
	}
	return result, err
}

// VerifyToken submits a verifyToken request and returns the gateway's parsed
// fields, including non-success result codes.
func (c *Client) VerifyToken(ctx context.Context, token string) (*VerifyResult, error) {
	payload, err := c.buildVerifyToken(token)
	if err != nil {
		return nil, err
	}

	body, statusCode, err := c.post(ctx, payload)
	if err != nil {
		verifyTransportCounter.Inc()
		return nil, errors.Wrap(err, "submitting verify request")
	}

	result, err := parseVerifyResponse(body, statusCode)
	if err != nil {
		verifyFailureCounter.Inc()
		c.logger.WarnContext(ctx, "Verify request failed", "error", err)
		return nil, err
	}
	verifySuccessCounter.Inc()
	return result, nil
}

func (c *Client) post(ctx context.Context, payload []byte) (string, int, error) {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Accept", "application/xml")

	c.logger.InfoContext(ctx, "Calling payment gateway", "url", c.cfg.APIURL)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Error calling payment gateway", "error", err)
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}

	requestDurationHistogram.Update(float64(time.Since(startTime).Milliseconds()))
	c.logger.InfoContext(ctx, "Gateway responded", "status", resp.Status)

	return string(body), resp.StatusCode, nil
}
