package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/metrics"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	oneClickAPI = "https://1click.chaindefuser.com"

	defaultPollInterval = 5 * time.Second
)

// Settlement statuses reported by GET /v0/status.
const (
	StatusPendingDeposit    = "PENDING_DEPOSIT"
	StatusKnownDepositTx    = "KNOWN_DEPOSIT_TX"
	StatusIncompleteDeposit = "INCOMPLETE_DEPOSIT"
	StatusProcessing        = "PROCESSING"
	StatusSuccess           = "SUCCESS"
	StatusRefunded          = "REFUNDED"
	StatusFailed            = "FAILED"
)

// OneClickClient client for the NEAR Intents 1Click swap API
type OneClickClient struct {
	baseURL      string
	jwt          string
	client       *http.Client
	limiter      *rate.Limiter
	pollInterval time.Duration
	logger       *logrus.Logger
}

// OneClickOptions configures NewOneClickClient. Zero values fall back to defaults.
type OneClickOptions struct {
	BaseURL      string
	JWT          string
	RateLimit    float64 // requests per second, 0 disables limiting
	PollInterval time.Duration
}

// NewOneClickClient creates a new 1Click client
func NewOneClickClient(opts OneClickOptions, logger *logrus.Logger) *OneClickClient {
	c := &OneClickClient{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		jwt:          opts.JWT,
		pollInterval: opts.PollInterval,
		logger:       logger,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	if c.baseURL == "" {
		c.baseURL = oneClickAPI
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c
}

type quoteRequest struct {
	Dry                bool   `json:"dry"`
	SwapType           string `json:"swapType"`
	SlippageTolerance  int    `json:"slippageTolerance"`
	OriginAsset        string `json:"originAsset"`
	DepositType        string `json:"depositType"`
	DestinationAsset   string `json:"destinationAsset"`
	Amount             string `json:"amount"`
	RefundTo           string `json:"refundTo"`
	RefundType         string `json:"refundType"`
	Recipient          string `json:"recipient"`
	RecipientType      string `json:"recipientType"`
	Deadline           string `json:"deadline"`
	QuoteWaitingTimeMs int    `json:"quoteWaitingTimeMs,omitempty"`
}

type quoteResponse struct {
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
	Quote     struct {
		DepositAddress     string `json:"depositAddress"`
		AmountIn           string `json:"amountIn"`
		AmountInFormatted  string `json:"amountInFormatted"`
		AmountOut          string `json:"amountOut"`
		AmountOutFormatted string `json:"amountOutFormatted"`
		Deadline           string `json:"deadline"`
		TimeEstimate       int    `json:"timeEstimate"`
	} `json:"quote"`
}

type statusResponse struct {
	Status      string `json:"status"`
	UpdatedAt   string `json:"updatedAt"`
	SwapDetails struct {
		RefundReason string `json:"refundReason"`
	} `json:"swapDetails"`
}

type apiError struct {
	Message string `json:"message"`
}

// GetQuote requests a live quote with a deposit address for req.
func (c *OneClickClient) GetQuote(ctx context.Context, req model.QuoteRequest) (*model.Quote, error) {
	body := quoteRequest{
		Dry:               false,
		SwapType:          "EXACT_INPUT",
		SlippageTolerance: req.SlippageTolerance,
		OriginAsset:       req.OriginAsset,
		DepositType:       "INTENTS",
		DestinationAsset:  req.DestinationAsset,
		Amount:            req.Amount,
		RefundTo:          req.RefundTo,
		RefundType:        "INTENTS",
		Recipient:         req.Recipient,
		RecipientType:     "INTENTS",
		Deadline:          req.Deadline.UTC().Format(time.RFC3339),
	}

	var resp quoteResponse
	if err := c.do(ctx, "quote", http.MethodPost, "/v0/quote", body, &resp); err != nil {
		return nil, err
	}
	if resp.Quote.DepositAddress == "" {
		return nil, &model.QuoteError{Op: "quote", Err: errors.New("response carries no deposit address")}
	}

	quote := &model.Quote{
		DepositAddress:     resp.Quote.DepositAddress,
		AmountIn:           resp.Quote.AmountIn,
		AmountOut:          resp.Quote.AmountOut,
		AmountOutFormatted: resp.Quote.AmountOutFormatted,
		TimeEstimate:       resp.Quote.TimeEstimate,
	}
	if resp.Quote.Deadline != "" {
		if deadline, err := time.Parse(time.RFC3339, resp.Quote.Deadline); err == nil {
			quote.Deadline = deadline
		}
	}

	c.logger.WithFields(logrus.Fields{
		"origin_asset":      req.OriginAsset,
		"destination_asset": req.DestinationAsset,
		"amount_in":         quote.AmountIn,
		"amount_out":        quote.AmountOutFormatted,
		"deposit_address":   quote.DepositAddress,
	}).Info("Quote received")
	return quote, nil
}

// SettlementStatus is the state of a swap as reported by the settlement service.
type SettlementStatus struct {
	Status       string
	RefundReason string
}

// GetStatus returns the settlement status of a deposit address.
func (c *OneClickClient) GetStatus(ctx context.Context, depositAddress string) (*SettlementStatus, error) {
	var resp statusResponse
	path := "/v0/status?depositAddress=" + url.QueryEscape(depositAddress)
	if err := c.do(ctx, "status", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &SettlementStatus{Status: resp.Status, RefundReason: resp.SwapDetails.RefundReason}, nil
}

// AwaitSettlement polls the status of quote until it succeeds, fails or ctx is done.
// Failed status requests are retried on the next tick.
func (c *OneClickClient) AwaitSettlement(ctx context.Context, quote *model.Quote) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	last := "unknown"
	for {
		st, err := c.GetStatus(ctx, quote.DepositAddress)
		if err != nil {
			c.logger.WithError(err).WithField("deposit_address", quote.DepositAddress).Warn("Status check failed")
		} else {
			switch st.Status {
			case StatusSuccess:
				return nil
			case StatusRefunded, StatusFailed:
				reason := strings.ToLower(st.Status)
				if st.RefundReason != "" {
					reason += ": " + st.RefundReason
				}
				return &model.QuoteError{Op: "settlement", Err: fmt.Errorf("swap %s", reason)}
			}
			last = st.Status
		}

		select {
		case <-ctx.Done():
			return &model.QuoteError{Op: "settlement", Err: fmt.Errorf("stopped waiting in status %s: %w", last, ctx.Err())}
		case <-ticker.C:
		}
	}
}

func (c *OneClickClient) do(ctx context.Context, endpoint, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &model.QuoteError{Op: endpoint, Err: err}
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.jwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwt)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.QuoteLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QuoteRequests.WithLabelValues(endpoint, "error").Inc()
		return &model.QuoteError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.QuoteRequests.WithLabelValues(endpoint, "rejected").Inc()
		return &model.QuoteError{Op: endpoint, Err: decodeAPIError(resp)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.QuoteRequests.WithLabelValues(endpoint, "error").Inc()
		return &model.QuoteError{Op: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	metrics.QuoteRequests.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiError
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	if strings.Contains(strings.ToLower(msg), "insufficient") {
		return fmt.Errorf("%w: %s", model.ErrInsufficientBalance, msg)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
}
