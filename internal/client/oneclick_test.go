package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestOneClick(url string) *OneClickClient {
	return NewOneClickClient(OneClickOptions{
		BaseURL:      url,
		JWT:          "test-token",
		PollInterval: 10 * time.Millisecond,
	}, quietLogger())
}

func TestGetQuote(t *testing.T) {
	var got quoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v0/quote" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"quote":{"depositAddress":"dep.near","amountIn":"10000000","amountOut":"42","amountOutFormatted":"0.42","deadline":"2026-01-01T12:05:00Z","timeEstimate":30}}`))
	}))
	defer srv.Close()

	deadline := time.Date(2026, 1, 1, 12, 5, 0, 0, time.UTC)
	quote, err := newTestOneClick(srv.URL).GetQuote(context.Background(), model.QuoteRequest{
		OriginAsset:       "nep141:zec.omft.near",
		DestinationAsset:  "nep141:wrap.near",
		Amount:            "10000000",
		RefundTo:          "refund.near",
		Recipient:         "recipient.near",
		Deadline:          deadline,
		SlippageTolerance: 10,
	})
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if quote.DepositAddress != "dep.near" || quote.AmountOutFormatted != "0.42" || quote.TimeEstimate != 30 {
		t.Fatalf("unexpected quote %+v", quote)
	}
	if !quote.Deadline.Equal(deadline) {
		t.Fatalf("deadline = %s", quote.Deadline)
	}
	if got.SwapType != "EXACT_INPUT" || got.DepositType != "INTENTS" || got.RecipientType != "INTENTS" {
		t.Fatalf("unexpected request body %+v", got)
	}
	if got.Deadline != "2026-01-01T12:05:00Z" || got.SlippageTolerance != 10 || got.Dry {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestGetQuoteInsufficientBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Insufficient balance for swap"}`))
	}))
	defer srv.Close()

	_, err := newTestOneClick(srv.URL).GetQuote(context.Background(), model.QuoteRequest{Deadline: time.Now()})
	if !model.IsQuoteError(err) {
		t.Fatalf("expected QuoteError, got %v", err)
	}
	if !errors.Is(err, model.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestGetQuoteWithoutDepositAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quote":{"amountOut":"1"}}`))
	}))
	defer srv.Close()

	if _, err := newTestOneClick(srv.URL).GetQuote(context.Background(), model.QuoteRequest{}); !model.IsQuoteError(err) {
		t.Fatalf("expected QuoteError, got %v", err)
	}
}

func statusServer(t *testing.T, statuses ...string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/status" || r.URL.Query().Get("depositAddress") != "dep.near" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		json.NewEncoder(w).Encode(map[string]string{"status": statuses[n]})
	}))
	return srv, &calls
}

func TestAwaitSettlementSuccess(t *testing.T) {
	srv, calls := statusServer(t, StatusPendingDeposit, StatusProcessing, StatusSuccess)
	defer srv.Close()

	err := newTestOneClick(srv.URL).AwaitSettlement(context.Background(), &model.Quote{DepositAddress: "dep.near"})
	if err != nil {
		t.Fatalf("AwaitSettlement: %v", err)
	}
	if atomic.LoadInt32(calls) != 3 {
		t.Fatalf("expected 3 status calls, got %d", atomic.LoadInt32(calls))
	}
}

func TestAwaitSettlementRefunded(t *testing.T) {
	srv, _ := statusServer(t, StatusProcessing, StatusRefunded)
	defer srv.Close()

	err := newTestOneClick(srv.URL).AwaitSettlement(context.Background(), &model.Quote{DepositAddress: "dep.near"})
	if !model.IsQuoteError(err) {
		t.Fatalf("expected QuoteError, got %v", err)
	}
}

func TestAwaitSettlementDeadline(t *testing.T) {
	srv, _ := statusServer(t, StatusPendingDeposit)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := newTestOneClick(srv.URL).AwaitSettlement(ctx, &model.Quote{DepositAddress: "dep.near"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestCoinGeckoGetUSDPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "solana" {
			t.Errorf("unexpected ids %q", r.URL.Query().Get("ids"))
		}
		w.Write([]byte(`{"solana":{"usd":142.37}}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(srv.URL)
	price, err := c.GetUSDPrice(context.Background(), "solana")
	if err != nil {
		t.Fatalf("GetUSDPrice: %v", err)
	}
	if price.String() != "142.37" {
		t.Fatalf("price = %s", price)
	}
	if _, err := c.GetUSDPrice(context.Background(), "zcash"); err == nil {
		t.Fatal("expected error for missing coin")
	}
}
