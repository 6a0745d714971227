package api

import (
	"net/http"

	_ "github.com/AlexZinkM/privacy-wallet/docs"
	"github.com/AlexZinkM/privacy-wallet/internal/handler"
	"github.com/AlexZinkM/privacy-wallet/internal/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers groups the endpoint handlers served by the router.
type Handlers struct {
	Privacy  *handler.PrivacyHandler
	Bridge   *handler.BridgeHandler
	Recovery *handler.RecoveryHandler
}

// SetupRouter sets up router with handlers. Every route is restricted to loopback and allowedIPs.
func SetupRouter(h Handlers, logger *logrus.Logger, allowedIPs []string) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	mux.Handle("/metrics", promhttp.Handler())

	// Wallet endpoints
	mux.HandleFunc("/privacy/generate", h.Privacy.Generate)
	mux.HandleFunc("/privacy/wallets", h.Privacy.ListWallets)
	mux.HandleFunc("/privacy/wallet", h.Privacy.Wallet)
	mux.HandleFunc("/privacy/export", h.Privacy.Export)
	mux.HandleFunc("/privacy/balance", h.Privacy.GetBalance)

	// Bridge endpoints
	mux.HandleFunc("/privacy/bridge/start", h.Bridge.Start)
	mux.HandleFunc("/privacy/bridge/advance", h.Bridge.Advance)
	mux.HandleFunc("/privacy/bridge/run", h.Bridge.Run)
	mux.HandleFunc("/privacy/transaction", h.Bridge.Transaction)
	mux.HandleFunc("/privacy/transactions", h.Bridge.Transactions)

	// Recovery endpoints
	mux.HandleFunc("/privacy/recovery", h.Recovery.Create)
	mux.HandleFunc("/privacy/recovery/sweep", h.Recovery.Sweep)
	mux.HandleFunc("/privacy/recovery/pending", h.Recovery.Pending)
	mux.HandleFunc("/privacy/recovery/ack", h.Recovery.Acknowledge)
	mux.HandleFunc("/privacy/recoveries", h.Recovery.List)

	restrict := middleware.NewLocalhostOnly(logger, allowedIPs)
	return middleware.Logging(logger, restrict.Restrict(mux))
}
