// Package middleware holds the HTTP middleware of the wallet API.
package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/sirupsen/logrus"
)

// LocalhostOnly rejects requests that do not come from loopback or an allowed IP.
// The API hands out private keys, so nothing else may reach it.
type LocalhostOnly struct {
	logger   *logrus.Logger
	allowed  []net.IP
	networks []*net.IPNet
}

// NewLocalhostOnly builds the filter. Entries of allowedIPs are IPs or CIDR ranges; invalid
// entries are logged and ignored.
func NewLocalhostOnly(logger *logrus.Logger, allowedIPs []string) *LocalhostOnly {
	l := &LocalhostOnly{logger: logger}
	for _, entry := range allowedIPs {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				logger.WithError(err).WithField("allowed", entry).Warn("Invalid CIDR in ALLOWED_IPS")
				continue
			}
			l.networks = append(l.networks, ipNet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			logger.WithField("allowed", entry).Warn("Invalid IP in ALLOWED_IPS")
			continue
		}
		l.allowed = append(l.allowed, ip)
	}
	return l
}

// Restrict wraps next with the IP check. The direct peer address is used; forwarded
// headers are not trusted.
func (l *LocalhostOnly) Restrict(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !l.isAllowedIP(host) {
			l.logger.WithFields(logrus.Fields{
				"remote_ip":  host,
				"path":       r.URL.Path,
				"method":     r.Method,
				"user_agent": r.UserAgent(),
			}).Warn("Rejected request from non-whitelisted address")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(model.ErrorResponse{
				Error: "This API is only accessible from allowed IP addresses",
				Code:  "ip_not_allowed",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *LocalhostOnly) isAllowedIP(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return host == "localhost"
	}
	if ip.IsLoopback() {
		return true
	}
	for _, allowed := range l.allowed {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, n := range l.networks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs one line per request.
func Logging(logger *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("HTTP request")
	})
}
