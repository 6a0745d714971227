package privacy

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/AlexZinkM/privacy-wallet/internal/metrics"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

// Generate creates an ephemeral wallet holding a transit address and, when different, an
// address on the destination chain. The wallet is stored with expiresAt = createdAt + TTL
// and its expiry timer is armed before it is returned.
func (s *Service) Generate(ctx context.Context, req model.GenerateRequest) (*model.GenerateResponse, error) {
	if !req.PrivacyLevel.Valid() {
		return nil, &model.ValidationError{Message: fmt.Sprintf("unknown privacy level %q", req.PrivacyLevel)}
	}
	if !s.catalog.IsDestination(req.DestinationChain) {
		return nil, &model.ValidationError{Message: fmt.Sprintf("unsupported destination chain %q", req.DestinationChain)}
	}
	if req.SourceAmount.IsNegative() {
		return nil, &model.ValidationError{Message: "source amount must not be negative"}
	}
	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		purpose = "transfer to " + req.DestinationChain
	}

	id := uuid.NewString()
	addresses, err := s.generator.GenerateAddresses(ctx, id, []string{s.catalog.Transit, req.DestinationChain})
	if err != nil {
		return nil, fmt.Errorf("failed to generate addresses: %w", err)
	}

	now := s.now().UTC()
	w := &model.PrivacyWallet{
		ID:                 id,
		Name:               "Privacy Wallet - " + purpose,
		Addresses:          addresses,
		CreatedAt:          now,
		ExpiresAt:          now.Add(req.PrivacyLevel.TTL()),
		PrivacyLevel:       req.PrivacyLevel,
		DestinationChain:   req.DestinationChain,
		PurposeDescription: purpose,
		SourceAmount:       req.SourceAmount,
		AutoCleanup:        true,
	}
	if err := s.vault.Create(w); err != nil {
		return nil, err
	}
	s.scheduler.Arm(w)
	metrics.WalletsGenerated.WithLabelValues(string(w.PrivacyLevel)).Inc()

	s.logger.WithFields(logrus.Fields{
		"wallet_id":         w.ID,
		"privacy_level":     w.PrivacyLevel,
		"destination_chain": w.DestinationChain,
		"expires_at":        w.ExpiresAt.Format("15:04:05"),
	}).Info("Privacy wallet generated")

	resp := &model.GenerateResponse{
		Success: true,
		Message: fmt.Sprintf("Privacy wallet generated, expires in %s", w.FormatRemaining(now)),
		Wallet:  *w,
	}
	if transit, ok := w.Address(s.catalog.Transit); ok {
		resp.DepositAddress = transit.Address
		qr, err := generateQRCode(transit.Address)
		if err != nil {
			s.logger.WithError(err).WithField("wallet_id", w.ID).Warn("Failed to render deposit QR code")
		} else {
			resp.DepositQR = qr
		}
	}
	return resp, nil
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
