package service

import (
	"context"

	"github.com/Ashiqurrahman9753/Integrated-ODOO-Electronic-Shelf-Label/pkg/sunlux"
)

// ConnectionStatus is the outcome of a connectivity test against the vendor
// API. Only a truncated token preview is exposed.
type ConnectionStatus struct {
	Configured   bool   `json:"configured"`
	Connected    bool   `json:"connected"`
	TokenPreview string `json:"tokenPreview,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SettingsService exposes vendor connectivity operations.
type SettingsService struct {
	gateway Gateway
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(gateway Gateway) *SettingsService {
	return &SettingsService{gateway: gateway}
}

// TestConnection forces a fresh authentication against the vendor API.
func (s *SettingsService) TestConnection(ctx context.Context) *ConnectionStatus {
	status := &ConnectionStatus{Configured: s.gateway.Configured()}
	if !status.Configured {
		status.Error = sunlux.ErrNotConfigured.Error()
		return status
	}

	token, err := s.gateway.Authenticate(ctx, true)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Connected = true
	if len(token) > 12 {
		token = token[:12] + "..."
	}
	status.TokenPreview = token
	return status
}

// ClearToken drops the cached vendor token.
func (s *SettingsService) ClearToken(ctx context.Context) {
	s.gateway.ClearToken(ctx)
}
