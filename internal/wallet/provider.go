package wallet

import (
	"context"
	"errors"

	"market_sync/internal/domain"
	"market_sync/internal/infra"
)

// ErrNoAccount is returned when the wallet holds no usable account.
var ErrNoAccount = errors.New("no account configured")

// ConfigProvider is a headless wallet provider: the active account comes
// from configuration (or the MARKET_ACCOUNT environment override). Signing
// happens at the gateway with the configured keys.
type ConfigProvider struct {
	account string
}

var _ domain.WalletProvider = (*ConfigProvider)(nil)

// NewConfigProvider creates a provider from configuration. Returns nil when
// no account is configured, which the session binder reports as a missing
// identity collaborator.
func NewConfigProvider(cfg *infra.Config) *ConfigProvider {
	if cfg.Wallet.Account == "" {
		return nil
	}
	return &ConfigProvider{account: cfg.Wallet.Account}
}

// RequestAccount returns the configured account address.
func (p *ConfigProvider) RequestAccount(_ context.Context) (domain.Address, error) {
	if p.account == "" {
		return "", ErrNoAccount
	}
	return domain.ParseAddress(p.account)
}
