package flows

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"go.uber.org/zap"

	"github.com/ev28032024/TempoMetamask/pkg/metamask"
)

// Faucet drives the Tempo testnet faucet page: wallet connect, network
// addition, fund request and fee-token setup.
type Faucet struct {
	page *rod.Page
	mm   *metamask.Driver
	cfg  Config
	log  *zap.Logger
}

// NewFaucet creates the faucet flow over an attached page.
func NewFaucet(page *rod.Page, mm *metamask.Driver, cfg Config, log *zap.Logger) *Faucet {
	return &Faucet{page: page, mm: mm, cfg: cfg, log: log}
}

// Navigate opens the faucet page and lets it settle. The page-load timeout
// bounds the navigation and load wait.
func (f *Faucet) Navigate() error {
	page := f.page.Timeout(f.cfg.PageLoadTimeout)
	if err := page.Navigate(f.cfg.FaucetURL); err != nil {
		return fmt.Errorf("failed to navigate to faucet: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("faucet page did not load: %w", err)
	}
	time.Sleep(pageSettleDelay)

	f.log.Info("navigated to faucet", zap.String("url", f.cfg.FaucetURL))
	return nil
}

// ConnectWallet clicks the MetaMask connect button and approves the request
// in the extension popup.
func (f *Faucet) ConnectWallet() error {
	if err := clickByText(f.page, "button", `MetaMask`, f.cfg.ElementTimeout); err != nil {
		return fmt.Errorf("metamask connect button: %w", err)
	}
	time.Sleep(2 * time.Second)

	if err := f.mm.ConnectToDapp(); err != nil {
		return fmt.Errorf("failed to approve connection: %w", err)
	}
	time.Sleep(2 * time.Second)
	return nil
}

// AddNetwork adds the Tempo network through the faucet page's button. A
// missing button means the network is already configured in the wallet.
func (f *Faucet) AddNetwork() error {
	clicked, err := clickOptional(f.page, "button", `Add Tempo`, f.cfg.ElementTimeout)
	if err != nil {
		return err
	}
	if !clicked {
		f.log.Info("add-network button not found, network likely already added")
		return nil
	}
	time.Sleep(2 * time.Second)

	if err := f.mm.ApproveAddNetwork(); err != nil {
		return fmt.Errorf("failed to approve network addition: %w", err)
	}
	time.Sleep(2 * time.Second)
	return nil
}

// RequestFunds clicks the faucet's "Add funds" button. The faucet drips
// without a wallet confirmation, so only the page-side wait applies.
func (f *Faucet) RequestFunds() error {
	if err := clickByText(f.page, "button", `Add funds`, f.cfg.ElementTimeout); err != nil {
		return fmt.Errorf("add-funds button: %w", err)
	}
	time.Sleep(5 * time.Second)

	f.log.Info("faucet funds requested")
	return nil
}

// SetFeeToken triggers the fee-token transaction and confirms it in
// MetaMask. A missing button means the fee token is already set.
func (f *Faucet) SetFeeToken() error {
	clicked, err := clickOptional(f.page, "button", `Set fee token`, f.cfg.ElementTimeout)
	if err != nil {
		return err
	}
	if !clicked {
		f.log.Info("set-fee-token button not found, likely already set")
		return nil
	}
	time.Sleep(2 * time.Second)

	if err := f.mm.ConfirmTransaction(); err != nil {
		return fmt.Errorf("failed to confirm fee-token transaction: %w", err)
	}
	time.Sleep(pageSettleDelay)

	f.log.Info("fee token set")
	return nil
}
