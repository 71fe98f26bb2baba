package flows

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"go.uber.org/zap"

	"github.com/ev28032024/TempoMetamask/pkg/metamask"
	"github.com/ev28032024/TempoMetamask/pkg/models"
)

// Adapter maps step names onto browser flows. It is the runner's only view
// of the browser: one adapter serves one profile's session.
//
// AddFunds and SetFeeToken both live on the faucet page, so the shared
// navigate/connect/add-network preamble runs once per session no matter
// which of the two executes first. A resumed run that only needs SetFeeToken
// still gets the wallet connected before the fee-token click.
type Adapter struct {
	faucet *Faucet
	gm     *GM
	log    *zap.Logger

	onAddress   func(address string)
	faucetReady bool
}

// NewAdapter builds the adapter for one profile session.
func NewAdapter(page *rod.Page, mm *metamask.Driver, cfg Config, log *zap.Logger) *Adapter {
	return &Adapter{
		faucet: NewFaucet(page, mm, cfg, log),
		gm:     NewGM(page, mm, cfg, log),
		log:    log,
	}
}

// OnAddress registers a callback invoked once with the connected wallet
// address, when the page exposes it.
func (a *Adapter) OnAddress(fn func(address string)) {
	a.onAddress = fn
}

// RunStep executes one step of the checklist.
func (a *Adapter) RunStep(ctx context.Context, step models.StepName) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch step {
	case models.StepAddFunds:
		if err := a.ensureFaucetReady(); err != nil {
			return err
		}
		return a.faucet.RequestFunds()

	case models.StepSetFeeToken:
		if err := a.ensureFaucetReady(); err != nil {
			return err
		}
		return a.faucet.SetFeeToken()

	case models.StepGM:
		return a.gm.Run()

	default:
		return fmt.Errorf("unknown step %q", step)
	}
}

func (a *Adapter) ensureFaucetReady() error {
	if a.faucetReady {
		return nil
	}

	if err := a.faucet.Navigate(); err != nil {
		return err
	}
	if err := a.faucet.ConnectWallet(); err != nil {
		return err
	}
	if err := a.faucet.AddNetwork(); err != nil {
		return err
	}

	a.captureAddress()
	a.faucetReady = true
	return nil
}

func (a *Adapter) captureAddress() {
	if a.onAddress == nil {
		return
	}
	addr := selectedAddress(a.faucet.page)
	if addr == "" {
		a.log.Debug("wallet address not exposed by page")
		return
	}
	a.onAddress(addr)
	a.onAddress = nil
}
