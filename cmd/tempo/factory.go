package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ev28032024/TempoMetamask/pkg/adspower"
	"github.com/ev28032024/TempoMetamask/pkg/browser"
	"github.com/ev28032024/TempoMetamask/pkg/config"
	"github.com/ev28032024/TempoMetamask/pkg/flows"
	"github.com/ev28032024/TempoMetamask/pkg/metamask"
	"github.com/ev28032024/TempoMetamask/pkg/models"
	"github.com/ev28032024/TempoMetamask/pkg/runner"
	"github.com/ev28032024/TempoMetamask/pkg/sheets"
)

// browserWarmup gives the freshly started browser time to load the MetaMask
// extension before we attach.
const browserWarmup = 3 * time.Second

// sessionFactory opens one browser session per profile: look the profile up
// in AdsPower, start its browser, attach over CDP and unlock the wallet.
type sessionFactory struct {
	ads   *adspower.Client
	store *sheets.Store
	cfg   config.Config
	log   *zap.Logger
}

func newSessionFactory(ads *adspower.Client, store *sheets.Store, cfg config.Config, log *zap.Logger) *sessionFactory {
	return &sessionFactory{ads: ads, store: store, cfg: cfg, log: log}
}

func (f *sessionFactory) Open(ctx context.Context, rec *models.ProfileRecord) (runner.StepAdapter, func(), error) {
	log := f.log.With(zap.Int("serial", rec.SerialNumber))

	profile, err := f.ads.ProfileBySerial(ctx, rec.SerialNumber)
	if err != nil {
		return nil, nil, err
	}

	// A browser that was already running before this start has its extensions
	// loaded; only a fresh start needs the warm-up pause. Checked before the
	// start, which would always report active afterwards.
	wasActive, err := f.ads.BrowserActive(ctx, profile.UserID)
	if err != nil {
		log.Debug("browser active check failed", zap.Error(err))
	}

	handle, err := f.ads.StartBrowser(ctx, profile.UserID)
	if err != nil {
		return nil, nil, err
	}

	stop := func() {
		// The run context may already be cancelled; still close the browser.
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := f.ads.StopBrowser(stopCtx, profile.UserID); err != nil {
			log.Warn("failed to stop browser", zap.Error(err))
		}
	}

	if !wasActive {
		select {
		case <-ctx.Done():
			stop()
			return nil, nil, ctx.Err()
		case <-time.After(browserWarmup):
		}
	}

	sess, err := browser.Attach(ctx, handle.WS.Puppeteer, log)
	if err != nil {
		stop()
		return nil, nil, err
	}

	mm := metamask.New(sess.Browser, f.cfg.TransactionTimeout(), log)

	cleanup := func() {
		// Dismiss prompts a failed step may have left open, then detach.
		mm.RejectAllPending()
		sess.Close()
		stop()
	}
	if err := mm.Unlock(f.cfg.MetaMaskPassword(rec.SerialNumber)); err != nil {
		cleanup()
		return nil, nil, err
	}

	adapter := flows.NewAdapter(sess.Page, mm, flows.Config{
		FaucetURL:       f.cfg.Tempo.FaucetURL,
		GMURL:           f.cfg.Tempo.GMURL,
		NetworkID:       f.cfg.Tempo.NetworkID,
		NetworkName:     f.cfg.Tempo.NetworkName,
		ElementTimeout:  f.cfg.ElementWaitTimeout(),
		PageLoadTimeout: f.cfg.PageLoadTimeout(),
	}, log)

	adapter.OnAddress(func(addr string) {
		rec.Address = addr
		if err := f.store.SaveAddress(ctx, rec); err != nil {
			log.Warn("failed to save wallet address", zap.Error(err))
			return
		}
		log.Info("wallet address recorded", zap.String("address", addr))
	})

	return adapter, cleanup, nil
}
