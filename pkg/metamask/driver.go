// Package metamask drives the MetaMask browser extension inside an AdsPower
// profile. MetaMask opens its approval prompts in a separate popup window
// (notification.html under the extension origin); the driver finds that
// window, clicks through it and returns to the dApp page.
package metamask

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

const (
	extensionPrefix     = "chrome-extension://"
	notificationPage    = "notification.html"
	popupPollInterval   = 500 * time.Millisecond
	popupSettleDelay    = time.Second
	perSelectorTimeout  = 3 * time.Second
	unlockFieldTimeout  = 5 * time.Second
	defaultPopupTimeout = 30 * time.Second
)

// Driver operates the MetaMask extension of one browser.
type Driver struct {
	browser   *rod.Browser
	txTimeout time.Duration
	log       *zap.Logger
}

// New creates a driver. txTimeout bounds how long ConfirmTransaction waits
// for the confirmation popup.
func New(b *rod.Browser, txTimeout time.Duration, log *zap.Logger) *Driver {
	if txTimeout <= 0 {
		txTimeout = defaultPopupTimeout
	}
	return &Driver{browser: b, txTimeout: txTimeout, log: log}
}

// button describes one way to find a clickable button. CSS is tried as a
// selector; Text is a regular expression matched against button text, which
// covers both the English and localized UI variants.
type button struct {
	CSS  string
	Text string
}

// Unlock enters the wallet password if MetaMask is locked. A missing password
// field means the wallet is already unlocked, which is success.
func (d *Driver) Unlock(password string) error {
	page := d.findPage(func(url string) bool {
		return strings.HasPrefix(url, extensionPrefix)
	})
	if page == nil {
		// No extension UI open; MetaMask prompts will surface as popups
		// later and arrive unlocked or ask then.
		d.log.Debug("no metamask page open, skipping unlock")
		return nil
	}

	field, err := page.Timeout(unlockFieldTimeout).Element(`input[data-testid="unlock-password"]`)
	if err != nil {
		d.log.Info("metamask appears to be already unlocked")
		return nil
	}

	// Select-all so Input replaces any stale text.
	_ = field.SelectAllText()
	if err := field.Input(password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}

	submit, err := page.Timeout(perSelectorTimeout).Element(`button[data-testid="unlock-submit"]`)
	if err != nil {
		return fmt.Errorf("unlock button not found: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click unlock: %w", err)
	}

	time.Sleep(2 * time.Second)
	d.log.Info("metamask unlocked")
	return nil
}

// ConnectToDapp approves a pending connection request. Some MetaMask versions
// show a two-screen flow (accounts, then permissions), so the buttons are
// clicked up to twice.
func (d *Driver) ConnectToDapp() error {
	buttons := []button{
		{CSS: `button[data-testid="page-container-footer-next"]`},
		{CSS: `button[data-testid="confirm-btn"]`},
		{CSS: `button.btn-primary`},
		{Text: `Next|Далее|Connect|Подключить`},
	}

	popup, err := d.waitPopup(defaultPopupTimeout)
	if err != nil {
		return err
	}
	time.Sleep(popupSettleDelay)

	if !d.clickFirst(popup, buttons) {
		return fmt.Errorf("connect button not found in metamask popup")
	}

	// Second confirmation screen, if any. The popup may already be gone.
	time.Sleep(popupSettleDelay)
	if popup2, err := d.waitPopup(perSelectorTimeout); err == nil {
		d.clickFirst(popup2, buttons)
	}

	d.log.Info("dapp connection approved")
	return nil
}

// ApproveAddNetwork approves adding a network, then the switch-network prompt
// if MetaMask offers one.
func (d *Driver) ApproveAddNetwork() error {
	popup, err := d.waitPopup(defaultPopupTimeout)
	if err != nil {
		return err
	}
	time.Sleep(popupSettleDelay)

	approve := []button{
		{CSS: `button[data-testid="confirmation-submit-button"]`},
		{CSS: `button.btn-primary`},
		{Text: `Approve|Одобрить`},
	}
	if !d.clickFirst(popup, approve) {
		return fmt.Errorf("approve button not found in metamask popup")
	}

	time.Sleep(2 * time.Second)

	switchNet := []button{
		{CSS: `button[data-testid="confirmation-submit-button"]`},
		{Text: `Switch|Переключить`},
	}
	if popup2, err := d.waitPopup(perSelectorTimeout); err == nil {
		d.clickFirst(popup2, switchNet)
	}

	d.log.Info("network addition approved")
	return nil
}

// ConfirmTransaction confirms a pending transaction.
func (d *Driver) ConfirmTransaction() error {
	popup, err := d.waitPopup(d.txTimeout)
	if err != nil {
		return err
	}
	time.Sleep(popupSettleDelay)

	confirm := []button{
		{CSS: `button[data-testid="confirm-footer-button"]`},
		{CSS: `button[data-testid="page-container-footer-next"]`},
		{CSS: `button[data-testid="confirmation-submit-button"]`},
		{CSS: `button.btn-primary`},
		{Text: `Confirm|Подтвердить`},
	}
	if !d.clickFirst(popup, confirm) {
		return fmt.Errorf("confirm button not found in metamask popup")
	}

	time.Sleep(2 * time.Second)
	d.log.Info("transaction confirmed")
	return nil
}

// RejectAllPending dismisses leftover MetaMask prompts so a failed run does
// not leave the next one staring at a stale popup.
func (d *Driver) RejectAllPending() {
	pages, err := d.browser.Pages()
	if err != nil {
		return
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil || !strings.HasPrefix(info.URL, extensionPrefix) {
			continue
		}
		cancel, err := p.Timeout(2 * time.Second).Element(`button[data-testid="page-container-footer-cancel"]`)
		if err != nil {
			continue
		}
		if err := cancel.Click(proto.InputMouseButtonLeft, 1); err == nil {
			d.log.Info("rejected pending metamask request")
		}
	}
}

// waitPopup polls the browser's targets until the MetaMask notification
// window shows up.
func (d *Driver) waitPopup(timeout time.Duration) (*rod.Page, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		page := d.findPage(func(url string) bool {
			return strings.HasPrefix(url, extensionPrefix) && strings.Contains(url, notificationPage)
		})
		if page != nil {
			return page, nil
		}
		time.Sleep(popupPollInterval)
	}
	return nil, fmt.Errorf("metamask popup did not appear within %s", timeout)
}

func (d *Driver) findPage(match func(url string) bool) *rod.Page {
	pages, err := d.browser.Pages()
	if err != nil {
		return nil
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if match(info.URL) {
			return p
		}
	}
	return nil
}

// clickFirst tries each button in order and clicks the first one present.
func (d *Driver) clickFirst(page *rod.Page, buttons []button) bool {
	for _, b := range buttons {
		var el *rod.Element
		var err error

		if b.CSS != "" {
			el, err = page.Timeout(perSelectorTimeout).Element(b.CSS)
		} else {
			el, err = page.Timeout(perSelectorTimeout).ElementR("button", b.Text)
		}
		if err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			continue
		}

		d.log.Debug("clicked metamask button", zap.String("css", b.CSS), zap.String("text", b.Text))
		time.Sleep(popupSettleDelay)
		return true
	}
	return false
}
