package flows

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/ev28032024/TempoMetamask/pkg/metamask"
)

// GM drives onchaingm.com: find the Tempo card, connect the wallet through
// the wallet-selection modal and send the GM transaction.
type GM struct {
	page *rod.Page
	mm   *metamask.Driver
	cfg  Config
	log  *zap.Logger
}

// NewGM creates the GM flow over an attached page.
func NewGM(page *rod.Page, mm *metamask.Driver, cfg Config, log *zap.Logger) *GM {
	return &GM{page: page, mm: mm, cfg: cfg, log: log}
}

// Run executes the whole GM sequence.
func (g *GM) Run() error {
	if err := g.navigate(); err != nil {
		return err
	}

	card, err := g.findCard()
	if err != nil {
		return err
	}

	if err := g.connect(card); err != nil {
		return err
	}

	return g.sayGM(card)
}

func (g *GM) navigate() error {
	page := g.page.Timeout(g.cfg.PageLoadTimeout)
	if err := page.Navigate(g.cfg.GMURL); err != nil {
		return fmt.Errorf("failed to navigate to onchaingm: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("onchaingm page did not load: %w", err)
	}
	time.Sleep(pageSettleDelay)

	g.log.Info("navigated to onchaingm", zap.String("url", g.cfg.GMURL))
	return nil
}

// findCard locates the Tempo network card, preferring the data attribute and
// falling back to the visible network name.
func (g *GM) findCard() (*rod.Element, error) {
	selector := fmt.Sprintf(`[data-network-id="%s"]`, g.cfg.NetworkID)
	card, err := g.page.Timeout(g.cfg.ElementTimeout).Element(selector)
	if err != nil {
		card, err = g.page.Timeout(g.cfg.ElementTimeout).ElementR("div", g.cfg.NetworkName)
		if err != nil {
			return nil, fmt.Errorf("%s card not found: %w", g.cfg.NetworkName, err)
		}
	}

	if err := card.ScrollIntoView(); err == nil {
		time.Sleep(500 * time.Millisecond)
	}

	g.log.Info("found network card", zap.String("network", g.cfg.NetworkName))
	return card, nil
}

// connect clicks the card's connect button, picks MetaMask in the wallet
// modal and approves the connection.
func (g *GM) connect(card *rod.Element) error {
	btn, err := card.Timeout(g.cfg.ElementTimeout).Element("button")
	if err != nil {
		return fmt.Errorf("connect button not found on card: %w", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click connect: %w", err)
	}
	time.Sleep(2 * time.Second)

	// Wallet selection modal.
	opt, err := g.page.Timeout(g.cfg.ElementTimeout).Element(`[data-testid="rk-wallet-option-io.metamask"]`)
	if err != nil {
		opt, err = g.page.Timeout(g.cfg.ElementTimeout).ElementR("button", `MetaMask`)
		if err != nil {
			return fmt.Errorf("metamask wallet option not found: %w", err)
		}
	}
	if err := opt.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to pick metamask: %w", err)
	}
	time.Sleep(2 * time.Second)

	if err := g.mm.ConnectToDapp(); err != nil {
		return fmt.Errorf("failed to approve connection: %w", err)
	}
	time.Sleep(2 * time.Second)
	return nil
}

// sayGM clicks the card button again (it turns into the GM button once a
// wallet is connected) and confirms the transaction.
func (g *GM) sayGM(card *rod.Element) error {
	// Give the card a moment to swap the button state.
	time.Sleep(2 * time.Second)

	btn, err := card.Timeout(g.cfg.ElementTimeout).Element("button")
	if err != nil {
		return fmt.Errorf("gm button not found on card: %w", err)
	}
	if err := btn.ScrollIntoView(); err == nil {
		time.Sleep(500 * time.Millisecond)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click gm: %w", err)
	}
	time.Sleep(2 * time.Second)

	if err := g.mm.ConfirmTransaction(); err != nil {
		return fmt.Errorf("failed to confirm gm transaction: %w", err)
	}
	time.Sleep(pageSettleDelay)

	g.log.Info("gm transaction sent")
	return nil
}
