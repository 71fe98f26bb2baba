// Package flows implements the page-level automation for the Tempo faucet and
// the OnChainGM app, and exposes them to the runner as a step adapter.
package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Config carries the target URLs and network identity for the flows.
type Config struct {
	FaucetURL       string
	GMURL           string
	NetworkID       string
	NetworkName     string
	ElementTimeout  time.Duration
	PageLoadTimeout time.Duration
}

const pageSettleDelay = 3 * time.Second

// clickByText clicks the first element of the given tag whose text matches
// the regular expression.
func clickByText(page *rod.Page, tag, textRe string, timeout time.Duration) error {
	el, err := page.Timeout(timeout).ElementR(tag, textRe)
	if err != nil {
		return fmt.Errorf("%s matching %q not found: %w", tag, textRe, err)
	}
	if err := el.ScrollIntoView(); err == nil {
		time.Sleep(500 * time.Millisecond)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click %s matching %q: %w", tag, textRe, err)
	}
	return nil
}

// clickOptional is clickByText for buttons that legitimately may be absent
// (already-done state). Absence reports false with no error; a button that is
// present but cannot be clicked is a real failure and must not pass for done.
func clickOptional(page *rod.Page, tag, textRe string, timeout time.Duration) (bool, error) {
	el, err := page.Timeout(timeout).ElementR(tag, textRe)
	if err != nil {
		if absent(err) {
			return false, nil
		}
		return false, fmt.Errorf("%s matching %q lookup failed: %w", tag, textRe, err)
	}

	if err := el.ScrollIntoView(); err == nil {
		time.Sleep(500 * time.Millisecond)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("failed to click %s matching %q: %w", tag, textRe, err)
	}
	return true, nil
}

// absent reports whether a lookup error means the element never appeared
// within the wait, as opposed to the page or session breaking. Cancellation
// is not absence; it aborts the flow.
func absent(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// selectedAddress reads the wallet address the page sees after a connect.
// Best effort: an empty string means the provider did not expose it.
func selectedAddress(page *rod.Page) string {
	res, err := page.Timeout(5 * time.Second).Eval(`() => (window.ethereum && window.ethereum.selectedAddress) || ""`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
