// Package browser attaches to a browser that AdsPower already launched. The
// profile's cookies, extensions and fingerprint live in that browser, so we
// never launch our own; we connect over the CDP endpoint AdsPower hands out.
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Session is a connected browser plus the page the flows drive.
type Session struct {
	Browser *rod.Browser
	Page    *rod.Page

	log *zap.Logger
}

// Attach connects to a running browser via its CDP websocket URL and selects
// a working page (a regular tab, not an extension view). Navigation timeouts
// are the flows' concern; the page is only bound to the run context here.
func Attach(ctx context.Context, controlURL string, log *zap.Logger) (*Session, error) {
	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := workingPage(b)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire a page: %w", err)
	}
	page = page.Context(ctx)

	log.Info("attached to browser", zap.String("control_url", controlURL))
	return &Session{Browser: b, Page: page, log: log}, nil
}

// workingPage picks the first regular tab, creating one if the browser only
// has extension or devtools targets open.
func workingPage(b *rod.Browser) (*rod.Page, error) {
	pages, err := b.Pages()
	if err != nil {
		return nil, err
	}

	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if isRegularURL(info.URL) {
			return p, nil
		}
	}

	return b.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

func isRegularURL(url string) bool {
	return !strings.HasPrefix(url, "chrome-extension://") &&
		!strings.HasPrefix(url, "devtools://") &&
		!strings.HasPrefix(url, "chrome://")
}

// Close disconnects from the browser. The browser process itself belongs to
// AdsPower and is stopped through its API, not here.
func (s *Session) Close() {
	if err := s.Browser.Close(); err != nil {
		s.log.Debug("browser close", zap.Error(err))
	}
}
