package raster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/garyjia/billcraft/internal/invoice/render"
)

const (
	// DefaultScale matches the high-DPI capture used for print output
	DefaultScale = 2.5
	// DefaultSettleDelay lets late layout (web fonts, logo decode) finish
	DefaultSettleDelay = 500 * time.Millisecond

	cleanupTimeout = 5 * time.Second
)

const waitForAssetsJS = `() => {
	const images = Array.from(document.images)
		.filter(img => !img.complete)
		.map(img => new Promise(resolve => { img.onload = img.onerror = resolve; }));
	const fonts = document.fonts ? document.fonts.ready : Promise.resolve();
	return Promise.all([fonts, ...images]).then(() => true);
}`

const measureHeightJS = `() => {
	const el = document.getElementById('invoice-content') || document.body;
	return Math.ceil(Math.max(el.scrollHeight, el.getBoundingClientRect().height));
}`

// Config configures the headless browser capture
type Config struct {
	// BrowserBin is the Chromium executable. Empty uses a locally found
	// browser, downloading one if none is installed.
	BrowserBin string
	// ControlURL connects to an already running browser instead of launching one
	ControlURL  string
	NoSandbox   bool
	Scale       float64
	SettleDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Scale <= 0 {
		c.Scale = DefaultScale
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	return c
}

// RodRasterizer captures documents with headless Chromium.
// The browser process is shared; every capture runs in its own incognito
// context and page which are closed when the capture returns.
type RodRasterizer struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	launch  *launcher.Launcher
}

// NewRodRasterizer creates a rasterizer. The browser starts on first use.
func NewRodRasterizer(cfg Config) *RodRasterizer {
	return &RodRasterizer{cfg: cfg.withDefaults()}
}

// Rasterize implements Rasterizer
func (r *RodRasterizer) Rasterize(ctx context.Context, doc *render.Document) (*Bitmap, error) {
	if doc == nil || doc.HTML == "" {
		return nil, fmt.Errorf("%w: empty document", ErrRasterizationFailed)
	}

	incognito, page, err := r.openPage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderContextUnavailable, err)
	}
	defer closeBrowser(incognito)
	defer closePage(page)

	png, err := r.capture(ctx, page.Context(ctx), doc)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrRasterizationFailed, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrRasterizationFailed, err)
	}

	bmp, err := NewBitmap(png, r.cfg.Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterizationFailed, err)
	}
	return bmp, nil
}

func (r *RodRasterizer) capture(ctx context.Context, page *rod.Page, doc *render.Document) ([]byte, error) {
	width := doc.Width
	if width <= 0 {
		width = render.CanonicalWidth
	}
	viewportHeight := contentHeight(doc.Height, 0)

	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            viewportHeight,
		DeviceScaleFactor: r.cfg.Scale,
	})
	if err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.SetDocumentContent(doc.HTML); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}
	if _, err := page.Eval(waitForAssetsJS); err != nil {
		return nil, fmt.Errorf("wait for assets: %w", err)
	}

	if r.cfg.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.cfg.SettleDelay):
		}
	}

	res, err := page.Eval(measureHeightJS)
	if err != nil {
		return nil, fmt.Errorf("measure content: %w", err)
	}
	height := contentHeight(res.Value.Int(), doc.Height)

	return page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      0,
			Y:      0,
			Width:  float64(width),
			Height: float64(height),
			Scale:  1,
		},
		CaptureBeyondViewport: true,
	})
}

// openPage creates an incognito context with one page. A browser that no
// longer answers is discarded and relaunched once before giving up.
func (r *RodRasterizer) openPage() (*rod.Browser, *rod.Page, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		browser, err := r.ensureBrowser()
		if err != nil {
			return nil, nil, err
		}
		incognito, page, err := newIncognitoPage(browser)
		if err == nil {
			return incognito, page, nil
		}
		r.discard(browser)
		lastErr = err
	}
	return nil, nil, lastErr
}

func newIncognitoPage(browser *rod.Browser) (*rod.Browser, *rod.Page, error) {
	incognito, err := browser.Incognito()
	if err != nil {
		return nil, nil, fmt.Errorf("create context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		closeBrowser(incognito)
		return nil, nil, fmt.Errorf("create page: %w", err)
	}
	return incognito, page, nil
}

// discard drops browser if it is still the shared one, so the next
// capture launches or reconnects a fresh process
func (r *RodRasterizer) discard(browser *rod.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != browser {
		return
	}
	closeBrowser(browser)
	r.browser = nil
	r.stopLauncher()
}

func (r *RodRasterizer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	controlURL := r.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true).NoSandbox(r.cfg.NoSandbox)
		if r.cfg.BrowserBin != "" {
			l = l.Bin(r.cfg.BrowserBin)
		} else if path, ok := launcher.LookPath(); ok {
			l = l.Bin(path)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		r.launch = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if r.launch != nil {
			r.launch.Kill()
			r.launch = nil
		}
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	r.browser = browser
	return browser, nil
}

// Close shuts the browser down
func (r *RodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.stopLauncher()
	return err
}

func (r *RodRasterizer) stopLauncher() {
	if r.launch != nil {
		r.launch.Kill()
		r.launch.Cleanup()
		r.launch = nil
	}
}

// closeBrowser and closePage run teardown on their own deadline, never the
// caller's context, so a cancelled capture still releases its target
func closeBrowser(b *rod.Browser) {
	b = b.Timeout(cleanupTimeout)
	defer b.CancelTimeout()
	_ = b.Close()
}

func closePage(p *rod.Page) {
	p = p.Timeout(cleanupTimeout)
	defer p.CancelTimeout()
	_ = p.Close()
}

var _ Rasterizer = (*RodRasterizer)(nil)
