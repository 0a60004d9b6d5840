package discovery

import (
	"context"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/gitadityakumar/LiveNews/internal/common/config"
	"github.com/sirupsen/logrus"
)

// ChromeHost opens discovery pages as tabs of one headless Chrome process.
type ChromeHost struct {
	allocCtx context.Context
	cfg      *config.DiscoveryConfig
	log      *logrus.Entry
}

// NewChromeHost prepares the browser allocator. Chrome itself starts with the
// first page; the returned cancel func shuts it down.
func NewChromeHost(ctx context.Context, cfg *config.DiscoveryConfig, log *logrus.Logger) (*ChromeHost, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)

	return &ChromeHost{
		allocCtx: allocCtx,
		cfg:      cfg,
		log:      log.WithField("component", "chrome_host"),
	}, cancel
}

// Open starts a tab on pageURL with script installed ahead of page content.
func (h *ChromeHost) Open(ctx context.Context, pageURL, script string) (<-chan string, error) {
	tabCtx, tabCancel := chromedp.NewContext(h.allocCtx, chromedp.WithLogf(h.log.Debugf))

	out := make(chan string)
	q := newRelay(out)
	go q.run(ctx)

	binding := h.cfg.BindingName
	if binding == "" {
		binding = DefaultBindingName
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventBindingCalled:
			if e.Name == binding {
				q.push(e.Payload)
			}
		case *network.EventRequestWillBeSent:
			// Media elements fetch playlists without going through fetch or XHR
			if h.cfg.NetworkEvents && strings.Contains(e.Request.URL, PlaylistMarker) {
				q.push(FoundMessage(e.Request.URL))
			}
		}
	})

	// Starting the tab here surfaces a missing Chrome binary to the caller.
	if err := chromedp.Run(tabCtx,
		runtime.Enable(),
		network.Enable(),
		network.SetBlockedURLs([]string{"*.png", "*.jpg", "*.jpeg", "*.gif"}),
		runtime.AddBinding(binding),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}),
	); err != nil {
		tabCancel()
		return nil, err
	}

	go func() {
		// Navigate blocks until load; players keep requesting long after that.
		if err := chromedp.Run(tabCtx, chromedp.Navigate(pageURL)); err != nil && ctx.Err() == nil {
			h.log.WithFields(logrus.Fields{
				"page_url": pageURL,
			}).WithError(err).Warn("Error navigating to discovery page")
		}
	}()

	go func() {
		<-ctx.Done()
		tabCancel()
	}()

	return out, nil
}

// relay forwards payloads in arrival order without ever blocking the
// chromedp event loop that pushes them.
type relay struct {
	mu    sync.Mutex
	queue []string
	wake  chan struct{}
	out   chan<- string
}

func newRelay(out chan<- string) *relay {
	return &relay{
		wake: make(chan struct{}, 1),
		out:  out,
	}
}

func (r *relay) push(payload string) {
	r.mu.Lock()
	r.queue = append(r.queue, payload)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *relay) run(ctx context.Context) {
	defer close(r.out)

	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.mu.Unlock()
			select {
			case <-r.wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		select {
		case r.out <- next:
		case <-ctx.Done():
			return
		}
	}
}
