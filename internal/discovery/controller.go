// Package discovery finds fresh HLS playlist URLs for channels whose static
// links expired. It loads the channel's web page in a browser host with an
// interceptor injected, validates what the interceptor reports and stores the
// first real playlist in the stream cache.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gitadityakumar/LiveNews/internal/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultScanTimeout bounds a session that never sees a valid playlist.
const DefaultScanTimeout = 25 * time.Second

var (
	// ErrMissingParams is returned when the channel id or page URL is empty.
	ErrMissingParams = errors.New("missing channelId or pageUrl")
	// ErrUnmappedChannel is returned by Reload for channels without a discovery page.
	ErrUnmappedChannel = errors.New("channel has no discovery page")
	// ErrSessionActive is returned when the channel is already being scanned.
	ErrSessionActive = errors.New("discovery already running for channel")
)

// Host loads a page with a script installed before its content and streams
// back the raw payloads the script posts. The channel is closed once ctx is
// done; implementations must never block on a reader that stopped listening.
type Host interface {
	Open(ctx context.Context, pageURL, script string) (<-chan string, error)
}

// Cache receives accepted playlist URLs.
type Cache interface {
	Save(ctx context.Context, channelID, url string)
}

// Pages maps a channel id to the page worth scanning for it.
type Pages interface {
	PageURL(channelID string) (string, bool)
}

// Notifier is told about session progress. Only StreamUpdated and
// NoStreamDetected are meant for end users.
type Notifier interface {
	ScanStarted(s Session)
	StreamUpdated(s Session)
	NoStreamDetected(s Session)
}

// Options tune a Controller.
type Options struct {
	ScanTimeout time.Duration
	BindingName string
}

// Controller runs discovery sessions, at most one per channel at a time.
type Controller struct {
	host     Host
	cache    Cache
	pages    Pages
	notifier Notifier
	log      *logrus.Entry
	timeout  time.Duration
	script   string
	now      func() time.Time

	mu     sync.Mutex
	active map[string]Session
}

func NewController(host Host, cache Cache, pages Pages, notifier Notifier, log *logrus.Logger, opts Options) *Controller {
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = DefaultScanTimeout
	}

	return &Controller{
		host:     host,
		cache:    cache,
		pages:    pages,
		notifier: notifier,
		log:      log.WithField("component", "discovery"),
		timeout:  opts.ScanTimeout,
		script:   ProbeScript(opts.BindingName),
		now:      time.Now,
		active:   make(map[string]Session),
	}
}

// Reload scans the discovery page mapped to channelID. Channels without a
// page return ErrUnmappedChannel and no session is created.
func (c *Controller) Reload(ctx context.Context, channelID string) (Session, error) {
	pageURL, ok := c.pages.PageURL(channelID)
	if !ok {
		return Session{}, ErrUnmappedChannel
	}
	return c.Run(ctx, channelID, pageURL)
}

// Active reports whether a session for channelID is scanning.
func (c *Controller) Active(channelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[channelID]
	return ok
}

// Run scans pageURL until a valid playlist is captured or the scan window
// elapses, and returns the terminal session. A timeout is not an error.
func (c *Controller) Run(ctx context.Context, channelID, pageURL string) (Session, error) {
	if channelID == "" || pageURL == "" {
		return Session{}, ErrMissingParams
	}

	sess := NewSession(channelID, pageURL).Start(uuid.NewString(), c.now())
	if !c.claim(sess) {
		return Session{}, ErrSessionActive
	}
	defer c.release(channelID)

	entry := c.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"channel_id": channelID,
		"page_url":   pageURL,
	})

	// Cancelling the page context tears down the tab; anything it still
	// delivers after we return is never read.
	pageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs, err := c.host.Open(pageCtx, pageURL, c.script)
	if err != nil {
		metrics.DiscoverySessions.WithLabelValues(Failed.String()).Inc()
		return sess.Fail(), fmt.Errorf("open discovery page: %w", err)
	}

	metrics.DiscoverySessions.WithLabelValues("started").Inc()
	c.notifier.ScanStarted(sess)
	entry.Info("Scanning page for stream URL")

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	for {
		select {
		case raw, ok := <-msgs:
			if !ok {
				// Host finished early; keep the window open for the timer.
				msgs = nil
				continue
			}

			msg := ParseMessage(raw)
			if !msg.Usable() {
				continue
			}

			next, outcome := sess.Offer(Candidate{RawURL: msg.URL, ChannelID: channelID})
			switch outcome {
			case Rejected:
				metrics.CandidatesRejected.Inc()
				entry.WithField("candidate", msg.URL).Debug("Rejected stream candidate")
			case Accepted:
				sess = next
				c.cache.Save(ctx, channelID, sess.URL)
				metrics.DiscoverySessions.WithLabelValues(Captured.String()).Inc()
				entry.WithFields(logrus.Fields{
					"url":      sess.URL,
					"strong":   IsLikelyPlaylist(sess.URL),
					"duration": c.now().Sub(sess.StartedAt).String(),
				}).Info("Captured stream URL")
				c.notifier.StreamUpdated(sess)
				return sess, nil
			}

		case <-timer.C:
			sess = sess.Expire()
			metrics.DiscoverySessions.WithLabelValues(TimedOut.String()).Inc()
			entry.WithField("timeout", c.timeout.String()).Warn("No stream URL detected within scan window")
			c.notifier.NoStreamDetected(sess)
			return sess, nil

		case <-ctx.Done():
			metrics.DiscoverySessions.WithLabelValues(Failed.String()).Inc()
			entry.Info("Discovery cancelled")
			return sess.Fail(), ctx.Err()
		}
	}
}

func (c *Controller) claim(s Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.active[s.ChannelID]; busy {
		return false
	}
	c.active[s.ChannelID] = s
	metrics.DiscoveryActive.Inc()
	return true
}

func (c *Controller) release(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, channelID)
	metrics.DiscoveryActive.Dec()
}
