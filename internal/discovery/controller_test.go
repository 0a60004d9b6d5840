package discovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gitadityakumar/LiveNews/internal/common/logger"
	"github.com/gitadityakumar/LiveNews/internal/kvstore"
	"github.com/gitadityakumar/LiveNews/internal/streamcache"
)

// fakeHost replays payloads and then keeps the page "open" until ctx ends.
type fakeHost struct {
	payloads []string
	err      error
	block    chan struct{} // when set, payloads wait for it to close

	mu     sync.Mutex
	opened []string
	script string
}

func (h *fakeHost) Open(ctx context.Context, pageURL, script string) (<-chan string, error) {
	h.mu.Lock()
	h.opened = append(h.opened, pageURL)
	h.script = script
	h.mu.Unlock()

	if h.err != nil {
		return nil, h.err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		if h.block != nil {
			select {
			case <-h.block:
			case <-ctx.Done():
				return
			}
		}
		for _, p := range h.payloads {
			select {
			case out <- p:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

type pageMap map[string]string

func (p pageMap) PageURL(id string) (string, bool) {
	u, ok := p[id]
	return u, ok
}

type recordingNotifier struct {
	mu       sync.Mutex
	started  []Session
	updated  []Session
	timedOut []Session
}

func (n *recordingNotifier) ScanStarted(s Session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, s)
}

func (n *recordingNotifier) StreamUpdated(s Session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, s)
}

func (n *recordingNotifier) NoStreamDetected(s Session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.timedOut = append(n.timedOut, s)
}

type fixture struct {
	host     *fakeHost
	cache    *streamcache.Service
	notifier *recordingNotifier
	ctrl     *Controller
}

func newFixture(host *fakeHost, timeout time.Duration) *fixture {
	log := logger.Discard()
	cache := streamcache.New(kvstore.NewMemory(), log)
	notifier := &recordingNotifier{}
	pages := pageMap{"203": "https://finance.example/live", "204": "https://cnn.example/live"}

	return &fixture{
		host:     host,
		cache:    cache,
		notifier: notifier,
		ctrl:     NewController(host, cache, pages, notifier, log, Options{ScanTimeout: timeout, BindingName: "__probe"}),
	}
}

func TestController_CapturesFirstValidCandidate(t *testing.T) {
	host := &fakeHost{payloads: []string{
		"not json at all",
		FoundMessage("https://track.youboranqs01.com/ping?x=1"),
		FoundMessage("https://a.com/A.m3u8"),
		FoundMessage("https://b.com/B.m3u8"),
	}}
	f := newFixture(host, time.Second)

	sess, err := f.ctrl.Reload(context.Background(), "203")
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if sess.State != Captured || sess.URL != "https://a.com/A.m3u8" {
		t.Errorf("session = %+v", sess)
	}
	if got, _ := f.cache.Get(context.Background(), "203"); got != "https://a.com/A.m3u8" {
		t.Errorf("cache holds %q, want A.m3u8 only", got)
	}
	if len(f.notifier.updated) != 1 || len(f.notifier.timedOut) != 0 || len(f.notifier.started) != 1 {
		t.Errorf("notifications: started=%d updated=%d timedOut=%d",
			len(f.notifier.started), len(f.notifier.updated), len(f.notifier.timedOut))
	}
	if host.opened[0] != "https://finance.example/live" {
		t.Errorf("opened %v", host.opened)
	}
	if !strings.Contains(host.script, `"__probe"`) {
		t.Error("probe script is not bound to the configured binding")
	}
	if f.ctrl.Active("203") {
		t.Error("session still marked active after capture")
	}
}

func TestController_UnwrapsTrackingCandidates(t *testing.T) {
	host := &fakeHost{payloads: []string{
		FoundMessage("https://stats.example.com/t?param8=https%3A%2F%2Fcdn.example.com%2Flive%2Fmaster.m3u8"),
	}}
	f := newFixture(host, time.Second)

	sess, err := f.ctrl.Reload(context.Background(), "203")
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if sess.URL != "https://cdn.example.com/live/master.m3u8" {
		t.Errorf("URL = %q", sess.URL)
	}
}

func TestController_LooseFallbackMessage(t *testing.T) {
	host := &fakeHost{payloads: []string{"https://cdn.example.com/raw.m3u8"}}
	f := newFixture(host, time.Second)

	sess, err := f.ctrl.Run(context.Background(), "203", "https://finance.example/live")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sess.URL != "https://cdn.example.com/raw.m3u8" {
		t.Errorf("URL = %q", sess.URL)
	}
}

func TestController_TimesOutWithoutCapture(t *testing.T) {
	host := &fakeHost{payloads: []string{
		FoundMessage("https://track.youboranqs01.com/ping?x=1"),
		FoundMessage("ftp://a.com/A.m3u8"),
	}}
	f := newFixture(host, 50*time.Millisecond)
	f.cache.Save(context.Background(), "203", "https://old.example/previous.m3u8")

	start := time.Now()
	sess, err := f.ctrl.Reload(context.Background(), "203")
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("timed out after %v, before the scan window", elapsed)
	}
	if sess.State != TimedOut {
		t.Errorf("state = %v, want timed_out", sess.State)
	}
	if got, _ := f.cache.Get(context.Background(), "203"); got != "https://old.example/previous.m3u8" {
		t.Errorf("cache changed to %q", got)
	}
	if len(f.notifier.timedOut) != 1 || len(f.notifier.updated) != 0 {
		t.Errorf("notifications: updated=%d timedOut=%d", len(f.notifier.updated), len(f.notifier.timedOut))
	}
}

func TestController_UnmappedChannel(t *testing.T) {
	host := &fakeHost{}
	f := newFixture(host, time.Second)

	_, err := f.ctrl.Reload(context.Background(), "206")
	if !errors.Is(err, ErrUnmappedChannel) {
		t.Fatalf("err = %v, want ErrUnmappedChannel", err)
	}
	if len(host.opened) != 0 {
		t.Error("no page should be opened for an unmapped channel")
	}
}

func TestController_MissingParams(t *testing.T) {
	f := newFixture(&fakeHost{}, time.Second)

	for _, args := range [][2]string{{"", "https://p"}, {"203", ""}} {
		if _, err := f.ctrl.Run(context.Background(), args[0], args[1]); !errors.Is(err, ErrMissingParams) {
			t.Errorf("Run(%q, %q) err = %v", args[0], args[1], err)
		}
	}
}

func TestController_HostFailure(t *testing.T) {
	f := newFixture(&fakeHost{err: errors.New("chrome not found")}, time.Second)

	sess, err := f.ctrl.Reload(context.Background(), "203")
	if err == nil {
		t.Fatal("expected error")
	}
	if sess.State != Failed {
		t.Errorf("state = %v", sess.State)
	}
	if f.ctrl.Active("203") {
		t.Error("failed session left the channel locked")
	}
}

func TestController_OneSessionPerChannel(t *testing.T) {
	block := make(chan struct{})
	host := &fakeHost{block: block, payloads: []string{FoundMessage("https://a.com/A.m3u8")}}
	f := newFixture(host, time.Second)

	done := make(chan Session, 1)
	go func() {
		sess, _ := f.ctrl.Reload(context.Background(), "203")
		done <- sess
	}()

	deadline := time.Now().Add(time.Second)
	for !f.ctrl.Active("203") {
		if time.Now().After(deadline) {
			t.Fatal("first session never became active")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := f.ctrl.Reload(context.Background(), "203"); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second reload err = %v, want ErrSessionActive", err)
	}

	close(block)
	if sess := <-done; sess.State != Captured {
		t.Errorf("first session = %+v", sess)
	}
}

func TestController_IndependentChannels(t *testing.T) {
	host := &fakeHost{payloads: []string{FoundMessage("https://a.com/A.m3u8")}}
	f := newFixture(host, time.Second)

	var wg sync.WaitGroup
	for _, id := range []string{"203", "204"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.ctrl.Reload(context.Background(), id); err != nil {
				t.Errorf("Reload(%s): %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"203", "204"} {
		if _, ok := f.cache.Get(context.Background(), id); !ok {
			t.Errorf("channel %s has no cached url", id)
		}
	}
}

func TestController_CallerCancellation(t *testing.T) {
	f := newFixture(&fakeHost{}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	sess, err := f.ctrl.Reload(ctx, "203")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if sess.State != Failed {
		t.Errorf("state = %v", sess.State)
	}
	if len(f.notifier.timedOut) != 0 {
		t.Error("cancellation must not look like a timeout")
	}
}
