package discovery

import "time"

// State is the lifecycle position of a discovery session.
type State int

const (
	Idle State = iota
	Scanning
	Captured
	TimedOut
	// Failed ends a session whose page could not be opened or whose caller went away.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Captured:
		return "captured"
	case TimedOut:
		return "timed_out"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Captured || s == TimedOut || s == Failed
}

// Candidate is one URL observed by the probe for a channel.
type Candidate struct {
	RawURL    string
	ChannelID string
}

// Outcome of offering a candidate to a session.
type Outcome int

const (
	// Discarded: the session was not scanning, the offer had no effect.
	Discarded Outcome = iota
	// Rejected: the candidate failed validation; the session keeps scanning.
	Rejected
	// Accepted: the candidate was captured and the session is terminal.
	Accepted
)

// Session is one bounded attempt to find a playlist URL for a channel.
// Transitions return a new value and never mutate the receiver.
type Session struct {
	ID        string
	ChannelID string
	PageURL   string
	StartedAt time.Time
	State     State
	// URL is the accepted playlist once State is Captured.
	URL string
}

// NewSession returns an idle session.
func NewSession(channelID, pageURL string) Session {
	return Session{ChannelID: channelID, PageURL: pageURL, State: Idle}
}

// Start moves an idle session to Scanning.
func (s Session) Start(id string, now time.Time) Session {
	if s.State != Idle {
		return s
	}
	s.ID = id
	s.StartedAt = now
	s.State = Scanning
	return s
}

// Offer runs a candidate through unwrap and validation. The first valid
// candidate captures the session; anything offered afterwards is discarded.
func (s Session) Offer(c Candidate) (Session, Outcome) {
	if s.State != Scanning {
		return s, Discarded
	}
	if c.ChannelID != "" && c.ChannelID != s.ChannelID {
		return s, Discarded
	}

	resolved, ok := ResolveCandidate(c.RawURL)
	if !ok {
		return s, Rejected
	}

	s.State = Captured
	s.URL = resolved
	return s, Accepted
}

// Expire ends a scanning session without a capture.
func (s Session) Expire() Session {
	if s.State != Scanning {
		return s
	}
	s.State = TimedOut
	return s
}

// Fail ends a scanning session because the scan could not continue.
func (s Session) Fail() Session {
	if s.State != Scanning {
		return s
	}
	s.State = Failed
	return s
}

// Captured reports whether a URL was accepted.
func (s Session) Captured() bool { return s.State == Captured }

// TimedOut reports whether the scan window elapsed without a capture.
func (s Session) TimedOut() bool { return s.State == TimedOut }
