package session

import "time"

// State is where a browser session sits in its lifecycle.
type State int

const (
	Anonymous State = iota
	Authenticated
	Expiring
	Expired
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Expiring:
		return "expiring"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Session is the stored record. Zero values mean absent.
type Session struct {
	Token       string
	Expiry      time.Time
	Username    string
	IsSuperuser bool
}

// Remaining is the time left before expiry, zero once it has passed.
func (s Session) Remaining(now time.Time) time.Duration {
	if s.Expiry.IsZero() || !now.Before(s.Expiry) {
		return 0
	}
	return s.Expiry.Sub(now)
}

// CheckResult reports what a periodic check did.
type CheckResult struct {
	Refreshed       bool
	Cleared         bool
	RedirectToLogin bool
}
