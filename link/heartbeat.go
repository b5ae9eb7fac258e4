package link

import "time"

// ExpectedPingInterval is the cadence at which the terminal is expected to
// send PING (spec.md §4.6: "It expects PING at 1000 ms cadence").
const ExpectedPingInterval = 1000 * time.Millisecond

// RetryInterval is the wait between unsolicited PONGs in the retry
// sequence (spec.md §4.6: "wait 500 ms; repeat up to 3 times").
const RetryInterval = 500 * time.Millisecond

// missedWindowsBeforeRetry is "On three consecutive missed expected PINGs"
// from spec.md §4.6.
const missedWindowsBeforeRetry = 3

// maxRetryAttempts is "repeat up to 3 times" from spec.md §4.6.
const maxRetryAttempts = 3

// Heartbeat implements the Link Layer's heartbeat supervision (spec.md
// §4.6). It tracks PING arrivals in 1000 ms windows; after three
// consecutive empty windows it runs a retry sequence of up to three
// unsolicited PONGs 500 ms apart, and reports link loss if no PING arrives
// across the whole sequence.
type Heartbeat struct {
	sendPong   func()
	onLinkLost func()

	started            bool
	windowStart        time.Time
	pingSeenThisWindow bool
	missedWindows      int

	retrying     bool
	retryAttempt int
	retryDeadline time.Time

	linkLost bool
}

// NewHeartbeat builds a Heartbeat. sendPong is called to emit an
// unsolicited PONG frame during the retry sequence; onLinkLost is called
// exactly once, the moment the retry sequence exhausts without a PING.
func NewHeartbeat(sendPong func(), onLinkLost func()) *Heartbeat {
	return &Heartbeat{sendPong: sendPong, onLinkLost: onLinkLost}
}

// OnPing records that a PING arrived at time now, and recovers from an
// in-progress retry sequence (PONG is always sent by the caller in direct
// reply to a PING — that's the link's normal traffic, not this method's
// job).
func (h *Heartbeat) OnPing(now time.Time) {
	h.pingSeenThisWindow = true
	if h.retrying {
		h.retrying = false
		h.retryAttempt = 0
	}
	h.missedWindows = 0
}

// Tick advances the window/retry bookkeeping. Callers drive it at a finer
// cadence than ExpectedPingInterval (e.g. the ~100 ms controller TICK).
func (h *Heartbeat) Tick(now time.Time) {
	if h.linkLost {
		return
	}
	if !h.started {
		h.started = true
		h.windowStart = now
		return
	}

	if h.retrying {
		if !now.Before(h.retryDeadline) {
			if h.retryAttempt >= maxRetryAttempts {
				h.linkLost = true
				if h.onLinkLost != nil {
					h.onLinkLost()
				}
				return
			}
			h.retryAttempt++
			if h.sendPong != nil {
				h.sendPong()
			}
			h.retryDeadline = now.Add(RetryInterval)
		}
		return
	}

	if now.Sub(h.windowStart) < ExpectedPingInterval {
		return
	}

	if h.pingSeenThisWindow {
		h.missedWindows = 0
	} else {
		h.missedWindows++
		if h.missedWindows >= missedWindowsBeforeRetry {
			h.retrying = true
			h.retryAttempt = 1
			if h.sendPong != nil {
				h.sendPong()
			}
			h.retryDeadline = now.Add(RetryInterval)
		}
	}
	h.windowStart = now
	h.pingSeenThisWindow = false
}

// LinkLost reports whether the retry sequence has exhausted. Recovery is
// only via power cycle (spec.md §4.6), so there is no Reset for this flag.
func (h *Heartbeat) LinkLost() bool { return h.linkLost }
