package verification

import (
	"context"
	"sync"
	"time"

	"github.com/grandhotel/checkin/internal/apierror"
	"github.com/grandhotel/checkin/pingone"
	"github.com/sirupsen/logrus"
)

const (
	// maxPollDuration is the wall-clock budget for one session, independent
	// of the provider-declared expiry.
	maxPollDuration = 2 * time.Minute

	// maxConsecutiveErrors is the retry budget; exceeding it forces the
	// session into StatusFailed.
	maxConsecutiveErrors = 5

	healthyInterval  = 2 * time.Second
	degradedInterval = 5 * time.Second
	slowestInterval  = 10 * time.Second
)

// SessionClient performs the two network calls the poller needs. Satisfied by
// *pingone.Client.
type SessionClient interface {
	CheckStatus(ctx context.Context, accessToken, environmentID, sessionID string) (*pingone.StatusResponse, error)
	FetchCredentialData(ctx context.Context, accessToken, environmentID, sessionID string) (*pingone.CredentialData, error)
}

// StatusCallback receives every normalized status a completed check yields,
// with the raw provider payload when one exists. For StatusApproved, info
// carries the extracted user record when credential extraction succeeded.
type StatusCallback func(status Status, raw *pingone.StatusResponse, info *UserInfo)

// ErrorCallback receives every failed check, whether or not polling continues.
type ErrorCallback func(err error)

// Poller drives repeated status checks against one verification session until
// a terminal condition. One poller owns one session's state; sessions never
// share a poller. At most one request is in flight and at most one future
// check is scheduled at any time.
type Poller struct {
	mu       sync.Mutex
	client   SessionClient
	session  Session
	onStatus StatusCallback
	onError  ErrorCallback

	status            Status
	consecutiveErrors int
	startedAt         time.Time
	active            bool
	lastErr           error

	// generation invalidates in-flight checks after Stop/Reset; a check
	// started under an older generation discards its result.
	generation  int
	cancelTimer func()

	now      func() time.Time
	schedule func(d time.Duration, fn func()) (cancel func())
}

func NewPoller(client SessionClient, session Session, onStatus StatusCallback, onError ErrorCallback) *Poller {
	return &Poller{
		client:   client,
		session:  session,
		onStatus: onStatus,
		onError:  onError,
		status:   StatusPending,
		now:      time.Now,
		schedule: func(d time.Duration, fn func()) func() {
			t := time.AfterFunc(d, fn)
			return func() { t.Stop() }
		},
	}
}

// Start begins polling. It is a no-op when already active. A session missing
// any identity field reports a configuration error through the error callback
// and never issues a network request; Start itself never returns an error.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return
	}
	if err := p.session.Validate(); err != nil {
		confErr := apierror.NewAPIError(apierror.ErrConfiguration,
			"cannot start polling: missing required session fields", err.Error())
		p.lastErr = confErr
		errCb := p.onError
		p.mu.Unlock()
		if errCb != nil {
			errCb(confErr)
		}
		return
	}

	p.active = true
	p.generation++
	p.startedAt = p.now()
	p.consecutiveErrors = 0
	p.status = StatusPending
	p.lastErr = nil
	p.scheduleCheckLocked(0)
	p.mu.Unlock()
}

// Stop cancels any scheduled check. Idempotent. A check already in flight is
// allowed to complete but its result is discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

// Reset stops polling and restores the initial state. Safe to call at any
// time, including before the first Start.
func (p *Poller) Reset() {
	p.mu.Lock()
	p.resetLocked()
	p.mu.Unlock()
}

// UpdateSession swaps the session identity the poller targets. A changed
// identity fully resets internal state so counters never leak across
// sessions; an identical session is a no-op.
func (p *Poller) UpdateSession(session Session) {
	p.mu.Lock()
	if session == p.session {
		p.mu.Unlock()
		return
	}
	p.resetLocked()
	p.session = session
	p.mu.Unlock()
}

// Status returns the current normalized status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Active reports whether the poller is currently driving checks.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// LastError returns the most recent check error, or nil.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Poller) stopLocked() {
	p.active = false
	p.generation++
	if p.cancelTimer != nil {
		p.cancelTimer()
		p.cancelTimer = nil
	}
}

func (p *Poller) resetLocked() {
	p.stopLocked()
	p.status = StatusPending
	p.lastErr = nil
	p.consecutiveErrors = 0
}

// scheduleCheckLocked replaces any pending timer with a check after d.
func (p *Poller) scheduleCheckLocked(d time.Duration) {
	if p.cancelTimer != nil {
		p.cancelTimer()
	}
	gen := p.generation
	p.cancelTimer = p.schedule(d, func() { p.check(gen) })
}

// terminateLocked records a terminal status, stops polling and returns the
// notification to run once the lock is released.
func (p *Poller) terminateLocked(status Status) func() {
	p.status = status
	cb := p.onStatus
	p.stopLocked()
	return func() {
		if cb != nil {
			cb(status, nil, nil)
		}
	}
}

// check runs one polling cycle.
func (p *Poller) check(gen int) {
	p.mu.Lock()
	if !p.active || gen != p.generation {
		p.mu.Unlock()
		return
	}

	now := p.now()
	if p.session.Expired(now) {
		notify := p.terminateLocked(StatusExpired)
		p.mu.Unlock()
		logrus.Infof("verification session %s expired before completion", p.session.SessionID)
		notify()
		return
	}
	if now.Sub(p.startedAt) >= maxPollDuration {
		notify := p.terminateLocked(StatusTimeout)
		p.mu.Unlock()
		logrus.Infof("verification session %s exceeded polling budget", p.session.SessionID)
		notify()
		return
	}

	session := p.session
	p.mu.Unlock()

	resp, err := p.client.CheckStatus(context.Background(), session.AccessToken, session.EnvironmentID, session.SessionID)
	if err != nil {
		p.handleCheckFailure(gen, err)
		return
	}

	normalized, err := Normalize(RawStatus(resp.Status))
	if err != nil {
		p.handleCheckFailure(gen, err)
		return
	}

	var info *UserInfo
	if normalized == StatusApproved && !p.stale(gen) {
		info = p.fetchUserInfo(session)
	}

	p.mu.Lock()
	if !p.active || gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.consecutiveErrors = 0
	p.lastErr = nil
	p.status = normalized
	statusCb := p.onStatus
	if normalized.Terminal() {
		p.stopLocked()
	} else {
		p.scheduleCheckLocked(intervalFor(p.consecutiveErrors))
	}
	p.mu.Unlock()

	if statusCb != nil {
		statusCb(normalized, resp, info)
	}
}

func (p *Poller) handleCheckFailure(gen int, err error) {
	p.mu.Lock()
	if !p.active || gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.lastErr = err
	p.consecutiveErrors++
	count := p.consecutiveErrors
	errCb := p.onError

	var notify func()
	if count > maxConsecutiveErrors {
		logrus.Errorf("verification session %s: %d consecutive errors, giving up: %v",
			p.session.SessionID, count, err)
		notify = p.terminateLocked(StatusFailed)
	} else {
		p.scheduleCheckLocked(intervalFor(count))
	}
	p.mu.Unlock()

	if errCb != nil {
		errCb(err)
	}
	if notify != nil {
		notify()
	}
}

// fetchUserInfo performs the single awaited credential fetch for an approved
// session. Failures degrade to a nil record and are reported through the
// error callback; they never suppress the approved notification.
func (p *Poller) fetchUserInfo(session Session) *UserInfo {
	data, err := p.client.FetchCredentialData(context.Background(), session.AccessToken, session.EnvironmentID, session.SessionID)
	if err != nil {
		logrus.Errorf("credential data fetch failed for session %s: %v", session.SessionID, err)
		p.mu.Lock()
		errCb := p.onError
		p.mu.Unlock()
		if errCb != nil {
			errCb(err)
		}
		return nil
	}
	return Extract(data).UserInfo
}

func (p *Poller) stale(gen int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.active || gen != p.generation
}

// intervalFor returns the delay before the next check given the consecutive
// error count at scheduling time: fast while healthy, slower under transient
// failure, bounded at ten seconds.
func intervalFor(consecutiveErrors int) time.Duration {
	switch {
	case consecutiveErrors == 0:
		return healthyInterval
	case consecutiveErrors <= 3:
		return degradedInterval
	default:
		return slowestInterval
	}
}
