// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/verifier-tui/internal/clock"
)

// =============================================================================
// POLICY
// =============================================================================

const (
	// DefaultSessionTimeout is the idle time after which a session ends.
	DefaultSessionTimeout = 30 * time.Minute

	// DefaultWarningLead is how long before expiry the warning appears.
	DefaultWarningLead = 5 * time.Minute
)

// SessionPolicy holds the idle-timeout parameters.
type SessionPolicy struct {
	Timeout     time.Duration
	WarningLead time.Duration
}

// DefaultSessionPolicy returns a 30 minute timeout with a 5 minute warning.
func DefaultSessionPolicy() SessionPolicy {
	return SessionPolicy{Timeout: DefaultSessionTimeout, WarningLead: DefaultWarningLead}
}

// WarningAfter is the idle time at which the warning fires.
func (p SessionPolicy) WarningAfter() time.Duration {
	return p.Timeout - p.WarningLead
}

// Valid reports whether the warning falls strictly inside the timeout.
func (p SessionPolicy) Valid() bool {
	return p.Timeout > 0 && p.WarningLead > 0 && p.WarningLead < p.Timeout
}

// =============================================================================
// STATES AND EVENTS
// =============================================================================

// MonitorState is the idle-timeout state.
type MonitorState int

const (
	// MonitorInactive: nobody signed in, no timers.
	MonitorInactive MonitorState = iota
	// MonitorActive: timers armed, no warning.
	MonitorActive
	// MonitorWarning: warning shown, expiry still pending.
	MonitorWarning
	// MonitorExpired: expiry fired, sign-out in progress.
	MonitorExpired
)

func (s MonitorState) String() string {
	switch s {
	case MonitorInactive:
		return "inactive"
	case MonitorActive:
		return "active"
	case MonitorWarning:
		return "warning"
	case MonitorExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// SessionEvent is delivered to observers on every transition.
type SessionEvent int

const (
	SessionStarted SessionEvent = iota
	SessionWarning
	SessionExtended
	SessionExpired
	SessionEnded
)

func (e SessionEvent) String() string {
	switch e {
	case SessionStarted:
		return "started"
	case SessionWarning:
		return "warning"
	case SessionExtended:
		return "extended"
	case SessionExpired:
		return "expired"
	case SessionEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Authenticator is the part of AuthManager the monitor depends on.
type Authenticator interface {
	IsAuthenticated() bool
	Identity() Identity
	Subscribe(fn func(Identity)) (cancel func())
	Expire()
}

// =============================================================================
// SESSION MONITOR
// =============================================================================

// SessionMonitor enforces the idle timeout while a user is signed in.
//
// Every recorded activity cancels both timers and arms new ones relative to
// the current time. A generation counter guards against a callback that was
// already on its way when its timer was replaced.
type SessionMonitor struct {
	auth     Authenticator
	activity ActivitySource
	clock    clock.Clock
	audit    *AuditLogger
	logger   *zap.Logger

	mu           sync.Mutex
	policy       SessionPolicy // applied at the next arm
	armed        SessionPolicy // governs the running timers
	state        MonitorState
	lastActivity time.Time
	warningTimer clock.Timer
	expiryTimer  clock.Timer
	generation   uint64
	sessionID    string
	username     string
	stopActivity func()
	stopAuth     func()
	observers    map[int]func(SessionEvent)
	nextObserver int
}

// MonitorOption is a functional option for configuring SessionMonitor.
type MonitorOption func(*SessionMonitor)

// WithMonitorClock sets the clock used for timers.
func WithMonitorClock(c clock.Clock) MonitorOption {
	return func(m *SessionMonitor) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithSessionPolicy sets the timeout policy. Invalid policies are ignored.
func WithSessionPolicy(p SessionPolicy) MonitorOption {
	return func(m *SessionMonitor) {
		if p.Valid() {
			m.policy = p
		}
	}
}

// WithMonitorAudit sets the audit trail.
func WithMonitorAudit(a *AuditLogger) MonitorOption {
	return func(m *SessionMonitor) {
		m.audit = a
	}
}

// WithMonitorLogger sets the application logger.
func WithMonitorLogger(l *zap.Logger) MonitorOption {
	return func(m *SessionMonitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewSessionMonitor creates a monitor. activity may be nil, in which case
// only explicit OnUserActivity calls count.
func NewSessionMonitor(auth Authenticator, activity ActivitySource, opts ...MonitorOption) *SessionMonitor {
	m := &SessionMonitor{
		auth:      auth,
		activity:  activity,
		clock:     clock.Real(),
		logger:    zap.NewNop(),
		policy:    DefaultSessionPolicy(),
		observers: make(map[int]func(SessionEvent)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.armed = m.policy
	return m
}

// Start follows the authenticator. If a user is already signed in the
// session starts immediately.
func (m *SessionMonitor) Start() {
	m.mu.Lock()
	if m.stopAuth != nil {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	cancel := m.auth.Subscribe(m.onAuthChange)

	m.mu.Lock()
	m.stopAuth = cancel
	m.mu.Unlock()

	if id := m.auth.Identity(); id.Authenticated {
		m.bind(id)
	}
}

// Stop detaches from the authenticator and cancels everything.
func (m *SessionMonitor) Stop() {
	m.mu.Lock()
	cancel := m.stopAuth
	m.stopAuth = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.unbind()
}

func (m *SessionMonitor) onAuthChange(id Identity) {
	if id.Authenticated {
		m.bind(id)
		return
	}
	m.unbind()
}

// bind starts a session: activity listeners plus freshly armed timers. A
// different user signing in ends the running session first.
func (m *SessionMonitor) bind(id Identity) {
	m.mu.Lock()
	switched := m.state != MonitorInactive && m.username != id.Username
	m.mu.Unlock()
	if switched {
		m.unbind()
	}

	m.mu.Lock()
	started := m.state == MonitorInactive || m.state == MonitorExpired
	if started {
		m.sessionID = uuid.NewString()
		m.username = id.Username
		if m.activity != nil && m.stopActivity == nil {
			m.stopActivity = m.activity.Listen(ActivityKinds, m.OnUserActivity)
		}
	}
	m.armLocked()
	sid := m.sessionID
	m.mu.Unlock()

	if started {
		m.audit.LogEvent(EventSessionStart, sid, id.Username, true, nil)
		m.logger.Debug("session started", zap.String("session", shortSessionID(sid)))
		m.emit(SessionStarted)
	}
}

// unbind ends the session. Listeners and timers are always released, even
// when nothing is running.
func (m *SessionMonitor) unbind() {
	m.mu.Lock()
	wasBound := m.state != MonitorInactive
	stop := m.stopActivity
	m.stopActivity = nil
	m.cancelTimersLocked()
	m.generation++
	m.state = MonitorInactive
	m.lastActivity = time.Time{}
	sid, user := m.sessionID, m.username
	m.sessionID, m.username = "", ""
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	if wasBound {
		m.audit.LogEvent(EventSessionEnd, sid, user, true, nil)
		m.logger.Debug("session ended", zap.String("session", shortSessionID(sid)))
		m.emit(SessionEnded)
	}
}

func (m *SessionMonitor) cancelTimersLocked() {
	if m.warningTimer != nil {
		m.warningTimer.Stop()
		m.warningTimer = nil
	}
	if m.expiryTimer != nil {
		m.expiryTimer.Stop()
		m.expiryTimer = nil
	}
}

// armLocked cancels both timers and schedules new ones from now.
func (m *SessionMonitor) armLocked() {
	m.cancelTimersLocked()
	m.generation++
	gen := m.generation

	m.armed = m.policy
	m.lastActivity = m.clock.Now()
	m.state = MonitorActive
	m.warningTimer = m.clock.AfterFunc(m.armed.WarningAfter(), func() { m.onWarning(gen) })
	m.expiryTimer = m.clock.AfterFunc(m.armed.Timeout, func() { m.onExpiry(gen) })
}

// ResetActivity records activity and re-arms both timers. It does nothing
// while no session is running.
func (m *SessionMonitor) ResetActivity() {
	m.reset(false)
}

// OnUserActivity is the listener for input events.
func (m *SessionMonitor) OnUserActivity(ActivityKind) {
	m.reset(false)
}

// ExtendSession is the warning's "extend" action.
func (m *SessionMonitor) ExtendSession() {
	m.reset(true)
}

func (m *SessionMonitor) reset(explicit bool) {
	m.mu.Lock()
	if m.state != MonitorActive && m.state != MonitorWarning {
		m.mu.Unlock()
		return
	}
	wasWarning := m.state == MonitorWarning
	m.armLocked()
	sid := m.sessionID
	m.mu.Unlock()

	if explicit {
		m.audit.LogEvent(EventSessionExtended, sid, m.auth.Identity().Username, true, nil)
	}
	if wasWarning {
		m.emit(SessionExtended)
	}
}

func (m *SessionMonitor) onWarning(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.state != MonitorActive {
		m.mu.Unlock()
		return
	}
	m.state = MonitorWarning
	m.warningTimer = nil
	sid := m.sessionID
	m.mu.Unlock()

	m.audit.LogEvent(EventSessionWarning, sid, m.auth.Identity().Username, true, nil)
	m.emit(SessionWarning)
}

func (m *SessionMonitor) onExpiry(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || (m.state != MonitorActive && m.state != MonitorWarning) {
		m.mu.Unlock()
		return
	}
	m.state = MonitorExpired
	m.expiryTimer = nil
	m.cancelTimersLocked()
	sid := m.sessionID
	m.mu.Unlock()

	m.audit.LogEvent(EventSessionExpired, sid, m.auth.Identity().Username, true, nil)
	m.logger.Info("session expired after inactivity", zap.String("session", shortSessionID(sid)))
	m.emit(SessionExpired)

	m.auth.Expire()
	// the authenticator normally triggers this through its subscription
	m.unbind()
}

// =============================================================================
// READ-ONLY VIEW
// =============================================================================

// State returns the current state.
func (m *SessionMonitor) State() MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ShowWarning reports whether the timeout warning should be visible.
func (m *SessionMonitor) ShowWarning() bool {
	return m.State() == MonitorWarning
}

// TimeLeft returns the idle time remaining before expiry, or zero when no
// session is running.
func (m *SessionMonitor) TimeLeft() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MonitorActive && m.state != MonitorWarning {
		return 0
	}
	left := m.armed.Timeout - m.clock.Now().Sub(m.lastActivity)
	if left < 0 {
		return 0
	}
	return left
}

// LastActivity returns when activity was last recorded.
func (m *SessionMonitor) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// SessionID identifies the running session, empty when inactive.
func (m *SessionMonitor) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Policy returns the policy governing the running timers.
func (m *SessionMonitor) Policy() SessionPolicy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// SetPolicy replaces the policy. Running timers keep the old one until the
// next activity. It reports whether p was accepted.
func (m *SessionMonitor) SetPolicy(p SessionPolicy) bool {
	if !p.Valid() {
		return false
	}
	m.mu.Lock()
	m.policy = p
	if m.state == MonitorInactive {
		m.armed = p
	}
	m.mu.Unlock()
	return true
}

// Observe registers fn for session events. Callbacks run without the
// monitor's lock held.
func (m *SessionMonitor) Observe(fn func(SessionEvent)) (cancel func()) {
	m.mu.Lock()
	id := m.nextObserver
	m.nextObserver++
	m.observers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

func (m *SessionMonitor) emit(ev SessionEvent) {
	m.mu.Lock()
	ids := make([]int, 0, len(m.observers))
	for id := range m.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(SessionEvent), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.observers[id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
