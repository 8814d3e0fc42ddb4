// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/verifier-tui/internal/config"
	"github.com/jeranaias/verifier-tui/internal/login"
	"github.com/jeranaias/verifier-tui/internal/security"
	"github.com/jeranaias/verifier-tui/internal/ui/components"
	"github.com/jeranaias/verifier-tui/internal/ui/styles"
	"github.com/jeranaias/verifier-tui/internal/util"
)

// =============================================================================
// SCREENS
// =============================================================================

// Screen is the visible top-level view.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenLanding
	ScreenPassword
	ScreenHelp
)

func (s Screen) String() string {
	switch s {
	case ScreenLanding:
		return "landing"
	case ScreenPassword:
		return "password"
	case ScreenHelp:
		return "help"
	default:
		return "login"
	}
}

// maxHistory bounds the navigation history kept for inspection.
const maxHistory = 16

// Messages shown as notifications.
const (
	noteSignedIn        = "Signed in as %s"
	noteExpired         = "Your session expired due to inactivity. Please sign in again."
	notePasswordChanged = "Password changed"
	noteConfigReloaded  = "Configuration reloaded"
	noteConfigError     = "Configuration not reloaded: %v"
	noteSignedOut       = "You have been signed out"
)

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Model is the root Bubble Tea model. It is the navigator of the auth
// manager and observes both the auth manager and the session monitor; all
// of those calls happen on the update loop.
type Model struct {
	ctx      context.Context
	cfg      *config.Config
	auth     *security.AuthManager
	monitor  *security.SessionMonitor
	activity *security.ActivityBus
	logger   *zap.Logger
	theme    *styles.Theme

	screen  Screen
	history []security.Route

	loginForm    *components.LoginForm
	passwordForm *components.PasswordForm
	helpView     *components.HelpView
	overlay      components.SessionTimeoutOverlay
	notifier     *components.Notifier
	help         help.Model
	dashKeys     components.DashboardKeyMap

	expiredNote string
	pending     []tea.Cmd
	detach      []func()
	quitting    bool

	width  int
	height int
}

// New creates the model over svc and attaches it as navigator and
// observer. Call Close when the program exits.
func New(ctx context.Context, svc *Services, theme *styles.Theme) *Model {
	cfg := svc.Config
	policy := PasswordPolicy(cfg)
	hint := policy.Describe()

	flow := login.New(svc.Auth, login.WithMinPasswordLength(policy.MinLength))

	h := help.New()
	h.Styles.ShortKey = theme.ShortcutKey
	h.Styles.ShortDesc = theme.ShortcutDsc
	h.Styles.ShortSeparator = theme.ShortcutDsc

	m := &Model{
		ctx:          ctx,
		cfg:          cfg,
		auth:         svc.Auth,
		monitor:      svc.Monitor,
		activity:     svc.Activity,
		logger:       svc.Logger.Named("ui"),
		theme:        theme,
		loginForm:    components.NewLoginForm(flow, cfg.LoginLatency(), hint),
		passwordForm: components.NewPasswordForm(svc.Auth, policy.MinLength, hint),
		helpView:     components.NewHelpView(theme.IsDark),
		overlay:      components.NewSessionTimeoutOverlay(),
		notifier:     components.NewNotifier(svc.Clock),
		help:         h,
		dashKeys:     components.DefaultDashboardKeyMap(),
		width:        80,
		height:       24,
	}

	if m.auth.IsAuthenticated() {
		m.screen = ScreenLanding
		m.history = []security.Route{security.RouteLanding}
	} else {
		m.history = []security.Route{security.RouteLogin}
	}

	m.auth.SetNavigator(m)
	m.detach = append(m.detach,
		func() { m.auth.SetNavigator(nil) },
		m.auth.Subscribe(m.onIdentity),
		m.monitor.Observe(m.onSessionEvent),
	)
	return m
}

// Close detaches the model from the services.
func (m *Model) Close() {
	for _, fn := range m.detach {
		fn()
	}
	m.detach = nil
	m.notifier.Clear()
}

// Screen returns the visible screen.
func (m *Model) Screen() Screen {
	return m.screen
}

// History returns the navigation history, oldest first.
func (m *Model) History() []security.Route {
	out := make([]security.Route, len(m.history))
	copy(out, m.history)
	return out
}

// Notifications returns the visible notifications.
func (m *Model) Notifications() []components.Notification {
	return m.notifier.Items()
}

// OverlayVisible reports whether the timeout warning is shown.
func (m *Model) OverlayVisible() bool {
	return m.overlay.IsVisible()
}

// LoginForm returns the sign-in form.
func (m *Model) LoginForm() *components.LoginForm {
	return m.loginForm
}

// =============================================================================
// NAVIGATION AND OBSERVERS
// =============================================================================

// Navigate implements security.Navigator.
func (m *Model) Navigate(route security.Route, replace bool) {
	if replace && len(m.history) > 0 {
		m.history[len(m.history)-1] = route
	} else {
		m.history = append(m.history, route)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
	}

	switch route {
	case security.RouteLanding:
		m.screen = ScreenLanding
	default:
		m.screen = ScreenLogin
		m.overlay.Hide()
		m.queue(m.loginForm.Reset())
	}
	m.logger.Debug("navigate", zap.String("route", string(route)), zap.Bool("replace", replace))
}

func (m *Model) onIdentity(id security.Identity) {
	if !id.Authenticated {
		return
	}
	if m.expiredNote != "" {
		m.notifier.Remove(m.expiredNote)
		m.expiredNote = ""
	}
	m.notifier.Add(fmt.Sprintf(noteSignedIn, id.Username), components.KindSuccess)
}

func (m *Model) onSessionEvent(ev security.SessionEvent) {
	switch ev {
	case security.SessionWarning:
		m.overlay.Show(m.monitor.TimeLeft())
	case security.SessionExpired:
		m.overlay.Hide()
		m.expiredNote = m.notifier.AddFor(noteExpired, components.KindWarning, 0)
	case security.SessionExtended, security.SessionEnded, security.SessionStarted:
		m.overlay.Hide()
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the countdown tick and focuses the form.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loginForm.Init(), clockTick())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if m.quitting {
		m.pending = nil
		return m, tea.Quit
	}
	return m, m.flush(cmd)
}

func (m *Model) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.pending = append(m.pending, cmd)
	}
}

func (m *Model) flush(cmd tea.Cmd) tea.Cmd {
	m.queue(cmd)
	if len(m.pending) == 0 {
		return nil
	}
	cmds := m.pending
	m.pending = nil
	return tea.Batch(cmds...)
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return nil

	case RunMsg:
		msg()
		return nil

	case ClockTickMsg:
		if m.overlay.IsVisible() {
			m.overlay.UpdateTime(m.monitor.TimeLeft())
		}
		return clockTick()

	case components.LoginDueMsg:
		return m.loginForm.Complete(m.ctx, msg)

	case components.SpinnerTickMsg:
		return m.loginForm.Update(msg)

	case components.ExtendSessionMsg:
		m.monitor.ExtendSession()
		return nil

	case components.LogoutRequestMsg:
		m.logout()
		return nil

	case components.PasswordChangedMsg:
		m.screen = ScreenLanding
		m.notifier.Add(notePasswordChanged, components.KindSuccess)
		return nil

	case components.PasswordCancelledMsg, components.HelpClosedMsg:
		if m.auth.IsAuthenticated() {
			m.screen = ScreenLanding
		}
		return nil

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		return nil

	case ConfigErrorMsg:
		m.logger.Warn("config reload failed", zap.Error(msg.Err))
		m.notifier.Add(fmt.Sprintf(noteConfigError, msg.Err), components.KindError)
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if kind, ok := activityKind(msg); ok {
			m.activity.Emit(kind)
		}
		if m.screen == ScreenHelp && !m.overlay.IsVisible() {
			return m.helpView.Update(msg)
		}
		return nil
	}
	return nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.help.Width = width
	m.loginForm.SetWidth(width)
	m.passwordForm.SetWidth(width)
	m.helpView.SetSize(width, m.bodyHeight())
}

// bodyHeight is the space between the header and the footer.
func (m *Model) bodyHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return nil
	}

	if m.overlay.IsVisible() {
		var cmd tea.Cmd
		var consumed bool
		m.overlay, cmd, consumed = m.overlay.Update(msg)
		if consumed {
			return cmd
		}
		// any other key is activity and dismisses the warning
		m.activity.Emit(security.ActivityKeyDown)
		return nil
	}

	m.activity.Emit(security.ActivityKeyDown)

	switch m.screen {
	case ScreenLogin:
		return m.loginForm.Update(msg)
	case ScreenPassword:
		return m.passwordForm.Update(m.ctx, msg)
	case ScreenHelp:
		return m.helpView.Update(msg)
	default:
		return m.handleDashboardKey(msg)
	}
}

func (m *Model) handleDashboardKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.dashKeys.Quit):
		m.quitting = true
	case key.Matches(msg, m.dashKeys.ChangePassword):
		m.screen = ScreenPassword
		return m.passwordForm.Reset()
	case key.Matches(msg, m.dashKeys.Help):
		m.helpView.SetContent(components.HelpMarkdown(m.helpInfo()))
		m.screen = ScreenHelp
	case key.Matches(msg, m.dashKeys.Logout):
		m.logout()
	case key.Matches(msg, m.dashKeys.Dismiss):
		m.notifier.Dismiss()
	}
	return nil
}

func (m *Model) logout() {
	wasSignedIn := m.auth.IsAuthenticated()
	m.auth.Logout()
	if wasSignedIn {
		m.notifier.Add(noteSignedOut, components.KindInfo)
	}
}

func (m *Model) helpInfo() components.HelpInfo {
	policy := m.monitor.Policy()
	return components.HelpInfo{
		SessionTimeout:  policy.Timeout,
		WarningLead:     policy.WarningLead,
		MaxAttempts:     m.cfg.Security.MaxLoginAttempts,
		LockoutDuration: m.cfg.LockoutDuration(),
		PasswordRule:    m.auth.Policy().Describe() + ".",
	}
}

// applyConfig takes over settings that can change while running. The new
// session policy governs the next activity reset.
func (m *Model) applyConfig(cfg *config.Config) {
	if !m.monitor.SetPolicy(SessionPolicy(cfg)) {
		m.notifier.Add(fmt.Sprintf(noteConfigError, "invalid session policy"), components.KindError)
		return
	}
	policy := PasswordPolicy(cfg)
	hint := policy.Describe()
	m.auth.SetPolicy(policy)
	m.loginForm.SetLatency(cfg.LoginLatency())
	m.loginForm.SetHint(hint)
	m.passwordForm.SetPolicy(policy.MinLength, hint)
	m.cfg = cfg

	m.logger.Info("config reloaded",
		zap.Duration("session_timeout", cfg.SessionTimeout()),
		zap.Duration("warning_lead", cfg.WarningLead()))
	m.notifier.Add(noteConfigReloaded, components.KindInfo)
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the header, the active screen, notifications and the footer.
func (m *Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	toasts := components.RenderNotifications(m.theme, m.notifier.Items(), m.width)

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if toasts != "" {
		bodyHeight -= lipgloss.Height(toasts)
	}
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	switch {
	case m.overlay.IsVisible():
		m.overlay.SetSize(m.width, bodyHeight)
		body = m.overlay.View()
	case m.screen == ScreenLogin:
		body = m.loginForm.View(m.theme, m.width, bodyHeight)
	case m.screen == ScreenPassword:
		body = m.passwordForm.View(m.theme, m.width, bodyHeight)
	case m.screen == ScreenHelp:
		body = lipgloss.NewStyle().Height(bodyHeight).Render(m.helpView.View())
	default:
		dash := components.RenderDashboard(m.theme, m.dashboardData(), m.width)
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, dash)
	}

	parts := []string{header, body}
	if toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) dashboardData() components.DashboardData {
	return components.DashboardData{
		Identity:     m.auth.Identity(),
		SessionID:    m.monitor.SessionID(),
		State:        m.monitor.State(),
		TimeLeft:     m.monitor.TimeLeft(),
		Timeout:      m.monitor.Policy().Timeout,
		LastActivity: m.monitor.LastActivity(),
	}
}

func (m *Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("Verifier")
	user := ""
	if id := m.auth.Identity(); id.Authenticated {
		user = m.theme.HeaderUser.Render(util.Truncate(id.Username+" · "+string(id.Role), m.width/2))
	}
	gap := m.width - lipgloss.Width(brand) - lipgloss.Width(user) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(brand + util.PadRight("", gap) + user)
}

func (m *Model) renderFooter() string {
	if m.overlay.IsVisible() {
		remaining := m.theme.ShortcutKey.Render("Time remaining: " +
			components.FormatTimeRemaining(m.overlay.TimeRemaining()))
		return m.theme.Footer.Render(remaining + "  " +
			m.help.ShortHelpView(components.DefaultOverlayKeyMap().ShortHelp()))
	}

	var bindings []key.Binding
	switch m.screen {
	case ScreenLogin:
		bindings = m.loginForm.Keys().ShortHelp()
	case ScreenPassword:
		bindings = components.DefaultFormKeyMap().ShortHelp()
	case ScreenHelp:
		bindings = m.helpView.Keys().ShortHelp()
	default:
		bindings = m.dashKeys.ShortHelp()
	}
	return m.theme.Footer.Render(m.help.ShortHelpView(bindings))
}
