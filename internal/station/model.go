// Package station is a terminal front-end for keyboard-wedge scanners: the scanner types
// the payload and presses Enter, the operator adjusts the quantity and commits with a
// dedicated key. Enter never commits, so a code scanned over a pending session cannot
// touch stock.
package station

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mamadbah2/stockscan/internal/domain/models"
	"github.com/mamadbah2/stockscan/internal/service/history"
	"github.com/mamadbah2/stockscan/internal/service/scanning"
)

const (
	maxToasts      = 3
	historyRows    = 8
	timeOfDayShort = "15:04"
)

type keyMap struct {
	Scan   key.Binding
	Apply  key.Binding
	Add    key.Binding
	Remove key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Scan:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "scan")),
		Apply:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "set quantity")),
		Add:    key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "add to stock")),
		Remove: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "remove from stock")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel / quit")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// Model is the bubbletea model of a scanning station.
type Model struct {
	ctrl    *scanning.Controller
	history *history.Log
	notes   <-chan models.Notification

	keys    keyMap
	input   textinput.Model
	session models.ScanSession
	toasts  []models.Notification
	width   int
}

// New builds a station model. notifier must be wired into the controller's notifier chain.
func New(ctrl *scanning.Controller, log *history.Log, notifier *ChannelNotifier) Model {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Focus()

	m := Model{
		ctrl:    ctrl,
		history: log,
		notes:   notifier.ch,
		keys:    defaultKeys(),
		input:   ti,
		session: ctrl.Snapshot(),
		width:   80,
	}
	m.resetInput()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForNotification(m.notes))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case notificationMsg:
		m.toasts = append(m.toasts, models.Notification(msg))
		if len(m.toasts) > maxToasts {
			m.toasts = m.toasts[len(m.toasts)-maxToasts:]
		}
		m.refresh()
		return m, waitForNotification(m.notes)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}

		// The countdown may have expired since the last message.
		m.refresh()
		ctx := context.Background()

		if m.session.Status == models.SessionIdle {
			switch {
			case key.Matches(msg, m.keys.Scan):
				payload := strings.TrimSpace(m.input.Value())
				if payload == "" {
					return m, nil
				}
				m.ctrl.OnDecode(ctx, payload)
				m.refresh()
				return m, nil
			case key.Matches(msg, m.keys.Cancel):
				return m, tea.Quit
			}
		} else {
			switch {
			case key.Matches(msg, m.keys.Apply):
				m.apply(ctx)
				return m, nil
			case key.Matches(msg, m.keys.Add):
				m.commit(ctx, models.DirectionAdd)
				return m, nil
			case key.Matches(msg, m.keys.Remove):
				m.commit(ctx, models.DirectionRemove)
				return m, nil
			case key.Matches(msg, m.keys.Cancel):
				m.ctrl.Cancel(ctx)
				m.refresh()
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// apply handles Enter while a session is pending. A number updates the quantity; any
// other text is a code scanned over the pending session and goes to the controller,
// which ignores it.
func (m *Model) apply(ctx context.Context) {
	text := strings.TrimSpace(m.input.Value())
	if _, err := strconv.Atoi(text); err == nil {
		m.ctrl.SetDeltaInput(ctx, text)
	} else if text != "" {
		m.ctrl.OnDecode(ctx, text)
	}
	m.refresh()
	m.resetInput()
}

func (m *Model) commit(ctx context.Context, direction models.Direction) {
	m.ctrl.SetDeltaInput(ctx, m.input.Value())
	m.ctrl.Commit(ctx, direction)
	m.refresh()
}

// refresh pulls the controller state and switches the input between payload and
// quantity entry when the session status changed.
func (m *Model) refresh() {
	prev := m.session.Status
	m.session = m.ctrl.Snapshot()
	if prev != m.session.Status {
		m.resetInput()
	}
}

func (m *Model) resetInput() {
	if m.session.Status == models.SessionIdle {
		m.input.Prompt = "scan> "
		m.input.Placeholder = "scan a code or type it and press enter"
		m.input.SetValue("")
		return
	}
	m.input.Prompt = "qty> "
	m.input.Placeholder = "quantity"
	m.input.SetValue(fmt.Sprint(m.session.PendingDelta))
	m.input.CursorEnd()
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s   %s %d\n\n", titleStyle.Render("QR Scanner"), accentStyle.Render("Adjustments"), m.history.Len())
	b.WriteString(m.sessionView())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for _, n := range m.toasts {
		style := successStyle
		if n.Destructive() {
			style = errorStyle
		}
		fmt.Fprintf(&b, "%s %s\n", style.Render(n.Title), mutedStyle.Render(n.Message))
	}
	if len(m.toasts) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("Scan History"))
	b.WriteString("\n")
	entries := m.history.Recent(historyRows)
	if len(entries) == 0 {
		b.WriteString(mutedStyle.Render("  nothing committed yet"))
		b.WriteString("\n")
	}
	for _, e := range entries {
		delta := successStyle.Render(fmt.Sprintf("%+d", e.AppliedDelta))
		if e.AppliedDelta < 0 {
			delta = errorStyle.Render(fmt.Sprintf("%+d", e.AppliedDelta))
		}
		fmt.Fprintf(&b, "  %-16s %-10s %6s  %s\n", e.Item.DisplayName, e.Item.Identifier, delta, mutedStyle.Render(e.Timestamp.Format(timeOfDayShort)))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))

	width := m.width - 2
	if width < 40 {
		width = 40
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}

func (m Model) sessionView() string {
	if !m.session.Active() {
		return cardStyle.Render(mutedStyle.Render("Scan a QR code to view item details"))
	}
	item := m.session.Item
	body := fmt.Sprintf("%s\nSKU %s   Current stock %d units\nexpires %s",
		titleStyle.Render(item.DisplayName), item.Identifier, item.KnownQuantity,
		m.session.ExpiresAt.Format("15:04:05"))
	return pendingCardStyle.Render(body)
}

func (m Model) helpLine() string {
	bindings := []key.Binding{m.keys.Scan, m.keys.Cancel, m.keys.Quit}
	if m.session.Status != models.SessionIdle {
		bindings = []key.Binding{m.keys.Apply, m.keys.Add, m.keys.Remove, m.keys.Cancel, m.keys.Quit}
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
