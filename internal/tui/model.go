// Package tui is the terminal client: a live view over the reconciling
// bookmark store, fed by the server's SSE notification stream.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marksapp/marks/internal/client"
	"github.com/marksapp/marks/internal/notify"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeAddTitle
	modeAddURL
	modeConfirmDelete
)

type (
	loadedMsg  struct{}
	eventMsg   struct{ ev notify.Event }
	feedDone   struct{}
	addDoneMsg struct{ err error }
	delDoneMsg struct{ err error }
)

// Styles groups the lipgloss styles used by the view.
type Styles struct {
	Header   lipgloss.Style
	Selected lipgloss.Style
	Pending  lipgloss.Style
	URL      lipgloss.Style
	Status   lipgloss.Style
	Err      lipgloss.Style
}

func defaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8")),
		Pending:  lipgloss.NewStyle().Faint(true).Italic(true),
		URL:      lipgloss.NewStyle().Faint(true),
		Status:   lipgloss.NewStyle().Faint(true),
		Err:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Model is the bubbletea model for marks watch.
type Model struct {
	ctx   context.Context
	store *client.Store
	sub   notify.Subscription

	mode     mode
	search   textinput.Model
	addTitle textinput.Model
	addURL   textinput.Model

	cursor int
	status string
	errMsg string
	height int
	styles Styles
}

// New creates the watch model. The subscription must already be
// established so no change falls between the snapshot and the feed.
func New(ctx context.Context, store *client.Store, sub notify.Subscription) Model {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search"

	title := textinput.New()
	title.Prompt = "title: "
	url := textinput.New()
	url.Prompt = "url: "

	return Model{
		ctx:      ctx,
		store:    store,
		sub:      sub,
		search:   search,
		addTitle: title,
		addURL:   url,
		height:   24,
		styles:   defaultStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitForEvent())
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		m.store.Load(m.ctx)
		return loadedMsg{}
	}
}

// waitForEvent blocks on the feed and hands the next event to Update, so
// every fold into the store happens on the bubbletea loop.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return feedDone{}
		case ev, ok := <-m.sub.Events():
			if !ok {
				return feedDone{}
			}
			return eventMsg{ev: ev}
		}
	}
}

func (m Model) visible() []*client.Entry {
	return m.store.Search(m.search.Value())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		m.status = fmt.Sprintf("%d bookmarks", len(m.store.Entries()))
		return m, nil

	case eventMsg:
		m.store.HandleEvent(msg.ev)
		m.clampCursor()
		return m, m.waitForEvent()

	case feedDone:
		m.status = "live feed disconnected"
		return m, nil

	case addDoneMsg:
		if msg.err != nil {
			m.errMsg = "add failed: " + msg.err.Error()
		} else {
			m.errMsg = ""
		}
		return m, nil

	case delDoneMsg:
		if msg.err != nil {
			m.errMsg = "delete failed, list reloaded: " + msg.err.Error()
		} else {
			m.errMsg = ""
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		switch msg.Type {
		case tea.KeyEsc:
			m.mode = modeList
			m.search.Blur()
			m.search.SetValue("")
		case tea.KeyEnter:
			m.mode = modeList
			m.search.Blur()
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.clampCursor()
			return m, cmd
		}
		return m, nil

	case modeAddTitle:
		switch msg.Type {
		case tea.KeyEsc:
			m.mode = modeList
			m.addTitle.Blur()
		case tea.KeyEnter:
			m.mode = modeAddURL
			m.addTitle.Blur()
			m.addURL.Focus()
		default:
			var cmd tea.Cmd
			m.addTitle, cmd = m.addTitle.Update(msg)
			return m, cmd
		}
		return m, nil

	case modeAddURL:
		switch msg.Type {
		case tea.KeyEsc:
			m.mode = modeList
			m.addURL.Blur()
		case tea.KeyEnter:
			title := m.addTitle.Value()
			url := m.addURL.Value()
			m.addTitle.SetValue("")
			m.addURL.SetValue("")
			m.addURL.Blur()
			m.mode = modeList
			// The optimistic entry shows up immediately; the command
			// resolves when the gateway confirms or fails.
			return m, func() tea.Msg {
				_, err := m.store.Add(m.ctx, title, url)
				return addDoneMsg{err: err}
			}
		default:
			var cmd tea.Cmd
			m.addURL, cmd = m.addURL.Update(msg)
			return m, cmd
		}
		return m, nil

	case modeConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			m.mode = modeList
			entries := m.visible()
			if m.cursor < len(entries) && entries[m.cursor].State == client.Confirmed {
				id := entries[m.cursor].ID
				return m, func() tea.Msg {
					return delDoneMsg{err: m.store.Delete(m.ctx, id)}
				}
			}
			return m, nil
		default:
			// Anything but an explicit yes cancels.
			m.mode = modeList
			return m, nil
		}
	}

	// modeList
	switch msg.String() {
	case "q", "ctrl+c":
		m.sub.Close()
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		m.search.Focus()
		return m, textinput.Blink
	case "a":
		m.mode = modeAddTitle
		m.addTitle.Focus()
		return m, textinput.Blink
	case "d":
		entries := m.visible()
		if m.cursor < len(entries) && entries[m.cursor].State == client.Confirmed {
			m.mode = modeConfirmDelete
		}
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor+1 < len(m.visible()) {
			m.cursor++
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) clampCursor() {
	if n := len(m.visible()); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	} else if n == 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("marks"))
	sb.WriteString("\n\n")

	if m.store.Phase() == client.PhaseLoading {
		sb.WriteString("loading…\n")
		return sb.String()
	}

	entries := m.visible()
	if len(entries) == 0 {
		sb.WriteString(m.styles.Status.Render("no bookmarks"))
		sb.WriteString("\n")
	}
	for i, e := range entries {
		line := e.Title + "  " + m.styles.URL.Render(e.URL)
		if e.State == client.Pending {
			line = m.styles.Pending.Render(e.Title + " (saving…)  " + e.URL)
		}
		if i == m.cursor && m.mode != modeSearch {
			line = m.styles.Selected.Render("> ") + line
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	switch m.mode {
	case modeSearch:
		sb.WriteString(m.search.View())
	case modeAddTitle:
		sb.WriteString(m.addTitle.View())
	case modeAddURL:
		sb.WriteString(m.addURL.View())
	case modeConfirmDelete:
		sb.WriteString(m.styles.Err.Render("delete this bookmark? y/n"))
	default:
		sb.WriteString(m.styles.Status.Render("a add · d delete · / search · q quit"))
	}
	sb.WriteString("\n")

	if m.errMsg != "" {
		sb.WriteString(m.styles.Err.Render(m.errMsg))
		sb.WriteString("\n")
	} else if m.status != "" {
		sb.WriteString(m.styles.Status.Render(m.status))
		sb.WriteString("\n")
	}
	return sb.String()
}
