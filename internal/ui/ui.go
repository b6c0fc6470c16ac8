// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist transfers:
//  1. [PlaylistListView] : Browse and select source playlists
//  2. [ConfirmView] : Confirm the transfer
//  3. [TransferView] : Watch per-track progress with a progress bar
//  4. [ResultView] : Review the transfer report
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Per-track progress flows from the engine's callback into a channel that the
// update loop drains one message per render.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/graymantle/playport/internal/services"
	"github.com/graymantle/playport/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ConfirmView
	TransferView
	ResultView
)

// trackProgress is one per-track update from the engine callback.
type trackProgress struct {
	index   int
	total   int
	display string
	success bool
}

type playlistsFetchedMsg struct {
	playlists []services.Playlist
	err       error
}

type progressMsg trackProgress

type transferDoneMsg struct {
	report *tasks.Report
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	source   services.SourceReader
	engine   *tasks.PlaylistEngine
	width    int
	height   int
	list     list.Model
	bar      progress.Model
	selected *services.Playlist
	current  trackProgress
	report   *tasks.Report
	err      error
	events   chan tea.Msg
	help     help.Model
	keys     keyMap
}

type keyMap struct {
	enter   key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		yes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		no: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// playlistItem wraps [services.Playlist] to implement list.Item.
type playlistItem struct {
	playlist services.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, source services.SourceReader, engine *tasks.PlaylistEngine) *Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%s Playlists", source.Name())

	return &Model{
		ctx:    ctx,
		view:   PlaylistListView,
		source: source,
		engine: engine,
		list:   l,
		bar:    progress.New(progress.WithDefaultGradient()),
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by fetching playlists from the source.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.list.Width() == 0 {
			m.list.SetSize(msg.Width-4, msg.Height-8)
		}
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		cmd := m.list.SetItems(items)
		m.list.SetSize(m.width-4, m.height-8)
		return m, cmd

	case progressMsg:
		m.current = trackProgress(msg)
		return m, m.waitForEvent()

	case transferDoneMsg:
		m.report = msg.report
		m.err = msg.err
		m.view = ResultView
		m.events = nil
		return m, nil

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd
	}

	if m.view == PlaylistListView {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ConfirmView:
		return m.renderConfirm()
	case TransferView:
		return m.renderTransfer()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected := m.list.SelectedItem(); selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				m.selected = &pl.playlist
				m.view = ConfirmView
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.view = PlaylistListView
		return m, nil
	case "y":
		m.view = TransferView
		m.current = trackProgress{}
		return m, m.startTransfer()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlaylistListView
		m.selected = nil
		m.report = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.source.GetPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

// startTransfer runs the engine in a goroutine, bridging its progress
// callback into the update loop through the events channel.
func (m *Model) startTransfer() tea.Cmd {
	events := make(chan tea.Msg, 1)
	m.events = events

	opts := tasks.TransferOptions{
		PlaylistID: m.selected.ID,
		DestName:   m.selected.Name,
	}

	go func() {
		report, err := m.engine.Transfer(m.ctx, opts, func(index, total int, display string, success bool) {
			events <- progressMsg{index: index, total: total, display: display, success: success}
		})
		events <- transferDoneMsg{report: report, err: err}
		close(events)
	}()

	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) renderPlaylistList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.list.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Transfer '%s'?", m.selected.Name))
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\n", m.selected.Name, m.selected.TrackCount)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderTransfer() string {
	title := styles.title.Render("Transferring Playlist")

	if m.current.total == 0 {
		return fmt.Sprintf("%s\n\nReading source playlist...", title)
	}

	ratio := float64(m.current.index) / float64(m.current.total)
	marker := styles.ok.Render("✓")
	if !m.current.success {
		marker = styles.warn.Render("✗")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s [%d/%d] %s",
		title,
		m.bar.ViewAs(ratio),
		marker,
		m.current.index,
		m.current.total,
		m.current.display,
	)
}

func (m *Model) renderResult() string {
	if m.report == nil {
		return styles.err.Render(fmt.Sprintf("Transfer failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	title := styles.ok.Render("✓ Transfer Complete")
	if m.report.Incomplete {
		title = styles.warn.Render("Transfer Incomplete")
	}

	info := fmt.Sprintf(
		"\nPlaylist: %s\nTransferred: %d/%d (%.1f%%)\nNo match: %d  Add failed: %d  Errors: %d",
		m.report.PlaylistName,
		m.report.SuccessCount,
		m.report.TotalCount,
		m.report.Accuracy*100,
		m.report.NoMatchCount,
		m.report.FailedCount,
		m.report.ErrorCount,
	)

	var failed string
	if m.report.SuccessCount < len(m.report.Outcomes) {
		failed = "\n\n" + styles.warn.Render("Not transferred:")
		for _, o := range m.report.Outcomes {
			if o.Status != tasks.StatusAdded {
				failed += fmt.Sprintf("\n  • %s - %s (%s)", o.Artist, o.Title, o.Status)
			}
		}
	}
	if m.err != nil {
		failed += "\n\n" + styles.err.Render(fmt.Sprintf("Stopped early: %v", m.err))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})
	return fmt.Sprintf("%s%s%s\n\n%s", title, info, failed, helpView)
}
