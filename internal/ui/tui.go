// ABOUTME: TUI initialization and notice delivery
// ABOUTME: Wraps the bubbletea program for the timeline UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/lanes/pkg/timeline"
)

// Inbox is a timeline.Notifier that feeds notices into the UI
type Inbox struct {
	ch chan NoticeMsg
}

// NewInbox creates an inbox; pass it as the session's notifier and to
// NewModel
func NewInbox() *Inbox {
	return &Inbox{ch: make(chan NoticeMsg, 16)}
}

// Notify implements timeline.Notifier. Notices are dropped while the UI is
// behind.
func (in *Inbox) Notify(level timeline.Level, message string) {
	select {
	case in.ch <- NoticeMsg{Level: level, Message: message}:
	default:
	}
}

func (in *Inbox) listen() tea.Cmd {
	return func() tea.Msg {
		return <-in.ch
	}
}

// Config holds UI configuration
type Config struct {
	Title    string
	Adder    Adder    // optional, enables the add-file prompt
	Recorder Recorder // optional, enables r to record
	Inbox    *Inbox   // optional
}

// NewModel creates a new TUI model
func NewModel(session *timeline.Session, cfg Config) Model {
	if cfg.Title == "" {
		cfg.Title = "untitled"
	}
	m := Model{
		session:  session,
		adder:    cfg.Adder,
		recorder: cfg.Recorder,
		inbox:    cfg.Inbox,
		title:    cfg.Title,
	}
	m.refresh()
	return m
}

// Run starts the TUI and blocks until the user quits
func Run(session *timeline.Session, cfg Config) error {
	p := tea.NewProgram(NewModel(session, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
