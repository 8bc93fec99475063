// ABOUTME: Bubbletea model for the terminal timeline
// ABOUTME: Defines UI state, key handling and session refresh
package ui

import (
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/lanes/pkg/timeline"
	"github.com/samber/lo"
)

// RefreshInterval is how often the view re-reads the session
const RefreshInterval = 50 * time.Millisecond

// Adder places files on the timeline
type Adder interface {
	AddFile(trackID, path string, start float64) (timeline.Clip, error)
}

// Recorder captures takes from an input device onto a track
type Recorder interface {
	StartRecording(trackID string, start float64) error
	StopRecording() (timeline.Clip, error)
	Recording() bool
}

type mode int

const (
	modeNormal mode = iota
	modePath
	modeDrag
)

// Model represents the TUI state
type Model struct {
	session  *timeline.Session
	adder    Adder
	recorder Recorder
	inbox    *Inbox
	title    string

	snap timeline.Snapshot

	// Selection
	trackIdx int
	clipIdx  int

	mode      mode
	input     string
	dragX     float64
	dragTrack int

	notice      string
	noticeLevel timeline.Level

	width  int
	height int
}

type refreshMsg time.Time

// NoticeMsg shows a message in the status line
type NoticeMsg struct {
	Level   timeline.Level
	Message string
}

// Init starts the refresh loop and notice listener
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{refreshEvery()}
	if m.inbox != nil {
		cmds = append(cmds, m.inbox.listen())
	}
	return tea.Batch(cmds...)
}

func refreshEvery() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case refreshMsg:
		m.refresh()
		return m, refreshEvery()
	case NoticeMsg:
		m.notice = msg.Message
		m.noticeLevel = msg.Level
		if m.inbox != nil {
			return m, m.inbox.listen()
		}
	}

	return m, nil
}

// refresh re-reads the session and keeps the selection in range
func (m *Model) refresh() {
	m.snap = m.session.Snapshot()

	m.trackIdx = clampIndex(m.trackIdx, len(m.snap.Tracks))
	m.clipIdx = clampIndex(m.clipIdx, len(m.trackClips()))
	m.dragTrack = clampIndex(m.dragTrack, len(m.snap.Tracks))

	if m.mode == modeDrag && m.snap.Drag.State != "dragging" {
		m.mode = modeNormal
	}
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m Model) selectedTrack() (timeline.Track, bool) {
	if len(m.snap.Tracks) == 0 {
		return timeline.Track{}, false
	}
	return m.snap.Tracks[m.trackIdx], true
}

func (m Model) trackClips() []timeline.Clip {
	tr, ok := m.selectedTrack()
	if !ok {
		return nil
	}
	return lo.Filter(m.snap.Clips, func(c timeline.Clip, _ int) bool {
		return c.TrackID == tr.ID
	})
}

func (m Model) selectedClip() (timeline.Clip, bool) {
	clips := m.trackClips()
	if len(clips) == 0 {
		return timeline.Clip{}, false
	}
	return clips[m.clipIdx], true
}

func (m *Model) warn(err error) {
	m.notice = err.Error()
	m.noticeLevel = timeline.LevelWarn
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modePath:
		m.handlePathKey(msg)
	case modeDrag:
		m.handleDragKey(msg)
	default:
		if msg.String() == "q" {
			return m, tea.Quit
		}
		m.handleNormalKey(msg)
	}

	m.refresh()
	return m, nil
}

func (m *Model) handleNormalKey(msg tea.KeyMsg) {
	switch msg.String() {
	case " ":
		if m.session.Playing() {
			m.session.Pause()
		} else {
			m.session.Play()
		}
	case "s":
		m.session.Stop()
	case "left":
		m.session.Seek(m.session.Position() - 1)
	case "right":
		m.session.Seek(m.session.Position() + 1)
	case "shift+left":
		m.session.Seek(m.session.Position() - 5)
	case "shift+right":
		m.session.Seek(m.session.Position() + 5)
	case "home":
		m.session.Seek(0)

	case "up":
		if m.trackIdx > 0 {
			m.trackIdx--
			m.clipIdx = 0
		}
	case "down":
		if m.trackIdx < len(m.snap.Tracks)-1 {
			m.trackIdx++
			m.clipIdx = 0
		}
	case "tab":
		if n := len(m.trackClips()); n > 0 {
			m.clipIdx = (m.clipIdx + 1) % n
		}

	case "n":
		tr, err := m.session.AddTrack(timeline.Track{})
		if err != nil {
			m.warn(err)
			return
		}
		m.snap = m.session.Snapshot()
		m.trackIdx = len(m.snap.Tracks) - 1
		m.notice = fmt.Sprintf("Added %s", tr.Name)
		m.noticeLevel = timeline.LevelInfo
	case "t":
		if tr, ok := m.selectedTrack(); ok {
			if err := m.session.SetTrackType(tr.ID, tr.Type.Next()); err != nil {
				m.warn(err)
			}
		}
	case "x":
		if tr, ok := m.selectedTrack(); ok {
			if err := m.session.DeleteTrack(tr.ID); err != nil {
				m.warn(err)
			}
		}

	case "a":
		if m.adder == nil {
			m.warn(fmt.Errorf("adding files is not available"))
			return
		}
		if _, ok := m.selectedTrack(); !ok {
			m.warn(fmt.Errorf("add a track first"))
			return
		}
		m.mode = modePath
		m.input = ""
	case "r":
		m.toggleRecording()
	case "d":
		c, ok := m.selectedClip()
		if !ok {
			return
		}
		if err := m.session.BeginDrag(c.ID); err != nil {
			m.warn(err)
			return
		}
		m.mode = modeDrag
		m.dragX = m.session.PixelsFor(c.Start)
		m.dragTrack = m.trackIdx
	case "backspace", "delete":
		if c, ok := m.selectedClip(); ok {
			if err := m.session.RemoveClip(c.ID); err != nil {
				m.warn(err)
			}
		}
	}
}

func (m *Model) toggleRecording() {
	if m.recorder == nil {
		m.warn(fmt.Errorf("recording is not available"))
		return
	}

	if m.recorder.Recording() {
		clip, err := m.recorder.StopRecording()
		if err != nil {
			m.warn(err)
			return
		}
		m.notice = fmt.Sprintf("Recorded %s", clip.Name)
		m.noticeLevel = timeline.LevelInfo
		return
	}

	tr, ok := m.selectedTrack()
	if !ok {
		m.warn(fmt.Errorf("add a track first"))
		return
	}
	if err := m.recorder.StartRecording(tr.ID, m.session.Position()); err != nil {
		m.warn(err)
		return
	}
	m.notice = fmt.Sprintf("Recording onto %s, press r to stop", tr.Name)
	m.noticeLevel = timeline.LevelInfo
}

func (m *Model) handlePathKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeNormal
		tr, ok := m.selectedTrack()
		if !ok || m.input == "" {
			return
		}
		if _, err := m.adder.AddFile(tr.ID, m.input, m.session.Position()); err != nil {
			m.warn(err)
		}
		m.input = ""
	case tea.KeyEsc:
		m.mode = modeNormal
		m.input = ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
}

func (m *Model) handleDragKey(msg tea.KeyMsg) {
	step := m.session.PixelsFor(math.Max(m.session.Options().SnapSeconds, 0.1))

	switch msg.String() {
	case "left":
		m.dragX = math.Max(0, m.dragX-step)
	case "right":
		m.dragX += step
	case "up":
		if m.dragTrack > 0 {
			m.dragTrack--
		}
	case "down":
		if m.dragTrack < len(m.snap.Tracks)-1 {
			m.dragTrack++
		}
	case "enter":
		m.mode = modeNormal
		if len(m.snap.Tracks) == 0 {
			m.session.CancelDrag()
			return
		}
		target := m.snap.Tracks[m.dragTrack]
		clip, ok := m.session.DropClip(m.dragX, target.ID)
		if !ok {
			m.warn(fmt.Errorf("drop discarded"))
			return
		}
		m.trackIdx = m.dragTrack
		m.snap = m.session.Snapshot()
		for i, c := range m.trackClips() {
			if c.ID == clip.ID {
				m.clipIdx = i
			}
		}
	case "esc":
		m.mode = modeNormal
		m.session.CancelDrag()
	}
}
