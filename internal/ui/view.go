// ABOUTME: Rendering for the terminal timeline
// ABOUTME: Draws transport header, ruler, track lanes and help line
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/lanes/pkg/timeline"
	"github.com/samber/lo"
)

const nameWidth = 14

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	clipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	audibleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	ghostStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	recStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderRuler())
	b.WriteString("\n")
	b.WriteString(m.renderLanes())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) laneWidth() int {
	return max(m.width-nameWidth-2, 20)
}

// column maps seconds onto a lane column
func (m Model) column(seconds float64) int {
	if m.snap.Duration <= 0 {
		return 0
	}
	return int(seconds / m.snap.Duration * float64(m.laneWidth()))
}

func (m Model) renderHeader() string {
	state := "■ stopped"
	switch {
	case m.snap.Playing:
		state = "▶ playing"
	case m.snap.Position > 0:
		state = "❚❚ paused"
	}
	header := titleStyle.Render("lanes · "+m.title) +
		fmt.Sprintf("  %s  %s / %s", state, formatTime(m.snap.Position), formatTime(m.snap.Duration))
	if m.recorder != nil && m.recorder.Recording() {
		header += "  " + recStyle.Render("● rec")
	}
	return header
}

func (m Model) renderRuler() string {
	w := m.laneWidth()
	cells := []rune(strings.Repeat("─", w))
	step := 10.0
	if m.snap.Duration <= 30 {
		step = 5
	}
	for t := 0.0; t < m.snap.Duration; t += step {
		if col := m.column(t); col < w {
			cells[col] = '┬'
		}
	}
	return strings.Repeat(" ", nameWidth+1) + dimStyle.Render(string(cells))
}

func (m Model) renderLanes() string {
	if len(m.snap.Tracks) == 0 {
		return dimStyle.Render("  no tracks, press n to add one")
	}

	audible := lo.SliceToMap(m.snap.Audible, func(id string) (string, bool) { return id, true })
	sel, hasSel := m.selectedClip()
	head := m.column(m.snap.Position)

	var lines []string
	for i, tr := range m.snap.Tracks {
		name := fmt.Sprintf("%-*s", nameWidth, truncate(fmt.Sprintf("%s [%s]", tr.Name, tr.Type), nameWidth))
		if i == m.trackIdx {
			name = selectedStyle.Render(name)
		}

		cells := make([]string, m.laneWidth())
		for c := range cells {
			cells[c] = dimStyle.Render("·")
		}

		for _, clip := range m.snap.Clips {
			if clip.TrackID != tr.ID {
				continue
			}
			style := clipStyle
			if audible[clip.ID] {
				style = audibleStyle
			}
			if hasSel && clip.ID == sel.ID && m.mode != modeDrag {
				style = style.Reverse(true)
			}
			m.paint(cells, clip, clip.Start, style, "█")
		}

		if m.mode == modeDrag && i == m.dragTrack {
			if clip, ok := m.draggedClip(); ok {
				m.paint(cells, clip, m.session.StartAt(m.dragX), ghostStyle, "▒")
			}
		}

		if head >= 0 && head < len(cells) {
			cells[head] = headStyle.Render("│")
		}

		lines = append(lines, name+" "+strings.Join(cells, ""))
	}
	return strings.Join(lines, "\n")
}

// paint fills the columns a clip covers when placed at start. Clips with
// unknown duration show as a single marker.
func (m Model) paint(cells []string, clip timeline.Clip, start float64, style lipgloss.Style, glyph string) {
	from := m.column(start)
	to := m.column(start + clip.Duration)
	if !clip.Resolved() {
		glyph = "?"
		to = from + 1
	}
	for c := from; c < max(to, from+1) && c < len(cells); c++ {
		cells[c] = style.Render(glyph)
	}
}

func (m Model) draggedClip() (timeline.Clip, bool) {
	return lo.Find(m.snap.Clips, func(c timeline.Clip) bool {
		return c.ID == m.snap.Drag.ClipID
	})
}

func (m Model) renderStatus() string {
	switch m.mode {
	case modePath:
		return fmt.Sprintf("Add file at %s: %s█", formatTime(m.snap.Position), m.input)
	case modeDrag:
		target := ""
		if m.dragTrack < len(m.snap.Tracks) {
			target = m.snap.Tracks[m.dragTrack].Name
		}
		return ghostStyle.Render(fmt.Sprintf("Dragging to %s at %s", target, formatTime(m.session.StartAt(m.dragX))))
	}

	if m.notice != "" {
		switch m.noticeLevel {
		case timeline.LevelError:
			return errorStyle.Render(m.notice)
		case timeline.LevelWarn:
			return warnStyle.Render(m.notice)
		}
		return m.notice
	}

	if c, ok := m.selectedClip(); ok {
		dur := "loading"
		if c.Resolved() {
			dur = formatTime(c.Duration)
		}
		return fmt.Sprintf("%s  start %s  length %s", c.Name, formatTime(c.Start), dur)
	}
	return ""
}

func (m Model) renderHelp() string {
	switch m.mode {
	case modePath:
		return dimStyle.Render("enter:Add  esc:Cancel")
	case modeDrag:
		return dimStyle.Render("←/→:Move  ↑/↓:Track  enter:Drop  esc:Cancel")
	}
	return dimStyle.Render("space:Play/Pause  s:Stop  ←/→:Seek  ↑/↓:Track  tab:Clip  n:New track  t:Type  x:Delete track  a:Add file  r:Record  d:Drag  del:Remove clip  q:Quit")
}

func formatTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d.%d", total/60, total%60, int((seconds-float64(total))*10))
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-1]) + "…"
}
