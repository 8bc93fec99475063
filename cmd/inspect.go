// ABOUTME: Project inspection command
// ABOUTME: Prints tracks and clips of a project or live session as tables
package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/harperreed/lanes/internal/project"
	"github.com/harperreed/lanes/pkg/timeline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <project.yaml>",
	Short: "Show the tracks and clips of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := project.Load(args[0])
		if err != nil {
			return err
		}

		// placed on a manual session so the table reflects the same
		// validation and session length as playback
		s := timeline.NewSession(timeline.Options{
			Manual:    true,
			MinLength: cfg.MinSession,
		})
		defer s.Close()

		if _, err := f.Apply(s, filepath.Dir(args[0])); err != nil {
			return err
		}

		name := f.Name
		if name == "" {
			name = filepath.Base(args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", name)
		renderSnapshot(cmd.OutOrStdout(), s.Snapshot())
		return nil
	},
}

// renderSnapshot prints a session as a track table followed by a clip table
func renderSnapshot(w io.Writer, snap timeline.Snapshot) {
	byTrack := lo.GroupBy(snap.Clips, func(c timeline.Clip) string { return c.TrackID })
	audible := lo.SliceToMap(snap.Audible, func(id string) (string, bool) { return id, true })
	trackNames := lo.SliceToMap(snap.Tracks, func(t timeline.Track) (string, string) { return t.ID, t.Name })

	tracks := table.NewWriter()
	tracks.SetOutputMirror(w)
	tracks.SetStyle(table.StyleLight)
	tracks.AppendHeader(table.Row{"Track", "Type", "Clips", "Ends"})
	for _, t := range snap.Tracks {
		clips := byTrack[t.ID]
		resolved := lo.Filter(clips, func(c timeline.Clip, _ int) bool { return c.Resolved() })
		end := lo.Max(lo.Map(resolved, func(c timeline.Clip, _ int) float64 { return c.End() }))
		tracks.AppendRow(table.Row{t.Name, t.Type, len(clips), seconds(end)})
	}
	tracks.AppendFooter(table.Row{"", "", len(snap.Clips), seconds(snap.Duration)})
	tracks.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	tracks.Render()

	if len(snap.Clips) == 0 {
		return
	}
	fmt.Fprintln(w)

	clips := table.NewWriter()
	clips.SetOutputMirror(w)
	clips.SetStyle(table.StyleLight)
	clips.AppendHeader(table.Row{"Clip", "Track", "Kind", "Start", "Length", ""})
	for _, c := range snap.Clips {
		length := "?"
		if c.Resolved() {
			length = seconds(c.Duration)
		}
		state := ""
		if audible[c.ID] {
			state = "playing"
		}
		clips.AppendRow(table.Row{c.Name, trackNames[c.TrackID], c.Kind, seconds(c.Start), length, state})
	}
	clips.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	clips.Render()
}

func seconds(v float64) string {
	return fmt.Sprintf("%.2fs", v)
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
