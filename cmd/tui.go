// ABOUTME: Terminal timeline command
// ABOUTME: Opens a project in the bubbletea UI and saves it on exit
package cmd

import (
	"context"

	"github.com/harperreed/lanes/internal/ui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [project.yaml]",
	Short: "Edit and play a session in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}

		inbox := ui.NewInbox()
		st, err := openStudio(path, inbox)
		if err != nil {
			return err
		}
		defer st.close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if err := st.watch(ctx); err != nil {
			return err
		}

		if err := ui.Run(st.session, ui.Config{
			Title:    st.name,
			Adder:    st.ingestor,
			Recorder: st.ingestor,
			Inbox:    inbox,
		}); err != nil {
			return err
		}
		return st.save()
	},
}

func init() {
	tuiCmd.Flags().StringVar(&watchDir, "watch", "", "drop folder to ingest new files from (env LANES_INGEST_DIR)")
	rootCmd.AddCommand(tuiCmd)
}
