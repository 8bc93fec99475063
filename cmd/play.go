// ABOUTME: Headless playback command
// ABOUTME: Plays a project once from the start and exits at the end
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harperreed/lanes/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var playFrom float64

var playCmd = &cobra.Command{
	Use:   "play <project.yaml>",
	Short: "Play a project through the audio device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStudio(args[0])
		if err != nil {
			return err
		}
		defer st.close()

		// wait for decoding so every clip knows its length
		st.ingestor.Wait()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := st.session
		s.Seek(playFrom)
		s.Play()
		logger.Info("playing", zap.String("project", st.name), zap.Float64("duration", s.Duration()))

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				s.Stop()
				fmt.Fprintln(out)
				return nil
			case <-ticker.C:
				if !s.Playing() {
					fmt.Fprintln(out, "\ndone")
					return nil
				}
				fmt.Fprintf(out, "\r%s / %s  %d playing ", clock(s.Position()), clock(s.Duration()), len(s.Audible()))
			}
		}
	},
}

func clock(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func init() {
	playCmd.Flags().Float64Var(&playFrom, "from", 0, "start position in seconds")
	rootCmd.AddCommand(playCmd)
}
