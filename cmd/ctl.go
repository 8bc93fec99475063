// ABOUTME: Remote control commands
// ABOUTME: Sends transport, track and clip commands to a running server
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/harperreed/lanes/internal/client"
	"github.com/harperreed/lanes/internal/discovery"
	"github.com/harperreed/lanes/internal/logger"
	"github.com/harperreed/lanes/pkg/protocol"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ctlServer  string
	ctlTimeout time.Duration
	recordFor  time.Duration
)

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Control a running lanes server",
	Long: `Sends one command to a server started with "lanes serve". Without
--server the first server found on the local network is used.`,
}

// withClient connects, runs fn and disconnects
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), ctlTimeout)
	defer cancel()

	addr := ctlServer
	if addr == "" {
		found, err := discovery.Find(ctx, ctlTimeout, logger.L())
		if err != nil {
			return fmt.Errorf("server discovery failed (use --server): %w", err)
		}
		addr = fmt.Sprintf("%s:%d", found.Host, found.Port)
		logger.Debug("discovered server", zap.String("name", found.Name), zap.String("addr", addr))
	}

	c := client.NewClient(client.Config{ServerAddr: addr, Logger: logger.L()})
	if err := c.Connect(); err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}

// simple builds a command that sends one message and prints the created id
func simple(use, short string, args cobra.PositionalArgs, msgType string, payload func(args []string) (interface{}, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			var p interface{}
			if payload != nil {
				var err error
				if p, err = payload(args); err != nil {
					return err
				}
			}
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				res, err := c.Command(ctx, msgType, p)
				if err != nil {
					return err
				}
				if res.ID != "" {
					fmt.Fprintln(cmd.OutOrStdout(), res.ID)
				}
				return nil
			})
		},
	}
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}

var ctlStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the server's session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			snap, err := c.State(ctx)
			if err != nil {
				return err
			}
			state := "stopped"
			if snap.Playing {
				state = "playing"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s at %s of %s\n\n",
				c.Server().Name, state, seconds(snap.Position), seconds(snap.Duration))
			renderSnapshot(cmd.OutOrStdout(), snap)
			return nil
		})
	},
}

var ctlRecordCmd = &cobra.Command{
	Use:   "record <track>",
	Short: "Record a take from the server's microphone",
	Long: `Starts a take on the server's input device at the playhead, waits for
--for and stops it. Interrupt to stop early.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			if _, err := c.Command(ctx, protocol.TypeRecordStart, protocol.RecordStart{TrackID: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recording for %s\n", recordFor)

			interrupted, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			wait := time.NewTimer(recordFor)
			defer wait.Stop()
			select {
			case <-wait.C:
			case <-interrupted.Done():
			}

			stopCtx, cancel := context.WithTimeout(context.Background(), ctlTimeout)
			defer cancel()
			res, err := c.Command(stopCtx, protocol.TypeRecordStop, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.ID)
			return nil
		})
	},
}

func init() {
	ctlRecordCmd.Flags().DurationVar(&recordFor, "for", 5*time.Second, "length of the take")

	flags := ctlCmd.PersistentFlags()
	flags.StringVarP(&ctlServer, "server", "s", "", "server host:port (default: discover via mDNS)")
	flags.DurationVar(&ctlTimeout, "timeout", 5*time.Second, "discovery and command timeout")

	ctlCmd.AddCommand(
		ctlStateCmd,
		simple("play", "Start playback", cobra.NoArgs, protocol.TypeTransportPlay, nil),
		simple("pause", "Pause playback", cobra.NoArgs, protocol.TypeTransportPause, nil),
		simple("stop", "Stop and rewind", cobra.NoArgs, protocol.TypeTransportStop, nil),
		simple("seek <seconds>", "Move the playhead", cobra.ExactArgs(1), protocol.TypeTransportSeek,
			func(args []string) (interface{}, error) {
				pos, err := parseFloat("position", args[0])
				return protocol.Seek{Position: pos}, err
			}),
		simple("add-track [name] [type]", "Create a track", cobra.MaximumNArgs(2), protocol.TypeTrackAdd,
			func(args []string) (interface{}, error) {
				var p protocol.TrackAdd
				if len(args) > 0 {
					p.Name = args[0]
				}
				if len(args) > 1 {
					p.Type = args[1]
				}
				return p, nil
			}),
		simple("rename-track <track> <name>", "Rename a track", cobra.ExactArgs(2), protocol.TypeTrackRename,
			func(args []string) (interface{}, error) {
				return protocol.TrackRename{TrackID: args[0], Name: args[1]}, nil
			}),
		simple("set-type <track> <Audio|Vocal|MIDI>", "Change a track's type", cobra.ExactArgs(2), protocol.TypeTrackSetType,
			func(args []string) (interface{}, error) {
				return protocol.TrackSetType{TrackID: args[0], Type: args[1]}, nil
			}),
		simple("delete-track <track>", "Delete a track and its clips", cobra.ExactArgs(1), protocol.TypeTrackDelete,
			func(args []string) (interface{}, error) {
				return protocol.TrackDelete{TrackID: args[0]}, nil
			}),
		simple("add-clip <track> <path> [start]", "Place a file from the server's disk", cobra.RangeArgs(2, 3), protocol.TypeClipAdd,
			func(args []string) (interface{}, error) {
				p := protocol.ClipAdd{TrackID: args[0], Path: args[1]}
				if len(args) == 3 {
					start, err := parseFloat("start", args[2])
					if err != nil {
						return nil, err
					}
					p.Start = start
				}
				return p, nil
			}),
		simple("drop <clip> <track> <x>", "Move a clip to a track at a pixel offset", cobra.ExactArgs(3), protocol.TypeClipDrop,
			func(args []string) (interface{}, error) {
				x, err := parseFloat("x", args[2])
				return protocol.ClipDrop{ClipID: args[0], TrackID: args[1], X: x}, err
			}),
		simple("rename-clip <clip> <name>", "Rename a clip", cobra.ExactArgs(2), protocol.TypeClipRename,
			func(args []string) (interface{}, error) {
				return protocol.ClipRename{ClipID: args[0], Name: args[1]}, nil
			}),
		simple("remove-clip <clip>", "Remove a clip", cobra.ExactArgs(1), protocol.TypeClipRemove,
			func(args []string) (interface{}, error) {
				return protocol.ClipRemove{ClipID: args[0]}, nil
			}),
		ctlRecordCmd,
		simple("record-stop", "Stop a running take", cobra.NoArgs, protocol.TypeRecordStop, nil),
	)
	rootCmd.AddCommand(ctlCmd)
}
