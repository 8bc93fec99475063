// ABOUTME: Headless control server command
// ABOUTME: Serves a session over websocket and advertises it via mDNS
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/lanes/internal/logger"
	"github.com/harperreed/lanes/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	port       int
	watchDir   string
	noMDNS     bool
	serverName string
)

var serveCmd = &cobra.Command{
	Use:   "serve [project.yaml]",
	Short: "Run a session controlled over the network",
	Long: `Runs a session without a terminal UI. Remote controls connect over
websocket at /ws (see "lanes ctl"); the current state is also served as JSON
at /api/state. The project file is saved on shutdown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}

		relay := server.NewRelay(64)
		st, err := openStudio(path, relay)
		if err != nil {
			return err
		}
		defer st.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := st.watch(ctx); err != nil {
			return err
		}

		name := serverName
		if name == "" {
			name = st.name
		}
		srv := server.New(server.Config{
			Port:       cfg.Port,
			Name:       name,
			EnableMDNS: cfg.MDNS,
			Session:    st.session,
			Ingestor:   st.ingestor,
			Notices:    relay,
			Logger:     logger.L(),
		})

		go func() {
			<-ctx.Done()
			logger.Info("shutdown requested")
			srv.Stop()
		}()

		if err := srv.Start(); err != nil {
			logger.Error("server failed", zap.Error(err))
			return err
		}
		return st.save()
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.IntVarP(&port, "port", "p", 8937, "listen port (env LANES_PORT)")
	flags.StringVar(&watchDir, "watch", "", "drop folder to ingest new files from (env LANES_INGEST_DIR)")
	flags.BoolVar(&noMDNS, "no-mdns", false, "do not advertise on the local network (env LANES_MDNS)")
	flags.StringVar(&serverName, "name", "", "advertised server name (default: project name)")
	rootCmd.AddCommand(serveCmd)
}
