package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/suvarnak/gop/internal/discovery"
	"github.com/suvarnak/gop/internal/netutil"
	"github.com/suvarnak/gop/internal/printer"
	"github.com/suvarnak/gop/internal/server"
	"github.com/suvarnak/gop/internal/store"
)

var (
	servePort   int
	serveDBPath string
	serveNoMDNS bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gop sync server",
	Long: `Run the gop server: the item store, the HTTP API, the live clipboard
channel, and an mDNS advertisement so other devices on the network can
find it without configuration.

Stops cleanly on Ctrl-C or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config, 8000)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "SQLite database path (default ~/.gop/sync.db)")
	serveCmd.Flags().BoolVar(&serveNoMDNS, "no-mdns", false, "Disable mDNS advertisement")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveDBPath != "" {
		cfg.Server.DBPath = serveDBPath
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0o755); err != nil {
		return printer.Error(fmt.Sprintf("Failed to create data directory: %v", err))
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Server.DBPath)
	if err != nil {
		return printer.Error(fmt.Sprintf("Failed to open database: %v", err),
			fmt.Sprintf("Check that %s is writable", cfg.Server.DBPath))
	}
	defer st.Close()

	if !serveNoMDNS {
		ad, err := discovery.Advertise(cfg.Server.Name, cfg.Server.Port)
		if err != nil {
			// Not fatal: clients can still connect with --server.
			log.Warn().Err(err).Msg("mDNS advertisement failed")
		} else {
			defer ad.Shutdown()
			log.Info().Str("instance", cfg.Server.Name).Msg("advertising via mDNS")
		}
	}

	if ip, err := netutil.AccessibleIP(); err == nil {
		printer.Info("Server reachable at http://%s:%d\n", ip, cfg.Server.Port)
	}

	srv := server.New(st, version, log)
	if err := srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		return printer.Error(fmt.Sprintf("Server failed: %v", err))
	}
	return nil
}
