package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/suvarnak/gop/internal/agent"
	"github.com/suvarnak/gop/internal/client"
	"github.com/suvarnak/gop/internal/clipboard"
	"github.com/suvarnak/gop/internal/printer"
)

var (
	syncInterval int
	syncDevice   string
)

// reconnectDelay is how long the sync command waits before redialing a
// dropped connection.
const reconnectDelay = 3 * time.Second

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the clipboard with other devices continuously",
	Long: `Run the clipboard sync agent until interrupted.

Local clipboard changes are pushed to the server and broadcast to every
other synced device; their changes land in this device's clipboard. If
the connection drops the agent reconnects automatically.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVar(&syncInterval, "interval", 0, "Clipboard poll interval in seconds (default from config, 5)")
	syncCmd.Flags().StringVar(&syncDevice, "device", "", "Device name to report (default: hostname)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	local, err := clipboard.NewSystem()
	if err != nil {
		return printer.Error(fmt.Sprintf("Clipboard unavailable: %v", err),
			"On Linux install xclip or xsel")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, cfg, err := newClient(ctx)
	if err != nil {
		return err
	}

	interval := time.Duration(cfg.Client.PollIntervalSeconds) * time.Second
	if syncInterval > 0 {
		interval = time.Duration(syncInterval) * time.Second
	}
	device := syncDevice
	if device == "" {
		device = cfg.DeviceName()
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	a := agent.New(local, device, interval, log)
	printer.Info("Syncing clipboard as %q, Ctrl-C to stop\n", device)

	return runAgentLoop(ctx, a, c, log)
}

// runAgentLoop runs the agent, redialing after connection failures until
// ctx is cancelled.
func runAgentLoop(ctx context.Context, a *agent.Agent, c *client.Client, log zerolog.Logger) error {
	for {
		err := a.Run(ctx, c.LiveURL())
		if ctx.Err() != nil {
			printer.Info("\nSync stopped\n")
			return nil
		}
		log.Warn().Err(err).Dur("retry_in", reconnectDelay).Msg("sync connection lost")

		select {
		case <-ctx.Done():
			printer.Info("\nSync stopped\n")
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}
