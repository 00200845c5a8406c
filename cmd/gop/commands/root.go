package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/suvarnak/gop/internal/client"
	"github.com/suvarnak/gop/internal/config"
	"github.com/suvarnak/gop/internal/discovery"
	"github.com/suvarnak/gop/internal/printer"
)

var (
	version string
	commit  string
	date    string
)

// Persistent flags shared by every command.
var (
	configPath string
	serverAddr string
)

// discoveryTimeout bounds the mDNS lookup when no server address is
// configured.
const discoveryTimeout = 3 * time.Second

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gop",
	Short: "gop - item and clipboard sync for your local network",
	Long: `gop shares files, text snippets, and the clipboard between devices on
the same local network.

Run 'gop serve' on one device; other devices find it automatically via
mDNS and talk to it with 'gop add', 'gop list', 'gop clipboard', and
'gop sync'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is specified, show help
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	// Errors are printed with color by the printer package, so keep
	// cobra's own reporting quiet.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default ~/.gop/config.toml)")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "",
		"Server address as host:port (default: config file, then mDNS discovery)")
}

// loadConfig reads the config file, honoring --config.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, printer.Error(fmt.Sprintf("Failed to load config: %v", err),
			fmt.Sprintf("Check %s or pass --config", path))
	}
	return cfg, nil
}

// resolveServer picks the server address in precedence order: the --server
// flag, the config file, then mDNS discovery on the local network.
func resolveServer(ctx context.Context, cfg *config.Config) (string, error) {
	if serverAddr != "" {
		return serverAddr, nil
	}
	if cfg.Client.Server != "" {
		return cfg.Client.Server, nil
	}

	discoverCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()

	addr, err := discovery.Resolve(discoverCtx)
	if err != nil {
		return "", printer.Error("No gop server found on the local network",
			"Start one with 'gop serve' on another device",
			"Or pass --server host:port")
	}
	return addr, nil
}

// newClient builds an API client for the resolved server.
func newClient(ctx context.Context) (*client.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	addr, err := resolveServer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return client.New(addr), cfg, nil
}
