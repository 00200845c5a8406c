package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suvarnak/gop/internal/netutil"
	"github.com/suvarnak/gop/internal/printer"
)

var ipCmd = &cobra.Command{
	Use:   "ip",
	Short: "Print this device's LAN-accessible IP address",
	Long: `Print the IPv4 address other devices on the local network can use to
reach this one, useful for configuring --server by hand.`,
	RunE: runIP,
}

func init() {
	rootCmd.AddCommand(ipCmd)
}

func runIP(cmd *cobra.Command, args []string) error {
	ip, err := netutil.AccessibleIP()
	if err != nil {
		return printer.Error(fmt.Sprintf("No LAN address found: %v", err))
	}

	printer.Println(ip)
	return nil
}
