package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suvarnak/gop/internal/client"
	"github.com/suvarnak/gop/internal/printer"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an item from the server",
	Long: `Delete an item by ID.

Accepts the full item ID or a unique prefix of at least 6 characters.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	c, _, err := newClient(ctx)
	if err != nil {
		return err
	}

	if err := c.DeleteItem(ctx, args[0]); err != nil {
		if client.IsNotFound(err) {
			return printer.Error(fmt.Sprintf("No item matches %q", args[0]),
				"Run 'gop list' to see what's available")
		}
		return printer.Error(fmt.Sprintf("Failed to remove item: %v", err))
	}

	printer.Success("Removed %s\n", args[0])
	return nil
}
