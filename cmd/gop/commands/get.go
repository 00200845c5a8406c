package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suvarnak/gop/internal/client"
	"github.com/suvarnak/gop/internal/format"
	"github.com/suvarnak/gop/internal/printer"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one item as JSON",
	Long: `Show an item's full details as pretty-printed JSON.

Accepts the full item ID or a unique prefix of at least 6 characters.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	c, _, err := newClient(ctx)
	if err != nil {
		return err
	}

	i, err := c.GetItem(ctx, args[0])
	if err != nil {
		if client.IsNotFound(err) {
			return printer.Error(fmt.Sprintf("No item matches %q", args[0]),
				"Run 'gop list' to see what's available")
		}
		return printer.Error(fmt.Sprintf("Failed to get item: %v", err))
	}

	return format.FormatSingleJSON(os.Stdout, i)
}
