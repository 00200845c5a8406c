package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suvarnak/gop/internal/format"
	"github.com/suvarnak/gop/internal/printer"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List items on the server",
	Long: `List all items on the gop server, newest first.

Use --json for line-delimited JSON suitable for jq.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as line-delimited JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	c, _, err := newClient(ctx)
	if err != nil {
		return err
	}

	items, err := c.ListItems(ctx)
	if err != nil {
		return printer.Error(fmt.Sprintf("Failed to list items: %v", err))
	}

	if listJSON {
		return format.FormatJSONL(os.Stdout, items)
	}

	format.FormatTable(os.Stdout, items)
	return nil
}
