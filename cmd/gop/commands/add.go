package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/suvarnak/gop/internal/item"
	"github.com/suvarnak/gop/internal/printer"
)

var (
	addType   string
	addDevice string
)

var addCmd = &cobra.Command{
	Use:   "add <file-or-text>",
	Short: "Add a file or text snippet to the server",
	Long: `Add an item to the gop server.

With --type file the argument is a path: the file's content is uploaded
and its name and absolute path are recorded. With --type text the
argument is stored verbatim under a generated name.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addType, "type", "text", "Item type: file or text")
	addCmd.Flags().StringVar(&addDevice, "device", "", "Device name to record (default: hostname)")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	c, cfg, err := newClient(ctx)
	if err != nil {
		return err
	}

	device := addDevice
	if device == "" {
		device = cfg.DeviceName()
	}

	i := &item.Item{Device: device, Type: item.Type(addType)}

	switch i.Type {
	case item.TypeFile:
		path, err := filepath.Abs(args[0])
		if err != nil {
			return printer.Error(fmt.Sprintf("Invalid path: %v", err))
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return printer.Error(fmt.Sprintf("Failed to read file: %v", err),
				fmt.Sprintf("Check that %s exists and is readable", args[0]))
		}
		i.Name = filepath.Base(path)
		i.Path = path
		i.Content = string(content)

	case item.TypeText:
		i.Content = args[0]

	default:
		return printer.Error(fmt.Sprintf("Unknown item type %q", addType),
			"Use --type file or --type text")
	}

	created, err := c.AddItem(ctx, i)
	if err != nil {
		return printer.Error(fmt.Sprintf("Failed to add item: %v", err))
	}

	printer.Success("Added %s %q (%s)\n", created.Type, created.Name, shortID(created.ID))
	return nil
}

// shortID truncates an item ID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
