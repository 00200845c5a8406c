package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suvarnak/gop/internal/client"
	"github.com/suvarnak/gop/internal/clipboard"
	"github.com/suvarnak/gop/internal/printer"
)

var (
	clipPush   bool
	clipPull   bool
	clipDevice string
)

var clipboardCmd = &cobra.Command{
	Use:   "clipboard",
	Short: "Push or pull the shared clipboard once",
	Long: `One-shot clipboard exchange with the server.

--push uploads the local clipboard as the shared clipboard; --pull
replaces the local clipboard with the server's. For continuous two-way
mirroring use 'gop sync' instead.`,
	RunE: runClipboard,
}

func init() {
	clipboardCmd.Flags().BoolVar(&clipPush, "push", false, "Send the local clipboard to the server")
	clipboardCmd.Flags().BoolVar(&clipPull, "pull", false, "Replace the local clipboard with the server's")
	clipboardCmd.Flags().StringVar(&clipDevice, "device", "", "Device name to record (default: hostname)")
	clipboardCmd.MarkFlagsMutuallyExclusive("push", "pull")
	rootCmd.AddCommand(clipboardCmd)
}

func runClipboard(cmd *cobra.Command, args []string) error {
	if !clipPush && !clipPull {
		return printer.Error("Nothing to do", "Pass --push or --pull")
	}

	ctx := context.Background()

	local, err := clipboard.NewSystem()
	if err != nil {
		return printer.Error(fmt.Sprintf("Clipboard unavailable: %v", err))
	}

	c, cfg, err := newClient(ctx)
	if err != nil {
		return err
	}

	if clipPush {
		return pushClipboard(ctx, c, cfg.DeviceName(), local)
	}
	return pullClipboard(ctx, c, local)
}

func pushClipboard(ctx context.Context, c *client.Client, device string, local clipboard.Accessor) error {
	content, err := local.Read()
	if err != nil {
		return printer.Error(fmt.Sprintf("Failed to read clipboard: %v", err))
	}
	if content == "" {
		return printer.Error("Local clipboard is empty", "Copy something first")
	}

	clip, err := c.PushClipboard(ctx, device, content)
	if err != nil {
		return printer.Error(fmt.Sprintf("Failed to push clipboard: %v", err))
	}

	printer.Success("Pushed %d bytes (hash %s)\n", len(clip.Content), shortID(clip.Fingerprint))
	return nil
}

func pullClipboard(ctx context.Context, c *client.Client, local clipboard.Accessor) error {
	clip, err := c.GetClipboard(ctx)
	if err != nil {
		if client.IsNotFound(err) {
			printer.Info("No clipboard content on the server yet\n")
			return nil
		}
		return printer.Error(fmt.Sprintf("Failed to fetch clipboard: %v", err))
	}

	if err := local.Write(clip.Content); err != nil {
		return printer.Error(fmt.Sprintf("Failed to write clipboard: %v", err))
	}

	printer.Success("Clipboard updated from %s (%d bytes)\n", clip.Device, len(clip.Content))
	return nil
}
