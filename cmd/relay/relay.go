// Package relaycmder
package relaycmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/relay/cmd/relay/chat"
	configcmder "github.com/papercomputeco/relay/cmd/relay/config"
	versioncmder "github.com/papercomputeco/relay/cmd/version"
)

const relayLongDesc string = `Relay is a streaming chat completions client.

It decodes provider SSE streams into ordered response events:
text deltas, completed tool calls and final usage totals.

Start a session with:
  relay chat           Stream completions interactively
  relay config list    Inspect persistent configuration`

const relayShortDesc string = "Relay - Streaming Chat Completions"

func NewRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: relayShortDesc,
		Long:  relayLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .relay/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
