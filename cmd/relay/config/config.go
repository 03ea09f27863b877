// Package configcmder provides the config command for managing persistent
// relay configuration stored in the .relay/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent relay configuration.

Configuration is stored as config.toml in the .relay/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  provider.base_url, provider.api_key_env, provider.model,
  stream.idle_timeout_ms, stream.channel_capacity, stream.read_buffer_size

Use subcommands to get, set, or list configuration values:
  relay config set <key> <value>    Set a configuration value
  relay config get <key>            Get a configuration value
  relay config list                 List all configuration values

Examples:
  relay config set provider.model gpt-4o
  relay config set stream.idle_timeout_ms 60000
  relay config get provider.base_url
  relay config list`

const configShortDesc string = "Manage persistent relay configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
