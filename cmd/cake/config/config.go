// Package configcmder provides the config command for managing persistent
// cake configuration stored in the .cake/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent cake configuration.

Configuration is stored as config.toml in the .cake/ directory and provides
default values for command flags. CLI flags and CAKE_* environment variables
take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.dir, storage.knowledge_file, storage.index_file, storage.conversation_file,
  llm.provider, llm.target, llm.model, llm.system_message,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  vector_store.provider, vector_store.target,
  api.listen, client.api_target,
  chat.history_window, chat.top_k,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  cake config set <key> <value>    Set a configuration value
  cake config get <key>            Get a configuration value
  cake config list                 List all configuration values

Examples:
  cake config set llm.provider anthropic
  cake config set vector_store.provider sqlite
  cake config get llm.model
  cake config list`

const configShortDesc string = "Manage persistent cake configuration"

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

// configDirFlag reads the inherited --config-dir flag.
func configDirFlag(cmd *cobra.Command) string {
	configDir, _ := cmd.Flags().GetString("config-dir")
	return configDir
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return validKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
