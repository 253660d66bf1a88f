package cmd

import (
	"github.com/spf13/cobra"
)

var (
	envFile       string
	logConfigPath string
)

var rootCmd = &cobra.Command{
	Use:   "mcbridge",
	Short: "Relay chat between a Bedrock server and a Discord channel",
	Long: `mcbridge joins a Minecraft Bedrock server as a bot player and relays
chat, joins and leaves to a Discord channel, and Discord messages back into
the game. Both sessions reconnect on their own.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBridge(cmd.Context())
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	rootCmd.PersistentFlags().StringVar(&logConfigPath, "log-config", "logger_config.yaml", "logger configuration file")

	rootCmd.AddCommand(validateCmd)
}
