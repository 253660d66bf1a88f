package cmd

import (
	"fmt"

	"github.com/erilali/mcbridge/internal/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "minecraft server: %s\n", cfg.Game.Address())
		fmt.Fprintf(out, "minecraft user:   %s\n", cfg.Game.Username)
		if cfg.Game.Offline {
			fmt.Fprintln(out, "auth:             offline")
		} else {
			fmt.Fprintf(out, "auth:             %s (cache %s)\n", cfg.Game.Flow, cfg.Game.AuthCache)
		}
		fmt.Fprintf(out, "discord channel:  %s\n", cfg.Chat.ChannelID)
		fmt.Fprintf(out, "reconnect delay:  %s\n", cfg.Game.ReconnectDelay)
		fmt.Fprintf(out, "http address:     %s\n", cfg.HTTPAddr)
		if cfg.NatsURL != "" {
			fmt.Fprintf(out, "nats:             %s\n", cfg.NatsURL)
		}
		return nil
	},
}
