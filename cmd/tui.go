// cmd/tui.go
package cmd

import (
	"vidgif/internal/config"
	"vidgif/internal/tui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the interactive terminal wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return err
		}
		return tui.Run(cfg, cfg.NewLogger())
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
