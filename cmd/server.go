package cmd

import (
	"AudioEditor/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Long:  `Start the Audio Editor HTTP API. Uploads, outputs and scratch files live in UPLOAD_DIR, OUTPUT_DIR and TEMP_DIR.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
