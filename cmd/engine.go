package cmd

import (
	"fmt"

	"AudioEditor/core/audio"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Check that the audio engine can be executed",
	Long:  `Probe FFMPEG_PATH with -version and print the reported version line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := audio.NewFFmpegEngine(cfg.FFmpegPath, cfg.ProbeTimeout)
		fmt.Printf("Probing %s...\n", engine.Path())

		version, err := engine.Version(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "engine unavailable")
		}
		fmt.Println(version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(engineCmd)
}
