// cmd/info.go
package cmd

import (
	"vidgif/internal/ui"
	"vidgif/internal/validate"
	"vidgif/internal/video"

	"github.com/spf13/cobra"
)

var infoOpts struct {
	Resize int
	FPS    int
}

var infoCmd = &cobra.Command{
	Use:   "info [video]",
	Short: "Show video metadata and an estimated GIF size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := validate.CleanInputPath(args[0])

		fraction, err := validate.ResizeFractionValue(float64(infoOpts.Resize))
		if err != nil {
			return err
		}
		fps, err := validate.FrameRateValue(infoOpts.FPS)
		if err != nil {
			return err
		}

		meta, err := video.Probe(cmd.Context(), source)
		if err != nil {
			return err
		}

		ui.DisplayMetadata(meta, fraction, fps)
		return nil
	},
}

func init() {
	infoCmd.Flags().IntVar(&infoOpts.Resize, "resize", 50, "resize percentage used for the size estimate")
	infoCmd.Flags().IntVar(&infoOpts.FPS, "fps", 15, "frame rate used for the size estimate")
	rootCmd.AddCommand(infoCmd)
}
