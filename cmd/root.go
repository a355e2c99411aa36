// cmd/root.go

// Package cmd wires the command-line interface: the root command converts a
// video to a GIF, subcommands expose metadata inspection and the terminal
// wizard.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"vidgif/internal/backend"
	"vidgif/internal/config"
	"vidgif/internal/convert"
	"vidgif/internal/progress"
	"vidgif/internal/ui"
	"vidgif/internal/validate"

	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	Output  string
	Resize  int
	FPS     int
	Start   string
	End     string
	Backend string
	Loop    bool
	Yes     bool
	Test    bool
}

var rootOpts rootOptions

var rootCmd = &cobra.Command{
	Use:   "vidgif [video]",
	Short: "Convert a video file to a GIF",
	Long: `vidgif converts a video file into a GIF.

By default the GIF is written next to the source with a .gif extension,
scaled to half size at 15 frames per second. Pass --start/--end to trim,
and --backend ffmpeg to use an installed ffmpeg for encoding (vidgif
falls back to its builtin encoder when ffmpeg is not present).`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return err
		}
		logger := cfg.NewLogger()

		if rootOpts.Test {
			output, err := convert.SelfTest(cmd.Context(), rootOpts.Output)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success("Self-test GIF written to " + output))
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("a video file is required (or --test)")
		}
		source := validate.CleanInputPath(args[0])

		fraction, err := validate.ResizeFractionValue(float64(rootOpts.Resize))
		if err != nil {
			return err
		}
		fps, err := validate.FrameRateValue(rootOpts.FPS)
		if err != nil {
			return err
		}
		start, err := validate.ParseTime("start time", rootOpts.Start)
		if err != nil {
			return err
		}
		end, err := validate.ParseTime("end time", rootOpts.End)
		if err != nil {
			return err
		}

		output := validate.NormalizeOutputPath(rootOpts.Output, source)
		if !rootOpts.Yes {
			if _, err := os.Stat(output); err == nil {
				if !confirmOverwrite(output) {
					return fmt.Errorf("aborted")
				}
			}
		}

		bar := newConversionBar()
		bridge := progress.New(
			func(percent float64) { _ = bar.Set(int(percent)) },
			func(message string) { bar.Describe(message) },
		)

		pipeline := convert.New(logger)
		pipeline.Select = backend.Selector(cfg.FFmpegPath, cfg.TempDir)
		result, err := pipeline.Convert(cmd.Context(), convert.Request{
			Source:         source,
			Output:         output,
			ResizeFraction: fraction,
			FPS:            fps,
			Start:          start,
			End:            end,
			Backend:        rootOpts.Backend,
			Loop:           rootOpts.Loop,
		}, bridge)
		if err != nil {
			fmt.Println()
			return err
		}
		_ = bar.Finish()

		fmt.Println()
		fmt.Println(ui.Success("GIF saved to " + result.OutputPath))
		if fi, err := os.Stat(result.OutputPath); err == nil {
			sizeMB := float64(fi.Size()) / 1024 / 1024
			if sizeMB > cfg.WarnSizeMB {
				fmt.Println(ui.Warn(fmt.Sprintf("Output is %.1f MB; consider a lower resize or frame rate.", sizeMB)))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&rootOpts.Output, "output", "o", "", "output GIF path (default: source name with .gif)")
	rootCmd.Flags().IntVar(&rootOpts.Resize, "resize", 50, "output size as a percentage of the original (1-100)")
	rootCmd.Flags().IntVar(&rootOpts.FPS, "fps", 15, "GIF frames per second")
	rootCmd.Flags().StringVar(&rootOpts.Start, "start", "", "trim start in seconds (e.g. 2.5)")
	rootCmd.Flags().StringVar(&rootOpts.End, "end", "", "trim end in seconds (e.g. 8)")
	rootCmd.Flags().StringVar(&rootOpts.Backend, "backend", "builtin", "encoder backend: builtin or ffmpeg")
	rootCmd.Flags().BoolVar(&rootOpts.Loop, "loop", false, "loop the GIF forever")
	rootCmd.Flags().BoolVarP(&rootOpts.Yes, "yes", "y", false, "overwrite the output without asking")
	rootCmd.Flags().BoolVar(&rootOpts.Test, "test", false, "write a small self-test GIF instead of converting")
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		os.Exit(1)
	}
}

func confirmOverwrite(path string) bool {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s already exists. Overwrite", path),
		IsConfirm: true,
	}
	answer, err := prompt.Run()
	if err != nil {
		return false
	}
	return strings.EqualFold(answer, "y")
}

func newConversionBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetRenderBlankState(true),
	)
}
