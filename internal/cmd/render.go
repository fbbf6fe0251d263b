package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render <input>",
	Short: "Posterize a single image",
	Long: `Render converts the input image to grayscale, splits its tones into bands
and writes the flat-colored result.

Examples:
  posterize render photo.jpg
  posterize render photo.jpg --breaks 80,160 --colors "#1b1b3a,#e63946,#f1faee" -o out.png
  posterize render photo.jpg --preset pop --max-width 1200`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "", "Output file (default: <input>_poster.png next to the input)")
	addBandFlags(renderCmd, "render")
	bindCommandFlags(renderCmd, "render", "output")
}

func runRender(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := viper.GetString("render.output")
	if output == "" {
		output = outputPath(input, "", "png")
	}

	settings, err := loadRenderSettings(cmd.Context(), "render")
	if err != nil {
		return err
	}

	logger.Debug("Rendering",
		"input", input,
		"output", output,
		"breaks", settings.Doc.Breaks,
		"colors", settings.Doc.Hex(),
		"grain", settings.Grain,
	)

	start := time.Now()
	size, err := renderFile(input, output, settings)
	if err != nil {
		return err
	}

	logger.Info("Poster written",
		"path", output,
		"bands", len(settings.Doc.Colors),
		"size", humanize.Bytes(uint64(size)),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
