package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/posterize/internal/bandset"
	"github.com/MeKo-Tech/posterize/internal/imageio"
	"github.com/MeKo-Tech/posterize/internal/palette"
	"github.com/MeKo-Tech/posterize/internal/preset"
)

var paletteCmd = &cobra.Command{
	Use:   "palette <reference>",
	Short: "Suggest a band set from a reference image",
	Long: `Palette extracts band colors from a reference image (ordered dark to light)
and, when --target is given, places the breaks at tone quantiles of the target
so every band covers a similar share of its pixels. The result is printed as a
preset document and can be saved with --save.`,
	Args: cobra.ExactArgs(1),
	RunE: runPalette,
}

func init() {
	rootCmd.AddCommand(paletteCmd)

	paletteCmd.Flags().IntP("colors", "n", 4, "Number of bands")
	paletteCmd.Flags().String("method", "dominant", "Color extraction: dominant or kmeans")
	paletteCmd.Flags().String("target", "", "Image whose tone distribution places the breaks (default: even breaks)")
	paletteCmd.Flags().String("save", "", "Save the suggestion under this preset name")
	bindCommandFlags(paletteCmd, "palette", "colors", "method", "target", "save")
}

func runPalette(cmd *cobra.Command, args []string) error {
	n := viper.GetInt("palette.colors")
	target := viper.GetString("palette.target")
	saveAs := viper.GetString("palette.save")

	method, err := palette.ParseMethod(viper.GetString("palette.method"))
	if err != nil {
		return err
	}

	ref, err := imageio.Load(args[0])
	if err != nil {
		return err
	}
	colors, err := palette.Extract(ref, n, method)
	if err != nil {
		return fmt.Errorf("failed to extract palette: %w", err)
	}
	if len(colors) < bandset.MinColors {
		return fmt.Errorf("reference yielded only %d distinct colors", len(colors))
	}
	if len(colors) < n {
		logger.Warn("Reference has fewer distinct colors than requested", "requested", n, "found", len(colors))
	}

	breaks := bandset.EvenBreaks(len(colors))
	if target != "" {
		gray, err := imageio.LoadGray(target)
		if err != nil {
			return err
		}
		if breaks, err = palette.QuantileBreaks(gray, len(colors)); err != nil {
			return fmt.Errorf("failed to place breaks: %w", err)
		}
	}

	doc := preset.Document{Breaks: breaks, Colors: colors}
	if err := doc.Validate(); err != nil {
		return err
	}

	logger.Debug("Palette suggested", "method", method.String(), "colors", doc.Hex(), "breaks", doc.Breaks)

	if saveAs != "" {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.Save(cmd.Context(), saveAs, doc); err != nil {
			return err
		}
		logger.Info("Preset saved", "name", saveAs)
	}

	return preset.Encode(cmd.OutOrStdout(), doc)
}
