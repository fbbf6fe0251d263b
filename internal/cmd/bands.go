package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/posterize/internal/composite"
	"github.com/MeKo-Tech/posterize/internal/imageio"
	"github.com/MeKo-Tech/posterize/internal/mask"
	"github.com/MeKo-Tech/posterize/internal/preset"
)

// renderSettings are shared by render and batch.
type renderSettings struct {
	Doc       preset.Document
	MaxWidth  int
	MaxHeight int
	Grain     float64
	Seed      int64
}

// addBandFlags registers the band set and output flags used by render and
// batch and binds them under prefix.
func addBandFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().String("breaks", "", "Comma separated band breaks (e.g. \"60,120,200\"); spread evenly when empty")
	cmd.Flags().String("colors", "", "Comma separated hex colors, darkest band first (e.g. \"#0000ff,#ff0000\")")
	cmd.Flags().String("preset", "", "Name of a preset in the preset database")
	cmd.Flags().String("preset-file", "", "JSON preset document {\"breaks\":[...],\"colors\":[[r,g,b],...]}")
	cmd.Flags().Int("max-width", 0, "Scale the source down to at most this width before rendering")
	cmd.Flags().Int("max-height", 0, "Scale the source down to at most this height before rendering")
	cmd.Flags().Float64("grain", 0, "Paper grain strength in [0,1] (0 disables)")
	cmd.Flags().Int64("seed", 1337, "Seed for the paper grain noise")

	bindCommandFlags(cmd, prefix, "breaks", "colors", "preset", "preset-file", "max-width", "max-height", "grain", "seed")
}

// loadRenderSettings resolves the band set from, in order of preference, a
// named preset, a preset file, explicit breaks/colors, or the default.
func loadRenderSettings(ctx context.Context, prefix string) (renderSettings, error) {
	s := renderSettings{
		MaxWidth:  viper.GetInt(prefix + ".max_width"),
		MaxHeight: viper.GetInt(prefix + ".max_height"),
		Grain:     viper.GetFloat64(prefix + ".grain"),
		Seed:      viper.GetInt64(prefix + ".seed"),
	}
	if s.Grain < 0 || s.Grain > 1 {
		return s, fmt.Errorf("grain must be in [0,1], got %g", s.Grain)
	}

	name := viper.GetString(prefix + ".preset")
	file := viper.GetString(prefix + ".preset_file")
	breaks := viper.GetString(prefix + ".breaks")
	colors := viper.GetString(prefix + ".colors")

	var err error
	switch {
	case name != "":
		s.Doc, err = loadNamedPreset(ctx, name)
	case file != "":
		s.Doc, err = preset.ReadFile(file)
	case breaks != "" || colors != "":
		s.Doc, err = preset.Parse(breaks, colors)
	default:
		s.Doc = preset.Default()
	}
	if err != nil {
		return s, err
	}
	return s, nil
}

func loadNamedPreset(ctx context.Context, name string) (preset.Document, error) {
	store, err := openStore()
	if err != nil {
		return preset.Document{}, err
	}
	defer store.Close()

	rec, err := store.Get(ctx, name)
	if err != nil {
		return preset.Document{}, err
	}
	return rec.Document, nil
}

func openStore() (*preset.Store, error) {
	return preset.OpenStore(viper.GetString("preset_db"), logger)
}

// renderFile renders input to output and returns the size of the written file.
func renderFile(input, output string, s renderSettings) (int64, error) {
	bs, err := s.Doc.BandSet()
	if err != nil {
		return 0, err
	}

	src, err := imageio.Load(input)
	if err != nil {
		return 0, err
	}
	fitted := imageio.Fit(src, s.MaxWidth, s.MaxHeight)

	out, err := composite.RenderWithOptions(mask.ToGray(fitted), bs, composite.Options{Grain: s.Grain, Seed: s.Seed})
	if err != nil {
		return 0, fmt.Errorf("failed to render %s: %w", input, err)
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imageio.Save(out, output); err != nil {
		return 0, err
	}

	info, err := os.Stat(output)
	if err != nil {
		return 0, fmt.Errorf("failed to stat output: %w", err)
	}
	return info.Size(), nil
}

// outputPath derives "<dir>/<name>_poster.<ext>" from an input path.
func outputPath(input, dir, ext string) string {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if ext == "" {
		ext = "png"
	}
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name+"_poster."+strings.TrimPrefix(ext, "."))
}
