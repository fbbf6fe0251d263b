package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/posterize/internal/imageio"
	"github.com/MeKo-Tech/posterize/internal/wheel"
)

var wheelCmd = &cobra.Command{
	Use:   "wheel",
	Short: "Write the hue/saturation color wheel as an image",
	RunE:  runWheel,
}

func init() {
	rootCmd.AddCommand(wheelCmd)

	wheelCmd.Flags().Int("size", wheel.DefaultSize, "Side of the square wheel canvas in pixels")
	wheelCmd.Flags().StringP("output", "o", "wheel.png", "Output file")
	bindCommandFlags(wheelCmd, "wheel", "size", "output")
}

func runWheel(cmd *cobra.Command, args []string) error {
	size := viper.GetInt("wheel.size")
	output := viper.GetString("wheel.output")
	if size <= 0 {
		return fmt.Errorf("size must be positive, got %d", size)
	}

	if err := imageio.Save(wheel.Render(size), output); err != nil {
		return err
	}
	logger.Info("Color wheel written", "path", output, "size", size)
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
