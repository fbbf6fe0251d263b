package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/posterize/internal/colorspace"
	"github.com/MeKo-Tech/posterize/internal/picker"
	"github.com/MeKo-Tech/posterize/internal/wheel"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Run a scripted color picking session",
	Long: `Pick starts from --start, then applies a typed hex entry, a wheel click and
a value change in that order, and prints the resulting color.

Examples:
  posterize pick --x 300 --y 150
  posterize pick --hex 1b1b3a --value 0.5`,
	RunE: runPick,
}

// pickResult is printed by the pick command.
type pickResult struct {
	Hue    float64    `json:"hue"`
	Sat    float64    `json:"saturation"`
	Value  float64    `json:"value"`
	Hex    string     `json:"hex"`
	Color  [3]uint8   `json:"rgb"`
	Marker [2]float64 `json:"marker"`
	Inside *bool      `json:"inside,omitempty"`
}

func init() {
	rootCmd.AddCommand(pickCmd)

	pickCmd.Flags().String("start", "#ffffff", "Starting color")
	pickCmd.Flags().Int("size", wheel.DefaultSize, "Wheel canvas size in pixels")
	pickCmd.Flags().String("hex", "", "Hex entry to type (a missing # is added)")
	pickCmd.Flags().Float64("x", 0, "Wheel click x coordinate")
	pickCmd.Flags().Float64("y", 0, "Wheel click y coordinate")
	pickCmd.Flags().Float64("value", 0, "Brightness in [0,1]")
	bindCommandFlags(pickCmd, "pick", "start", "size", "hex", "x", "y", "value")
}

func runPick(cmd *cobra.Command, args []string) error {
	start, err := colorspace.HexToRGB(viper.GetString("pick.start"))
	if err != nil {
		return fmt.Errorf("invalid start color: %w", err)
	}

	sess := picker.NewSession(start, viper.GetInt("pick.size"))
	res := pickResult{}

	if hex := viper.GetString("pick.hex"); hex != "" {
		sess.SetText(hex)
		sess.Apply()
	}
	if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
		inside := sess.Pick(viper.GetFloat64("pick.x"), viper.GetFloat64("pick.y"))
		if !inside {
			logger.Warn("Click outside the wheel ignored")
		}
		res.Inside = &inside
	}
	if cmd.Flags().Changed("value") {
		sess.SetValue(viper.GetFloat64("pick.value"))
	}

	res.Hue, res.Sat, res.Value = sess.HSV()
	res.Hex = sess.Hex()
	c := sess.Color()
	res.Color = [3]uint8{c.R, c.G, c.B}
	res.Marker[0], res.Marker[1] = sess.Marker()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
