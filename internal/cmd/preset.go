package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/posterize/internal/preset"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage named band-set presets",
	Long: `Preset manages named band sets in the preset database (--preset-db).
Import and export use the presets.json list format:
  [{"name": "...", "config": {"breaks": [...], "colors": [[r,g,b], ...]}}]`,
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a band set under a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		breaks, _ := cmd.Flags().GetString("breaks")
		colors, _ := cmd.Flags().GetString("colors")
		file, _ := cmd.Flags().GetString("file")

		var doc preset.Document
		var err error
		if file != "" {
			doc, err = preset.ReadFile(file)
		} else {
			doc, err = preset.Parse(breaks, colors)
		}
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Save(cmd.Context(), args[0], doc)
		if err != nil {
			return err
		}
		logger.Info("Preset saved", "name", rec.Name, "id", rec.ID, "bands", len(doc.Colors))
		return nil
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tBANDS\tBREAKS\tCOLORS\tUPDATED")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%d\t%v\t%s\t%s\n",
				r.Name, len(r.Document.Colors), r.Document.Breaks, r.Document.Hex(), humanize.Time(r.UpdatedAt))
		}
		return tw.Flush()
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a preset as a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return preset.Encode(cmd.OutOrStdout(), rec.Document)
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		logger.Info("Preset deleted", "name", args[0])
		return nil
	},
}

var presetImportCmd = &cobra.Command{
	Use:   "import <presets.json>",
	Short: "Import a presets.json list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[0]); err != nil {
			return fmt.Errorf("failed to read preset list: %w", err)
		}
		entries, err := preset.LoadList(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Import(cmd.Context(), entries)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d presets\n", n)
		return nil
	},
}

var presetExportCmd = &cobra.Command{
	Use:   "export <presets.json>",
	Short: "Export all presets as a presets.json list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Export(cmd.Context())
		if err != nil {
			return err
		}
		if err := preset.SaveList(args[0], entries); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d presets to %s\n", len(entries), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetSaveCmd, presetListCmd, presetShowCmd, presetDeleteCmd, presetImportCmd, presetExportCmd)

	presetSaveCmd.Flags().String("breaks", "", "Comma separated band breaks; spread evenly when empty")
	presetSaveCmd.Flags().String("colors", "", "Comma separated hex colors, darkest band first")
	presetSaveCmd.Flags().String("file", "", "Read the band set from a JSON preset document instead")
}
