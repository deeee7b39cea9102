package cmd

import (
	"github.com/spf13/cobra"

	"github.com/reachtim/sitetasks/internal/settings"
)

var printSettings bool

var settingsCmd = &cobra.Command{
	Use:   "settings [variant...]",
	Short: "Render the generator settings files",
	Long: `Renders the local, staging and production settings (with overrides
from the site file applied) to the Python modules the generator reads.
Pass variant names to render only those.`,
	Args: cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		variants := settings.Variants
		if len(args) > 0 {
			variants = nil
			for _, a := range args {
				v, err := settings.ParseVariant(a)
				if err != nil {
					return err
				}
				variants = append(variants, v)
			}
		}

		env := newEnv(cmd, appConfig)
		for _, v := range variants {
			if printSettings {
				s, err := env.LoadSettings(v)
				if err != nil {
					return err
				}
				if err := s.Render(cmd.OutOrStdout(), v); err != nil {
					return err
				}
				continue
			}
			if _, err := env.WriteSettings(v); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.Flags().BoolVar(&printSettings, "stdout", false, "print the settings instead of writing files")
}
