package cmd

import (
	"github.com/spf13/cobra"

	"github.com/reachtim/sitetasks/internal/settings"
	"github.com/reachtim/sitetasks/internal/tasks"
)

var checkVariant string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the output directory for broken links",
	Long: `Parses every generated page in the deploy directory and reports links,
stylesheets, scripts and images that point at missing files. Absolute links
to the variant's site URL are checked against the local output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := settings.ParseVariant(checkVariant)
		if err != nil {
			return err
		}
		return tasks.Check(cmd.Context(), newEnv(cmd, appConfig), v)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkVariant, "variant", "production", "settings variant whose site URL is treated as local")
}
