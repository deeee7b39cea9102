package cmd

import (
	"github.com/spf13/cobra"

	"github.com/reachtim/sitetasks/internal/export"
	"github.com/reachtim/sitetasks/internal/tasks"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export generated pages as Markdown",
	Long: `Converts the generated article and page HTML in the deploy directory into
Markdown files with a YAML front matter header (title, name, description,
url, last_modified).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig.Export
		return tasks.Export(cmd.Context(), newEnv(cmd, appConfig), cfg.Output, export.Options{
			Patterns: cfg.Patterns,
			Flat:     cfg.Flat,
			FileName: cfg.Rename,
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("output", ".sitecache", "markdown output directory")
	exportCmd.Flags().Bool("flat", false, "save files in a flat directory structure")
	exportCmd.Flags().String("rename", "", "rename output markdown file (e.g. SKILL.md)")

	bindFlag("export.output", exportCmd.Flags().Lookup("output"))
	bindFlag("export.flat", exportCmd.Flags().Lookup("flat"))
	bindFlag("export.file_rename", exportCmd.Flags().Lookup("rename"))
}
