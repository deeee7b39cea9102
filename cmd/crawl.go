package cmd

import (
	"github.com/spf13/cobra"

	"github.com/reachtim/sitetasks/internal/tasks"
)

var crawlParallelism int

var crawlCmd = &cobra.Command{
	Use:   "crawl [url]",
	Short: "Crawl a running preview server for broken links",
	Long: `Crawls the preview server (default http://localhost:<port>/) and reports
every same-host link that answers with an error. Start the server first with
serve or reserve.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := ""
		if len(args) == 1 {
			start = args[0]
		}
		return tasks.Crawl(cmd.Context(), newEnv(cmd, appConfig), start, crawlParallelism)
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.Flags().IntVar(&crawlParallelism, "parallelism", 4, "concurrent requests")
}
