package cmd

import (
	"github.com/spf13/cobra"

	"github.com/reachtim/sitetasks/internal/tasks"
)

var (
	dryRun     bool
	syncDryRun bool
	noCache    bool
)

// taskCommand wraps one command table entry.
func taskCommand(t tasks.Task) *cobra.Command {
	return &cobra.Command{
		Use:   t.Name,
		Short: t.Short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := newEnv(cmd, appConfig)
			env.DryRun = dryRun
			env.SyncDryRun = syncDryRun
			env.NoCache = noCache
			return t.Run(cmd.Context(), env)
		},
	}
}

func init() {
	for _, t := range tasks.Table {
		c := taskCommand(t)
		switch t.Name {
		case "publish":
			c.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print the sync plan and rsync command without syncing")
			c.Flags().BoolVar(&syncDryRun, "rsync-dry-run", false, "run rsync with -n to list what would change on the remote")
		case "serve", "reserve":
			c.Flags().BoolVar(&noCache, "no-cache", false, "send headers that stop browsers caching the preview")
		}
		rootCmd.AddCommand(c)
	}
}
