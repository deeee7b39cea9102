package tasks

import "context"

// Task is one named operation of the command table.
type Task struct {
	Name  string
	Short string
	Run   func(ctx context.Context, e *Env) error
}

// Table lists the site tasks in the order they are documented.
var Table = []Task{
	{Name: "clean", Short: "Remove generated files", Run: Clean},
	{Name: "build", Short: "Build local version of site", Run: Build},
	{Name: "rebuild", Short: "`build` with the delete switch", Run: Rebuild},
	{Name: "regenerate", Short: "Automatically regenerate site upon file modification", Run: Regenerate},
	{Name: "serve", Short: "Serve site at http://localhost:<port>/", Run: Serve},
	{Name: "reserve", Short: "`build`, then `serve`", Run: Reserve},
	{Name: "preview", Short: "Build production version of site", Run: Preview},
	{Name: "publish", Short: "Publish to production via rsync", Run: Publish},
}

// Lookup returns the task called name.
func Lookup(name string) (Task, bool) {
	for _, t := range Table {
		if t.Name == name {
			return t, true
		}
	}
	return Task{}, false
}
