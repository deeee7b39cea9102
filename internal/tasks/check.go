package tasks

import (
	"context"
	"fmt"
	"strconv"

	"github.com/reachtim/sitetasks/internal/export"
	"github.com/reachtim/sitetasks/internal/linkcheck"
	"github.com/reachtim/sitetasks/internal/settings"
)

// Check reports broken local references in the deploy directory, resolving
// absolute links against the site URL of variant v.
func Check(_ context.Context, e *Env, v settings.Variant) error {
	s, err := e.LoadSettings(v)
	if err != nil {
		return err
	}
	report, err := linkcheck.CheckDir(e.DeployPath, linkcheck.DirOptions{SiteURL: s.SiteURL})
	if err != nil {
		return err
	}
	report.Print(e.out())
	return report.Err()
}

// LocalURL is the preview server's root URL.
func (e *Env) LocalURL() string {
	return "http://localhost:" + strconv.Itoa(e.ServerPort) + "/"
}

// Crawl checks a running preview server, starting at start or at the
// local preview URL when start is empty.
func Crawl(ctx context.Context, e *Env, start string, parallelism int) error {
	if start == "" {
		start = e.LocalURL()
	}
	fmt.Fprintf(e.out(), "Crawling %s\n", start)
	report, err := linkcheck.Crawl(ctx, start, linkcheck.CrawlOptions{
		Parallelism: parallelism,
		Log:         e.out(),
	})
	if err != nil {
		return err
	}
	report.Print(e.out())
	return report.Err()
}

// Export writes Markdown copies of the generated pages to outDir.
func Export(_ context.Context, e *Env, outDir string, opts export.Options) error {
	if opts.SiteURL == "" {
		s, err := e.LoadSettings(settings.VariantProduction)
		if err != nil {
			return err
		}
		opts.SiteURL = s.SiteURL
	}
	if opts.Log == nil {
		opts.Log = e.out()
	}
	res, err := export.Site(e.DeployPath, outDir, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out(), "Exported %d pages to %s\n", len(res.Files), outDir)
	return nil
}
