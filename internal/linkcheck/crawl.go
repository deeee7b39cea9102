package linkcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"
)

// CrawlOptions configure an online check.
type CrawlOptions struct {
	// Parallelism bounds concurrent requests. Zero means 4.
	Parallelism int

	// Log receives one line per visited URL. Nil discards them.
	Log io.Writer
}

// Crawl follows every same-host reference reachable from start and reports
// the ones the server answers with an error.
func Crawl(ctx context.Context, start string, opts CrawlOptions) (*Report, error) {
	u, err := url.Parse(start)
	if err != nil {
		return nil, fmt.Errorf("parse start url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("start url %q must be http or https", start)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if opts.Log == nil {
		opts.Log = io.Discard
	}

	c := colly.NewCollector(
		colly.Async(true),
		colly.AllowedDomains(u.Hostname()),
		colly.StdlibContext(ctx),
	)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: opts.Parallelism,
	}); err != nil {
		return nil, fmt.Errorf("configure crawler: %w", err)
	}

	var (
		mu     sync.Mutex
		report = &Report{}
	)

	visit := func(from, link string) {
		hdr := http.Header{}
		rctx := colly.NewContext()
		rctx.Put("referer", from)
		hdr.Set("Referer", from)
		if err := c.Request(http.MethodGet, link, nil, rctx, hdr); err == nil {
			mu.Lock()
			report.Links++
			mu.Unlock()
		}
	}

	c.OnHTML(refSelector, func(e *colly.HTMLElement) {
		ref := e.Attr("href")
		if ref == "" {
			ref = e.Attr("src")
		}
		abs := e.Request.AbsoluteURL(ref)
		if abs == "" {
			return
		}
		if pu, err := url.Parse(abs); err != nil || (pu.Scheme != "http" && pu.Scheme != "https") {
			return
		}
		visit(e.Request.URL.String(), abs)
	})

	c.OnResponse(func(r *colly.Response) {
		mu.Lock()
		if isHTMLResponse(r) {
			report.Pages++
		}
		mu.Unlock()
		fmt.Fprintf(opts.Log, "Visited: %s\n", r.Request.URL)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Request == nil {
			return
		}
		reason := err.Error()
		if r.StatusCode != 0 {
			reason = fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode))
		}
		page := ""
		if r.Ctx != nil {
			page = r.Ctx.Get("referer")
		}
		mu.Lock()
		report.Broken = append(report.Broken, Broken{Page: page, Ref: r.Request.URL.String(), Reason: reason})
		mu.Unlock()
		fmt.Fprintf(opts.Log, "Error visiting %s: %s\n", r.Request.URL, reason)
	})

	visit("", u.String())
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.sort()
	return report, nil
}

func isHTMLResponse(r *colly.Response) bool {
	if r.Headers == nil {
		return false
	}
	return strings.HasPrefix(r.Headers.Get("Content-Type"), "text/html")
}
