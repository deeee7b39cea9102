// Package linkcheck finds broken references in a generated site, either
// offline by inspecting the output directory or online by crawling a
// running preview server.
package linkcheck

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrBrokenLinks is returned by callers that treat a report with broken
// links as a failure.
var ErrBrokenLinks = errors.New("broken links found")

// refSelector picks every element whose attribute points at another
// resource of the site.
const refSelector = "a[href], link[href], img[src], script[src], source[src]"

// Broken is a reference that does not resolve.
type Broken struct {
	Page   string
	Ref    string
	Reason string
}

// Report summarizes a check.
type Report struct {
	Pages  int
	Links  int
	Broken []Broken
}

// OK reports whether no broken references were found.
func (r *Report) OK() bool {
	return len(r.Broken) == 0
}

// Err returns ErrBrokenLinks when the report has broken references.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%w: %d of %d", ErrBrokenLinks, len(r.Broken), r.Links)
}

// Print writes a human readable summary.
func (r *Report) Print(w io.Writer) {
	for _, b := range r.Broken {
		fmt.Fprintf(w, "%s: %s (%s)\n", b.Page, b.Ref, b.Reason)
	}
	fmt.Fprintf(w, "Checked %d links on %d pages, %d broken.\n", r.Links, r.Pages, len(r.Broken))
}

func (r *Report) sort() {
	sort.Slice(r.Broken, func(i, j int) bool {
		if r.Broken[i].Page != r.Broken[j].Page {
			return r.Broken[i].Page < r.Broken[j].Page
		}
		return r.Broken[i].Ref < r.Broken[j].Ref
	})
}

// DirOptions configure an offline check.
type DirOptions struct {
	// SiteURL is stripped from absolute references so production builds,
	// which link with absolute URLs, can be checked locally.
	SiteURL string
}

// CheckDir parses every HTML page below root and reports references to
// files that do not exist in root.
func CheckDir(root string, opts DirOptions) (*Report, error) {
	report := &Report{}
	siteURL := strings.TrimRight(opts.SiteURL, "/")

	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isHTML(p) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		page := filepath.ToSlash(rel)

		refs, err := pageRefs(p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", page, err)
		}
		report.Pages++

		for _, ref := range refs {
			target, ok := localTarget(page, ref, siteURL)
			if !ok {
				continue
			}
			report.Links++
			if !existsInSite(root, target) {
				report.Broken = append(report.Broken, Broken{Page: page, Ref: ref, Reason: "missing " + target})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", root, err)
	}

	report.sort()
	return report, nil
}

func isHTML(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".html" || ext == ".htm"
}

func pageRefs(p string) ([]string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, err
	}

	var refs []string
	doc.Find(refSelector).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("href"); ok {
			refs = append(refs, strings.TrimSpace(v))
		}
		if v, ok := s.Attr("src"); ok {
			refs = append(refs, strings.TrimSpace(v))
		}
	})
	return refs, nil
}

// underSite strips siteURL from ref when ref points into the site. The
// prefix must end at a path, query or fragment boundary.
func underSite(ref, siteURL string) (string, bool) {
	siteURL = strings.TrimRight(siteURL, "/")
	if siteURL == "" {
		return "", false
	}
	rest, ok := strings.CutPrefix(ref, siteURL)
	if !ok {
		return "", false
	}
	if rest != "" && !strings.ContainsRune("/?#", rune(rest[0])) {
		return "", false
	}
	return rest, true
}

// localTarget resolves ref found on page to a slash separated path below
// the site root. ok is false for references outside the site.
func localTarget(page, ref, siteURL string) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}
	if rest, ok := underSite(ref, siteURL); ok {
		ref = rest
		if ref == "" || ref[0] != '/' {
			ref = "/" + ref
		}
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" {
		return "", false
	}

	var target string
	if strings.HasPrefix(u.Path, "/") {
		target = path.Clean(u.Path)
	} else {
		target = path.Join("/", path.Dir(page), u.Path)
	}
	if strings.HasSuffix(u.Path, "/") && !strings.HasSuffix(target, "/") {
		target += "/"
	}
	return strings.TrimPrefix(target, "/"), true
}

// existsInSite reports whether target names a file, or a directory with an
// index.html, below root.
func existsInSite(root, target string) bool {
	if strings.HasPrefix(target, "../") || target == ".." {
		return false
	}
	full := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(target, "/")))
	fi, err := os.Stat(full)
	if err != nil {
		return false
	}
	if fi.IsDir() {
		_, err := os.Stat(filepath.Join(full, "index.html"))
		return err == nil
	}
	return !strings.HasSuffix(target, "/")
}
