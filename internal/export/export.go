// Package export converts generated pages into Markdown files with a front
// matter header, giving a plain-text mirror of the published site.
package export

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/gobwas/glob"
	"go.yaml.in/yaml/v3"
)

// DefaultPatterns select the article and page output of the production
// URL scheme.
var DefaultPatterns = []string{"articles/*.html", "pages/**.html"}

// Options configure an export.
type Options struct {
	// Patterns select pages by path relative to the site root. A leading
	// "!" turns a pattern into an ignore rule.
	Patterns []string

	// SiteURL is used to absolutize links and for the url metadata.
	SiteURL string

	// Flat writes every page to <outDir>/<path_with_underscores>/index.md.
	Flat bool

	// FileName overrides the Markdown file name, e.g. "SKILL.md".
	FileName string

	// Log receives one line per exported page. Nil discards them.
	Log io.Writer
}

// FrontMatter is the YAML header of an exported page.
type FrontMatter struct {
	Title        string `yaml:"title"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	URL          string `yaml:"url"`
	LastModified string `yaml:"last_modified"`
}

// Result lists the files written.
type Result struct {
	Files []string
}

type rule struct {
	pattern string
	g       glob.Glob
}

func compileRules(patterns []string) (allowed, ignored []rule, err error) {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}

		isIgnore := false
		if strings.HasPrefix(p, "!") {
			isIgnore = true
			p = strings.TrimPrefix(p, "!")
		}

		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, nil, fmt.Errorf("invalid pattern %s: %w", p, err)
		}

		r := rule{pattern: p, g: g}
		if isIgnore {
			ignored = append(ignored, r)
		} else {
			allowed = append(allowed, r)
		}
	}
	return allowed, ignored, nil
}

func selected(rel string, allowed, ignored []rule) bool {
	for _, r := range ignored {
		if r.g.Match(rel) {
			return false
		}
	}
	for _, r := range allowed {
		if r.g.Match(rel) {
			return true
		}
	}
	return false
}

// Site exports the pages of root selected by opts.Patterns into outDir.
func Site(root, outDir string, opts Options) (*Result, error) {
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	allowed, ignored, err := compileRules(opts.Patterns)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !selected(rel, allowed, ignored) {
			return nil
		}

		out, err := exportPage(p, rel, outDir, opts)
		if err != nil {
			return fmt.Errorf("export %s: %w", rel, err)
		}
		fmt.Fprintf(opts.Log, "Exported: %s -> %s\n", rel, out)
		res.Files = append(res.Files, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func exportPage(path, rel, outDir string, opts Options) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	title, description, err := extractMetadata(body)
	if err != nil {
		return "", err
	}
	if title == "" {
		title = "Untitled"
	}
	if description == "" {
		description = "No description available."
	}

	cleanHTML, err := extractContent(body)
	if err != nil {
		return "", err
	}

	converter := md.NewConverter(hostOf(opts.SiteURL), true, nil)
	markdownBody, err := converter.ConvertString(cleanHTML)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	mdPath := outputPath(rel, outDir, opts.Flat, opts.FileName)

	var name string
	if opts.Flat {
		name = filepath.Base(filepath.Dir(mdPath))
	} else {
		name = toPathCase(title)
	}

	header, err := yaml.Marshal(FrontMatter{
		Title:        title,
		Name:         name,
		Description:  description,
		URL:          strings.TrimRight(opts.SiteURL, "/") + "/" + rel,
		LastModified: info.ModTime().UTC().Format(time.RFC1123),
	})
	if err != nil {
		return "", fmt.Errorf("front matter: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("---\n")
	page.Write(header)
	fmt.Fprintf(&page, "---\n\n# %s\n\n%s\n", title, markdownBody)

	if err := os.MkdirAll(filepath.Dir(mdPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(mdPath, page.Bytes(), 0o644); err != nil {
		return "", err
	}
	return mdPath, nil
}

func hostOf(siteURL string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(siteURL, "https://"), "http://")
	return strings.TrimRight(s, "/")
}

// outputPath maps a page path to its Markdown file.
func outputPath(rel, outDir string, flat bool, rename string) string {
	if flat {
		segment := strings.TrimSuffix(rel, ".html")
		segment = strings.TrimSuffix(segment, "/index")
		segment = strings.Trim(segment, "/")
		segment = strings.ReplaceAll(segment, "/", "_")
		if segment == "" {
			segment = "index"
		}
		name := "index.md"
		if rename != "" {
			name = rename
		}
		return filepath.Join(outDir, segment, name)
	}

	full := filepath.Join(outDir, filepath.FromSlash(rel))
	if rename != "" {
		return filepath.Join(filepath.Dir(full), rename)
	}
	return strings.TrimSuffix(full, ".html") + ".md"
}

func extractMetadata(body []byte) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}

	title := doc.Find("meta[property='og:title']").AttrOr("content", "")
	if title == "" {
		title = doc.Find("title").First().Text()
	}

	description := doc.Find("meta[property='og:description']").AttrOr("content", "")
	if description == "" {
		description = doc.Find("meta[name='description']").AttrOr("content", "")
	}

	return oneLine(title), oneLine(description), nil
}

// oneLine collapses runs of whitespace, newlines included.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractContent returns the article body, falling back to <body>, without
// site chrome.
func extractContent(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	selection := doc.Find("body")
	if article := doc.Find("article"); article.Length() > 0 {
		selection = article.First()
	}

	selection.Find("nav, header#banner, footer, .toc, script").Remove()

	return selection.Html()
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func toPathCase(s string) string {
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
