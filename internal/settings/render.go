package settings

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidValue is returned for a setting that has no Python literal.
var ErrInvalidValue = errors.New("invalid settings value")

// Entry is one top-level setting: its NAME and the Python literal value.
type Entry struct {
	Key   string
	Value string
}

// Entries returns the settings as ordered (NAME, python literal) pairs.
// Optional settings left empty are omitted so the generator default applies.
func (s Settings) Entries() []Entry {
	var out []Entry
	add := func(key, value string) { out = append(out, Entry{key, value}) }
	addStr := func(key, value string) {
		if value != "" {
			add(key, pyString(value))
		}
	}

	add("AUTHOR", pyString(s.Author))
	add("SITENAME", pyString(s.SiteName))
	add("SITEURL", pyString(s.SiteURL))
	add("PATH", pyString(s.ContentPath))
	add("TIMEZONE", pyString(s.Timezone))
	add("DEFAULT_LANG", pyString(s.DefaultLang))
	addStr("THEME", s.Theme)
	addStr("OUTPUT_PATH", s.OutputPath)
	add("DELETE_OUTPUT_DIRECTORY", pyBool(s.DeleteOutputDirectory))

	addStr("FEED_DOMAIN", s.FeedDomain)
	addStr("FEED_ALL_ATOM", s.FeedAllAtom)
	addStr("CATEGORY_FEED_ATOM", s.CategoryFeedAtom)

	if s.StaticPaths != nil {
		add("STATIC_PATHS", pyList(s.StaticPaths))
	}
	if len(s.ExtraPathMetadata) > 0 {
		add("EXTRA_PATH_METADATA", pyPathMetadata(s.ExtraPathMetadata))
	}
	add("LINKS", pyPairs(s.Links))
	add("SOCIAL", pyPairs(s.Social))

	if len(s.PluginPaths) > 0 {
		add("PLUGIN_PATHS", pyList(s.PluginPaths))
	}
	if s.Plugins != nil {
		add("PLUGINS", pyList(s.Plugins))
	}

	addStr("ARTICLE_URL", s.ArticleURL)
	addStr("ARTICLE_SAVE_AS", s.ArticleSaveAs)
	addStr("PAGE_URL", s.PageURL)
	addStr("PAGE_SAVE_AS", s.PageSaveAs)

	if s.Sitemap != nil {
		add("SITEMAP", pySitemap(s.Sitemap))
	}

	add("TYPOGRIFY", pyBool(s.Typogrify))
	if s.DefaultPagination > 0 {
		add("DEFAULT_PAGINATION", strconv.Itoa(s.DefaultPagination))
	} else {
		add("DEFAULT_PAGINATION", "False")
	}
	add("RELATIVE_URLS", pyBool(s.RelativeURLs))
	return out
}

// Render writes s as a Python settings module.
func (s Settings) Render(w io.Writer, v Variant) error {
	if err := s.validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# -*- coding: utf-8 -*-\n")
	fmt.Fprintf(bw, "# Generated by sitetasks for the %s variant. Do not edit.\n\n", v)
	for _, e := range s.Entries() {
		fmt.Fprintf(bw, "%s = %s\n", e.Key, e.Value)
	}
	return bw.Flush()
}

// WriteFile renders s to path, creating parent directories as needed.
func (s Settings) WriteFile(path string, v Variant) error {
	if err := s.validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create settings file: %w", err)
	}
	if err := s.Render(f, v); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

func pyString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// validate rejects values pyFloat cannot express.
func (s Settings) validate() error {
	if s.Sitemap == nil {
		return nil
	}
	for _, k := range sortedKeys(s.Sitemap.Priorities) {
		if f := s.Sitemap.Priorities[k]; math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: sitemap priority %s is %v", ErrInvalidValue, k, f)
		}
	}
	return nil
}

// pyFloat expects a finite value.
func pyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func pyList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = pyString(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// pyPairs renders an ordered tuple of (label, URL) tuples. A one-element
// tuple needs its trailing comma.
func pyPairs(links []Link) string {
	if len(links) == 0 {
		return "()"
	}
	var b strings.Builder
	b.WriteString("(\n")
	for _, l := range links {
		fmt.Fprintf(&b, "    (%s, %s),\n", pyString(l.Label), pyString(l.URL))
	}
	b.WriteString(")")
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pyPathMetadata(m map[string]PathMetadata) string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(&b, "    %s: {'path': %s},\n", pyString(k), pyString(m[k].Path))
	}
	b.WriteString("}")
	return b.String()
}

func pySitemap(sm *Sitemap) string {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "    'format': %s,\n", pyString(sm.Format))

	b.WriteString("    'priorities': {")
	for i, k := range sortedKeys(sm.Priorities) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", pyString(k), pyFloat(sm.Priorities[k]))
	}
	b.WriteString("},\n")

	b.WriteString("    'changefreqs': {")
	for i, k := range sortedKeys(sm.ChangeFreqs) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", pyString(k), pyString(sm.ChangeFreqs[k]))
	}
	b.WriteString("},\n")
	b.WriteString("}")
	return b.String()
}
