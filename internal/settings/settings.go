// Package settings holds the generator configuration set: one flat settings
// mapping per build variant, rendered to the Python settings module the
// generator reads with its -s switch.
package settings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVariant is returned for a variant name that is not defined.
var ErrUnknownVariant = errors.New("unknown settings variant")

// Variant selects one of the configuration set members.
type Variant int

const (
	// VariantLocal is the development configuration used by build and serve.
	VariantLocal Variant = iota
	// VariantStaging targets the staging host.
	VariantStaging
	// VariantProduction is used by preview and publish.
	VariantProduction
)

// Variants lists every variant in render order.
var Variants = []Variant{VariantLocal, VariantStaging, VariantProduction}

// String returns the variant name used on the command line and in
// override files.
func (v Variant) String() string {
	switch v {
	case VariantLocal:
		return "local"
	case VariantStaging:
		return "staging"
	case VariantProduction:
		return "production"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// FileName is the settings file the variant renders to by default.
func (v Variant) FileName() string {
	switch v {
	case VariantStaging:
		return "stagingconf.py"
	case VariantProduction:
		return "publishconf.py"
	default:
		return "pelicanconf.py"
	}
}

// ParseVariant maps a name to its Variant.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "local", "dev", "default":
		return VariantLocal, nil
	case "staging":
		return VariantStaging, nil
	case "production", "prod", "publish":
		return VariantProduction, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Link is a (label, URL) pair for the blogroll and social lists.
type Link struct {
	Label string `mapstructure:"label"`
	URL   string `mapstructure:"url"`
}

// PathMetadata relocates a static file in the output.
type PathMetadata struct {
	Path string `mapstructure:"path"`
}

// Sitemap configures the sitemap plugin.
type Sitemap struct {
	Format      string             `mapstructure:"format"`
	Priorities  map[string]float64 `mapstructure:"priorities"`
	ChangeFreqs map[string]string  `mapstructure:"changefreqs"`
}

// Settings is one flat settings mapping consumed as-is by the generator.
type Settings struct {
	Author      string `mapstructure:"author"`
	SiteName    string `mapstructure:"site_name"`
	SiteURL     string `mapstructure:"site_url"`
	ContentPath string `mapstructure:"content_path"`
	Timezone    string `mapstructure:"timezone"`
	DefaultLang string `mapstructure:"default_lang"`
	Theme       string `mapstructure:"theme"`

	OutputPath            string `mapstructure:"output_path"`
	DeleteOutputDirectory bool   `mapstructure:"delete_output_directory"`
	RelativeURLs          bool   `mapstructure:"relative_urls"`
	Typogrify             bool   `mapstructure:"typogrify"`

	// DefaultPagination is the page size; zero disables pagination.
	DefaultPagination int `mapstructure:"default_pagination"`

	FeedDomain       string `mapstructure:"feed_domain"`
	FeedAllAtom      string `mapstructure:"feed_all_atom"`
	CategoryFeedAtom string `mapstructure:"category_feed_atom"`

	StaticPaths       []string                `mapstructure:"static_paths"`
	ExtraPathMetadata map[string]PathMetadata `mapstructure:"extra_path_metadata"`

	Links  []Link `mapstructure:"links"`
	Social []Link `mapstructure:"social"`

	PluginPaths []string `mapstructure:"plugin_paths"`
	Plugins     []string `mapstructure:"plugins"`

	ArticleURL    string `mapstructure:"article_url"`
	ArticleSaveAs string `mapstructure:"article_save_as"`
	PageURL       string `mapstructure:"page_url"`
	PageSaveAs    string `mapstructure:"page_save_as"`

	Sitemap *Sitemap `mapstructure:"sitemap"`
}

const siteURL = "https://reachtim.com"

// Local returns the generic development configuration.
func Local() Settings {
	return Settings{
		Author:      "Tim Arnold",
		SiteName:    "ReachTim",
		SiteURL:     siteURL,
		ContentPath: "content",
		Timezone:    "America/New_York",
		DefaultLang: "en",

		OutputPath:   "reachtim",
		RelativeURLs: true,
		Typogrify:    true,

		FeedDomain:       siteURL,
		FeedAllAtom:      "feeds/all.atom.xml",
		CategoryFeedAtom: "feeds/{slug}.atom.xml",

		StaticPaths: []string{"images", "extra"},
		ExtraPathMetadata: map[string]PathMetadata{
			"extra/favicon.ico": {Path: "favicon.ico"},
			"extra/robots.txt":  {Path: "robots.txt"},
		},

		Links: []Link{
			{Label: "Planet Python", URL: "https://planet.python.org/"},
			{Label: "CTAN", URL: "https://ctan.org/"},
		},
		Social: []Link{
			{Label: "Github", URL: "https://github.com/tiarno"},
			{Label: "Gists", URL: "https://gist.github.com/tiarno/"},
			{Label: "LinkedIn", URL: "https://www.linkedin.com/in/jtimarnold"},
			{Label: "Twitter", URL: "https://twitter.com/jtimarnold"},
		},
	}
}

// Production returns the configuration used for preview and publish:
// absolute URLs, the production plugin set and fixed URL patterns.
func Production() Settings {
	s := Local()
	s.RelativeURLs = false
	s.DeleteOutputDirectory = true
	s.PluginPaths = []string{"plugins"}
	s.Plugins = []string{"render_math", "sitemap", "neighbors"}
	s.ArticleURL = "articles/{slug}.html"
	s.ArticleSaveAs = "articles/{slug}.html"
	s.PageURL = "pages/{slug}.html"
	s.PageSaveAs = "pages/{slug}.html"
	s.Sitemap = &Sitemap{
		Format: "xml",
		Priorities: map[string]float64{
			"articles": 0.5,
			"indexes":  0.5,
			"pages":    0.5,
		},
		ChangeFreqs: map[string]string{
			"articles": "monthly",
			"indexes":  "daily",
			"pages":    "monthly",
		},
	}
	return s
}

// Staging mirrors Production against the staging host.
func Staging() Settings {
	s := Production()
	s.SiteURL = "https://staging.reachtim.com"
	s.FeedDomain = s.SiteURL
	s.OutputPath = "reachtim-staging"
	return s
}

// Defaults returns the built-in settings for v.
func Defaults(v Variant) (Settings, error) {
	switch v {
	case VariantLocal:
		return Local(), nil
	case VariantStaging:
		return Staging(), nil
	case VariantProduction:
		return Production(), nil
	}
	return Settings{}, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
}
