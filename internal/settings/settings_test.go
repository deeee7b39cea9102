package settings

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in   string
		want Variant
	}{
		{"local", VariantLocal},
		{"dev", VariantLocal},
		{"Staging", VariantStaging},
		{"production", VariantProduction},
		{" publish ", VariantProduction},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if err != nil {
			t.Errorf("ParseVariant(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVariant(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseVariant("qa"); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestVariantFileName(t *testing.T) {
	want := map[Variant]string{
		VariantLocal:      "pelicanconf.py",
		VariantStaging:    "stagingconf.py",
		VariantProduction: "publishconf.py",
	}
	for v, name := range want {
		if got := v.FileName(); got != name {
			t.Errorf("%s.FileName() = %q, want %q", v, got, name)
		}
	}
}

func TestProduction_URLPatterns(t *testing.T) {
	s := Production()

	if s.ArticleURL != "articles/{slug}.html" || s.ArticleSaveAs != "articles/{slug}.html" {
		t.Errorf("unexpected article patterns %q / %q", s.ArticleURL, s.ArticleSaveAs)
	}
	if s.PageURL != "pages/{slug}.html" || s.PageSaveAs != "pages/{slug}.html" {
		t.Errorf("unexpected page patterns %q / %q", s.PageURL, s.PageSaveAs)
	}
	if s.RelativeURLs {
		t.Error("production must use absolute URLs")
	}
	if s.Sitemap == nil {
		t.Fatal("production must configure the sitemap")
	}
}

func TestVariantsDiffer(t *testing.T) {
	local, staging, prod := Local(), Staging(), Production()

	if !local.RelativeURLs {
		t.Error("local should use relative URLs")
	}
	if local.ArticleSaveAs != "" {
		t.Errorf("local should leave article paths to the generator, got %q", local.ArticleSaveAs)
	}
	if staging.SiteURL == prod.SiteURL {
		t.Error("staging and production should target different hosts")
	}
	if staging.OutputPath == prod.OutputPath {
		t.Error("staging and production should use different output paths")
	}
	if len(prod.Plugins) <= len(local.Plugins) {
		t.Errorf("production plugin set %v should extend local %v", prod.Plugins, local.Plugins)
	}

	// Variants must not share backing arrays.
	prod.Plugins[0] = "changed"
	if Production().Plugins[0] == "changed" {
		t.Error("Production() returned shared plugin slice")
	}
}

func TestRender_Production(t *testing.T) {
	var b bytes.Buffer
	if err := Production().Render(&b, VariantProduction); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"AUTHOR = 'Tim Arnold'\n",
		"SITEURL = 'https://reachtim.com'\n",
		"ARTICLE_SAVE_AS = 'articles/{slug}.html'\n",
		"PAGE_URL = 'pages/{slug}.html'\n",
		"PLUGINS = ['render_math', 'sitemap', 'neighbors']\n",
		"DELETE_OUTPUT_DIRECTORY = True\n",
		"RELATIVE_URLS = False\n",
		"DEFAULT_PAGINATION = False\n",
		"    ('CTAN', 'https://ctan.org/'),\n",
		"    'priorities': {'articles': 0.5, 'indexes': 0.5, 'pages': 0.5},\n",
		"    'extra/robots.txt': {'path': 'robots.txt'},\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered settings missing %q\n%s", want, out)
		}
	}
}

func TestRender_LocalOmitsUnsetPatterns(t *testing.T) {
	var b bytes.Buffer
	if err := Local().Render(&b, VariantLocal); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := b.String()

	for _, absent := range []string{"ARTICLE_URL", "SITEMAP", "THEME", "PLUGINS"} {
		if strings.Contains(out, absent) {
			t.Errorf("local settings should not set %s", absent)
		}
	}
	if !strings.Contains(out, "RELATIVE_URLS = True\n") {
		t.Error("local settings should enable relative URLs")
	}
}

func TestPyLiterals(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{pyString(`it's`), `'it\'s'`},
		{pyString(`a\b`), `'a\\b'`},
		{pyString("x\ny"), `'x\ny'`},
		{pyString("nul\x00bel\x07del\x7f"), `'nul\x00bel\x07del\x7f'`},
		{pyFloat(1), "1.0"},
		{pyFloat(0.25), "0.25"},
		{pyList(nil), "[]"},
		{pyPairs(nil), "()"},
		{pyPairs([]Link{{"a", "b"}}), "(\n    ('a', 'b'),\n)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestLoad_Overrides(t *testing.T) {
	file := filepath.Join(t.TempDir(), "site.yaml")
	yaml := `common:
  author: Someone Else
production:
  site_url: https://example.org
  plugins: [sitemap]
  social:
    - label: Mastodon
      url: https://example.social/@me
  extra_path_metadata:
    extra/Favicon.ICO: {path: favicon.ico}
    extra/CNAME:
      path: CNAME
local:
  site_name: Ignored For Production
`
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(file, VariantProduction)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if s.Author != "Someone Else" {
		t.Errorf("common override not applied, author = %q", s.Author)
	}
	if s.SiteURL != "https://example.org" {
		t.Errorf("site_url = %q", s.SiteURL)
	}
	if s.SiteName != "ReachTim" {
		t.Errorf("local section leaked into production: %q", s.SiteName)
	}
	if len(s.Plugins) != 1 || s.Plugins[0] != "sitemap" {
		t.Errorf("plugins should be replaced, got %v", s.Plugins)
	}
	if len(s.Social) != 1 || s.Social[0].Label != "Mastodon" {
		t.Errorf("social should be replaced, got %v", s.Social)
	}
	if s.ArticleSaveAs != "articles/{slug}.html" {
		t.Errorf("untouched keys keep defaults, got %q", s.ArticleSaveAs)
	}

	wantMeta := map[string]PathMetadata{
		"extra/Favicon.ICO": {Path: "favicon.ico"},
		"extra/CNAME":       {Path: "CNAME"},
	}
	if !reflect.DeepEqual(s.ExtraPathMetadata, wantMeta) {
		t.Errorf("extra_path_metadata = %#v, want %#v", s.ExtraPathMetadata, wantMeta)
	}

	var b bytes.Buffer
	if err := s.Render(&b, VariantProduction); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(b.String(), "    'extra/Favicon.ICO': {'path': 'favicon.ico'},\n") {
		t.Errorf("file name keys should render verbatim\n%s", b.String())
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown key", "common:\n  auther: typo\n", nil},
		{"malformed", "common: [unclosed\n", nil},
		{"non-finite priority", "production:\n  sitemap:\n    priorities: {pages: .nan}\n", ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "site.yaml")
			if err := os.WriteFile(file, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(file, VariantProduction)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRender_NonFinitePriority(t *testing.T) {
	s := Production()
	s.Sitemap.Priorities["pages"] = math.Inf(1)

	var b bytes.Buffer
	if err := s.Render(&b, VariantProduction); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("nothing should be written for invalid settings, got %q", b.String())
	}

	path := filepath.Join(t.TempDir(), "publishconf.py")
	if err := s.WriteFile(path, VariantProduction); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("invalid settings should not create %s", path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), VariantLocal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.OutputPath != "reachtim" {
		t.Errorf("expected defaults, got output path %q", s.OutputPath)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "publishconf.py")
	if err := Production().WriteFile(path, VariantProduction); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("# -*- coding: utf-8 -*-\n")) {
		t.Errorf("unexpected header: %q", data[:40])
	}
}
