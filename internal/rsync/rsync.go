// Package rsync builds the mirror command that publishes the deploy
// directory and computes the file plan a sync would transfer.
package rsync

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

// Target is the remote end of a publish.
type Target struct {
	User string
	Host string
	Port int
	Path string
}

// Remote returns the user@host:path destination.
func (t Target) Remote() string {
	host := t.Host
	if t.User != "" {
		host = t.User + "@" + host
	}
	return host + ":" + t.Path
}

// Validate reports a target that cannot be synced to.
func (t Target) Validate() error {
	switch {
	case t.Host == "":
		return fmt.Errorf("publish target: host is required")
	case t.Path == "":
		return fmt.Errorf("publish target: remote path is required")
	case t.Port < 0 || t.Port > 65535:
		return fmt.Errorf("publish target: invalid port %d", t.Port)
	}
	return nil
}

// Options control the mirror.
type Options struct {
	// Excludes are rsync exclude patterns, e.g. ".DS_Store".
	Excludes []string

	// DryRun passes -n so rsync only reports what it would do.
	DryRun bool
}

// Args returns the rsync arguments that mirror localDir onto t: remote
// files missing locally are deleted, permissions and times are preserved,
// transfers are compressed and verified by checksum.
func Args(localDir string, t Target, opts Options) []string {
	args := []string{"--delete"}
	for _, ex := range opts.Excludes {
		args = append(args, "--exclude", ex)
	}
	args = append(args, "-pthrvz", "-c")
	if opts.DryRun {
		args = append(args, "-n")
	}
	if t.Port > 0 {
		args = append(args, "-e", "ssh -p "+strconv.Itoa(t.Port))
	}
	return append(args, withTrailingSlash(localDir), t.Remote())
}

// withTrailingSlash makes rsync copy the directory contents rather than
// the directory itself.
func withTrailingSlash(dir string) string {
	return strings.TrimRight(dir, "/") + "/"
}

// Plan is the set of local files a sync would consider.
type Plan struct {
	Files    []string
	Excluded []string
	Bytes    int64
}

type matcher struct {
	anchored bool
	g        glob.Glob
}

func compile(patterns []string) ([]matcher, error) {
	var out []matcher
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		trimmed := strings.Trim(p, "/")
		g, err := glob.Compile(trimmed, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude %q: %w", p, err)
		}
		anchored := strings.HasPrefix(p, "/") || strings.Contains(trimmed, "/")
		out = append(out, matcher{anchored: anchored, g: g})
	}
	return out, nil
}

// excluded follows rsync's rule: a pattern without a slash matches the
// final path component anywhere in the tree, otherwise it matches the path
// relative to the transfer root.
func excluded(rel string, ms []matcher) bool {
	for _, m := range ms {
		if m.anchored {
			if m.g.Match(rel) {
				return true
			}
			continue
		}
		for _, part := range strings.Split(rel, "/") {
			if m.g.Match(part) {
				return true
			}
		}
	}
	return false
}

// BuildPlan walks localDir and sorts its files into those a sync would
// transfer and those the excludes filter out.
func BuildPlan(localDir string, excludes []string) (*Plan, error) {
	ms, err := compile(excludes)
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	err = filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == localDir {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if excluded(rel, ms) {
			plan.Excluded = append(plan.Excluded, rel)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		plan.Files = append(plan.Files, rel)
		plan.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("plan sync of %s: %w", localDir, err)
	}

	sort.Strings(plan.Files)
	sort.Strings(plan.Excluded)
	return plan, nil
}
