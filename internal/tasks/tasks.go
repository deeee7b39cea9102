// Package tasks implements the site's build, serve and deploy operations.
//
// Each task is a one-shot action over an explicit Env: it performs a
// directory operation, runs an external tool, or blocks serving the output
// directory. Tasks compose only by sequential calls and stop at the first
// error, which is returned unchanged so an external tool's exit code
// reaches the invoking shell.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/reachtim/sitetasks/internal/rsync"
	"github.com/reachtim/sitetasks/internal/runner"
	"github.com/reachtim/sitetasks/internal/server"
	"github.com/reachtim/sitetasks/internal/settings"
)

// ServeFunc serves a directory until ctx is cancelled.
type ServeFunc func(ctx context.Context, cfg server.Config) error

// Env carries everything a task needs. It is built once per invocation
// and not modified by tasks.
type Env struct {
	// DeployPath is the local output directory.
	DeployPath string

	// ServerPort is the local preview port.
	ServerPort int

	// Generator is the static site generator executable.
	Generator string

	// Sync is the file synchronization executable.
	Sync string

	// SettingsDir holds the rendered settings files.
	SettingsDir string

	// SiteFile is the optional settings override file.
	SiteFile string

	// RenderSettings renders the variant's settings file before each
	// generator run.
	RenderSettings bool

	// Target is the publish destination.
	Target rsync.Target

	// Excludes are never synced.
	Excludes []string

	// DryRun makes Publish print the sync plan and command instead of
	// running the sync.
	DryRun bool

	// SyncDryRun runs the sync with -n so it only lists what would change
	// on the remote.
	SyncDryRun bool

	// NoCache stops browsers caching served previews.
	NoCache bool

	Runner runner.Runner

	// Serve defaults to server.ListenAndServe.
	Serve ServeFunc

	// Out receives progress lines.
	Out io.Writer
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return io.Discard
	}
	return e.Out
}

// SettingsFile returns the settings file path for v.
func (e *Env) SettingsFile(v settings.Variant) string {
	return filepath.Join(e.SettingsDir, v.FileName())
}

// LoadSettings returns the settings for v with overrides applied. The
// output path follows DeployPath for the variants tasks build, so serve
// and publish read what the generator wrote.
func (e *Env) LoadSettings(v settings.Variant) (settings.Settings, error) {
	s, err := settings.Load(e.SiteFile, v)
	if err != nil {
		return settings.Settings{}, err
	}
	if v != settings.VariantStaging && e.DeployPath != "" {
		s.OutputPath = e.DeployPath
	}
	return s, nil
}

// WriteSettings renders the settings file for v.
func (e *Env) WriteSettings(v settings.Variant) (string, error) {
	s, err := e.LoadSettings(v)
	if err != nil {
		return "", err
	}
	path := e.SettingsFile(v)
	if err := s.WriteFile(path, v); err != nil {
		return "", err
	}
	fmt.Fprintf(e.out(), "Wrote %s settings to %s\n", v, path)
	return path, nil
}

// Clean removes the deploy directory's contents by deleting and recreating
// it. A missing directory is left alone.
func Clean(_ context.Context, e *Env) error {
	fi, err := os.Stat(e.DeployPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("clean %s: %w", e.DeployPath, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("clean %s: not a directory", e.DeployPath)
	}

	fmt.Fprintf(e.out(), "Cleaning output directory: %s\n", e.DeployPath)
	if err := os.RemoveAll(e.DeployPath); err != nil {
		return fmt.Errorf("clean %s: %w", e.DeployPath, err)
	}
	if err := os.MkdirAll(e.DeployPath, fi.Mode().Perm()); err != nil {
		return fmt.Errorf("clean %s: %w", e.DeployPath, err)
	}
	return nil
}

// generate runs the generator with the settings file for v.
func generate(ctx context.Context, e *Env, v settings.Variant, flags ...string) error {
	file := e.SettingsFile(v)
	if e.RenderSettings {
		var err error
		if file, err = e.WriteSettings(v); err != nil {
			return err
		}
	}
	args := append(append([]string(nil), flags...), "-s", file)
	return e.Runner.Run(ctx, e.Generator, args...)
}

// Build generates the site with the development settings.
func Build(ctx context.Context, e *Env) error {
	return generate(ctx, e, settings.VariantLocal)
}

// Rebuild is Build with the generator told to delete prior output first.
func Rebuild(ctx context.Context, e *Env) error {
	return generate(ctx, e, settings.VariantLocal, "-d")
}

// Regenerate runs the generator in watch mode. It blocks until the
// generator exits or ctx is cancelled.
func Regenerate(ctx context.Context, e *Env) error {
	return generate(ctx, e, settings.VariantLocal, "-r")
}

// Preview generates the site with the production settings.
func Preview(ctx context.Context, e *Env) error {
	return generate(ctx, e, settings.VariantProduction)
}

// Serve serves the deploy directory on all interfaces until ctx is
// cancelled.
func Serve(ctx context.Context, e *Env) error {
	serve := e.Serve
	if serve == nil {
		serve = server.ListenAndServe
	}
	return serve(ctx, server.Config{
		Root:    e.DeployPath,
		Addr:    ":" + strconv.Itoa(e.ServerPort),
		Log:     e.out(),
		NoCache: e.NoCache,
	})
}

// Reserve builds, then serves. Nothing is served when the build fails.
func Reserve(ctx context.Context, e *Env) error {
	if err := Build(ctx, e); err != nil {
		return err
	}
	return Serve(ctx, e)
}

// Publish builds with the production settings and mirrors the deploy
// directory to the remote target. The sync only starts after the build
// succeeded.
func Publish(ctx context.Context, e *Env) error {
	if err := e.Target.Validate(); err != nil {
		return err
	}
	if err := Preview(ctx, e); err != nil {
		return err
	}

	args := rsync.Args(e.DeployPath, e.Target, rsync.Options{
		Excludes: e.Excludes,
		DryRun:   e.SyncDryRun,
	})
	if e.DryRun {
		plan, err := rsync.BuildPlan(e.DeployPath, e.Excludes)
		if err != nil {
			return err
		}
		w := e.out()
		for _, f := range plan.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
		fmt.Fprintf(w, "%d files (%d bytes) to %s, %d excluded\n", len(plan.Files), plan.Bytes, e.Target.Remote(), len(plan.Excluded))
		fmt.Fprintf(w, "Would run: %s\n", runner.CommandLine(e.Sync, args...))
		return nil
	}
	return e.Runner.Run(ctx, e.Sync, args...)
}
