package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reachtim/sitetasks/internal/runner"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("", io.Discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DeployPath != "reachtim" || cfg.Port != 8000 {
		t.Errorf("unexpected defaults: deploy=%q port=%d", cfg.DeployPath, cfg.Port)
	}
	if cfg.Generator != "pelican" || cfg.Sync != "rsync" {
		t.Errorf("unexpected tools: %q %q", cfg.Generator, cfg.Sync)
	}
	if cfg.Production.Host != "reachtim.com" || cfg.Production.Port != 22 {
		t.Errorf("unexpected production target %+v", cfg.Production)
	}
	if len(cfg.Excludes) != 1 || cfg.Excludes[0] != ".DS_Store" {
		t.Errorf("unexpected excludes %v", cfg.Excludes)
	}
	if !cfg.RenderSettings {
		t.Error("settings rendering should default to on")
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.yaml")
	yaml := `deploy_path: public
port: 9000
production:
  host: example.org
  dest_path: /srv/www
`
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SITETASKS_PORT", "9100")
	t.Setenv("SITETASKS_PRODUCTION_USER", "deploy")

	var log bytes.Buffer
	cfg, err := loadConfig(file, &log)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DeployPath != "public" {
		t.Errorf("deploy_path = %q", cfg.DeployPath)
	}
	if cfg.Port != 9100 {
		t.Errorf("env should override file, port = %d", cfg.Port)
	}
	if cfg.Production.Host != "example.org" || cfg.Production.DestPath != "/srv/www" {
		t.Errorf("unexpected production %+v", cfg.Production)
	}
	if cfg.Production.User != "deploy" {
		t.Errorf("nested env override failed, user = %q", cfg.Production.User)
	}
	if cfg.Production.Port != 22 {
		t.Errorf("unset keys keep defaults, port = %d", cfg.Production.Port)
	}
	if !strings.Contains(log.String(), "Using config file:") {
		t.Errorf("expected config file notice, got %q", log.String())
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"), io.Discard); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{
		"clean", "build", "rebuild", "regenerate", "serve", "reserve", "preview", "publish",
		"settings", "check", "crawl", "export",
	} {
		c, _, err := rootCmd.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

// run executes the root command in a fresh working directory with the
// external tools replaced through the environment.
func run(t *testing.T, generator string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("SITETASKS_GENERATOR", generator)
	t.Setenv("SITETASKS_SYNC", "false")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		dryRun = false
		syncDryRun = false
		noCache = false
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExecute_BuildFailurePropagatesExitCode(t *testing.T) {
	_, err := run(t, "false", "build")
	if err == nil {
		t.Fatal("expected build failure")
	}
	if code, ok := runner.ExitCode(err); !ok || code != 1 {
		t.Errorf("expected exit code 1, got %v", err)
	}
}

func TestExecute_PublishDryRun(t *testing.T) {
	out, err := run(t, "true", "publish", "--dry-run")
	if err == nil {
		// The deploy dir does not exist, the generator is a no-op.
		t.Fatal("expected plan error for missing deploy dir")
	}
	if !strings.Contains(out, "Wrote production settings to publishconf.py") {
		t.Errorf("expected production settings to be rendered first:\n%s", out)
	}
	if _, statErr := os.Stat("publishconf.py"); statErr != nil {
		t.Errorf("publishconf.py not written: %v", statErr)
	}
}

func TestExecute_CleanAndSettings(t *testing.T) {
	out, err := run(t, "true", "settings", "local", "--stdout")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if !strings.Contains(out, "OUTPUT_PATH = 'reachtim'") {
		t.Errorf("unexpected settings output:\n%s", out)
	}

	if err := os.MkdirAll(filepath.Join("reachtim", "articles"), 0o755); err != nil {
		t.Fatal(err)
	}
	rootCmd.SetArgs([]string{"clean"})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("clean: %v", err)
	}
	entries, err := os.ReadDir("reachtim")
	if err != nil || len(entries) != 0 {
		t.Errorf("expected empty deploy dir, got %d entries (%v)", len(entries), err)
	}
}
