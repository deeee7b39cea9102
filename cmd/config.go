package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/reachtim/sitetasks/internal/rsync"
	"github.com/reachtim/sitetasks/internal/runner"
	"github.com/reachtim/sitetasks/internal/tasks"
)

// RemoteConfig is the ssh destination of a publish.
type RemoteConfig struct {
	User     string `mapstructure:"user"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DestPath string `mapstructure:"dest_path"`
}

// ExportConfig configures the markdown export.
type ExportConfig struct {
	Output   string   `mapstructure:"output"`
	Flat     bool     `mapstructure:"flat"`
	Rename   string   `mapstructure:"file_rename"`
	Patterns []string `mapstructure:"patterns"`
}

// Config defines the top-level configuration structure.
type Config struct {
	DeployPath     string       `mapstructure:"deploy_path"`
	Port           int          `mapstructure:"port"`
	Generator      string       `mapstructure:"generator"`
	Sync           string       `mapstructure:"sync"`
	SettingsDir    string       `mapstructure:"settings_dir"`
	SiteFile       string       `mapstructure:"site_file"`
	RenderSettings bool         `mapstructure:"render_settings"`
	Excludes       []string     `mapstructure:"excludes"`
	Production     RemoteConfig `mapstructure:"production"`
	Export         ExportConfig `mapstructure:"export"`
}

// flagBindings maps config keys to the flags that override them.
var flagBindings = map[string]*pflag.Flag{}

func bindFlag(key string, f *pflag.Flag) {
	flagBindings[key] = f
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deploy_path", "reachtim")
	v.SetDefault("port", 8000)
	v.SetDefault("generator", "pelican")
	v.SetDefault("sync", "rsync")
	v.SetDefault("settings_dir", ".")
	v.SetDefault("site_file", "site.yaml")
	v.SetDefault("render_settings", true)
	v.SetDefault("excludes", []string{".DS_Store"})

	v.SetDefault("production.user", "tiarno")
	v.SetDefault("production.host", "reachtim.com")
	v.SetDefault("production.port", 22)
	v.SetDefault("production.dest_path", "/home/tiarno/webapps/reachtim")

	v.SetDefault("export.output", ".sitecache")
	v.SetDefault("export.flat", false)
	v.SetDefault("export.file_rename", "")
}

// loadConfig layers defaults, the config file, SITETASKS_* environment
// variables and explicitly set flags.
func loadConfig(file string, log io.Writer) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("sitetasks")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SITETASKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, f := range flagBindings {
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || file != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		fmt.Fprintln(log, "Using config file:", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &cfg, nil
}

// newEnv builds the task environment for cmd from the loaded config.
func newEnv(cmd *cobra.Command, cfg Config) *tasks.Env {
	out := cmd.OutOrStdout()
	return &tasks.Env{
		DeployPath:     cfg.DeployPath,
		ServerPort:     cfg.Port,
		Generator:      cfg.Generator,
		Sync:           cfg.Sync,
		SettingsDir:    cfg.SettingsDir,
		SiteFile:       cfg.SiteFile,
		RenderSettings: cfg.RenderSettings,
		Target: rsync.Target{
			User: cfg.Production.User,
			Host: cfg.Production.Host,
			Port: cfg.Production.Port,
			Path: cfg.Production.DestPath,
		},
		Excludes: cfg.Excludes,
		Runner: runner.New(runner.Config{
			Stdout: out,
			Stderr: cmd.ErrOrStderr(),
			Echo:   out,
		}),
		Out: out,
	}
}
