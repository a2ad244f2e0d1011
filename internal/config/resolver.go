// Package config resolves skein settings from, in rising precedence,
// built-in defaults, the yaml config file, environment variables, and
// CLI flags. Every resolved value remembers where it came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// Built-in defaults.
const (
	DefaultAddr    = ":8090"
	DefaultOrder   = "activity"
	DefaultPerPage = "10"
	DefaultWorkers = "0" // 0 means one worker per CPU
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath string
	CLIDBPath  string
	CLIAddr    string
	CLIOrder   string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath ResolvedValue `json:"db_path"`
	Addr   ResolvedValue `json:"addr"`

	TopicsOrder   ResolvedValue `json:"topics_order"`
	TopicsPerPage ResolvedValue `json:"topics_per_page"`

	IngestWorkers   ResolvedValue `json:"ingest_workers"`
	IngestQueueSize ResolvedValue `json:"ingest_queue_size"`
}

type fileConfig struct {
	DBPath string `yaml:"db_path"`
	Addr   string `yaml:"addr"`
	Topics struct {
		Order   string `yaml:"order"`
		PerPage int    `yaml:"per_page"`
	} `yaml:"topics"`
	Ingest struct {
		Workers   int `yaml:"workers"`
		QueueSize int `yaml:"queue_size"`
	} `yaml:"ingest"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".skein", "config.yaml")
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}
	applyDefault(&out.Addr, DefaultAddr)
	applyDefault(&out.TopicsOrder, DefaultOrder)
	applyDefault(&out.TopicsPerPage, DefaultPerPage)
	applyDefault(&out.IngestWorkers, DefaultWorkers)

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}

	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.Addr, cfg.Addr, SourceConfig, path)
		apply(&out.TopicsOrder, cfg.Topics.Order, SourceConfig, path)
		apply(&out.TopicsPerPage, positiveInt(cfg.Topics.PerPage), SourceConfig, path)
		apply(&out.IngestWorkers, positiveInt(cfg.Ingest.Workers), SourceConfig, path)
		apply(&out.IngestQueueSize, positiveInt(cfg.Ingest.QueueSize), SourceConfig, path)
	}

	applyEnv(&out.DBPath, "SKEIN_DB")
	applyEnv(&out.DBPath, "SKEIN_DB_PATH")
	applyEnv(&out.Addr, "SKEIN_ADDR")
	applyEnv(&out.TopicsOrder, "SKEIN_TOPICS_ORDER")
	applyEnv(&out.TopicsPerPage, "SKEIN_TOPICS_PER_PAGE")
	applyEnv(&out.IngestWorkers, "SKEIN_INGEST_WORKERS")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.Addr, opts.CLIAddr, SourceCLI, "--addr")
	apply(&out.TopicsOrder, opts.CLIOrder, SourceCLI, "--order")

	if out.DBPath.Value != "" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	return out, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyDefault(dst *ResolvedValue, value string) {
	*dst = ResolvedValue{Value: value, Source: SourceDefault, From: "built-in default"}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func positiveInt(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
