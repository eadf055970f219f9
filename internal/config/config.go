// Package config loads optional YAML defaults for the commands.
//
// The file supplies defaults only: flags always win. Absence of a config
// file is not an error, so commands run with zero setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileName is the primary config file name.
const FileName = "icsv.yaml"

// FileNameAlt is the alternate config file name.
const FileNameAlt = "icsv.yml"

// Config holds the file-loadable defaults of the conversion pipeline.
// Every field has a matching command-line flag that overrides it.
type Config struct {
	// Delimiter forces the input field delimiter.
	Delimiter string `koanf:"delimiter"`

	// Encoding names the input charset for delimited text.
	Encoding string `koanf:"encoding"`

	// Nodata overrides the table-wide placeholder token. A pointer so an
	// explicitly configured empty token is distinguishable from "absent".
	Nodata *string `koanf:"nodata"`

	// AppProfile is the application_profile metadata value.
	AppProfile string `koanf:"application_profile"`

	// Storage defaults for ingestion.
	Store string `koanf:"store"`
	DSN   string `koanf:"dsn"`

	// Metrics defaults.
	Metrics     bool   `koanf:"metrics"`
	MetricsTags string `koanf:"metrics_tags"`

	// Logging defaults.
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

// Load reads a YAML config file. The empty path means "search": the working
// directory and its ancestors are walked for icsv.yaml/icsv.yml, and a zero
// Config is returned when nothing is found.
func Load(path string) (Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
		path = findConfigFile(wd)
		if path == "" {
			return Config{}, nil
		}
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// findConfigFile walks up from dir looking for a config file. Returns the
// empty string when the filesystem root is reached without a hit.
func findConfigFile(dir string) string {
	for {
		for _, name := range []string{FileName, FileNameAlt} {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
