package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/scriptable/jsbridge"
	"github.com/scriptable/jsbridge/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// StoreConfig selects where modules are read from.
type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// Config is the jsbridge configuration file.
type Config struct {
	jsbridge.Options `yaml:",inline"`

	Store StoreConfig `yaml:"store"`
}

// DefaultConfig The default configuration
func DefaultConfig() Config {
	return Config{
		Options: jsbridge.DefaultOptions(),
		Store: StoreConfig{
			Kind: store.KindDir,
			Path: ".",
		},
	}
}

// readConfig reads the configuration at path on top of the defaults. An
// empty path or a missing file yields the defaults.
func readConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}
	file, err := expandPath(path)
	if err != nil {
		return c, err
	}
	b, err := os.ReadFile(file) //nolint:gosec
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

var configGenArg string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "jsbridge configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configGenArg != "" {
			return writeDiskConfig(configGenArg)
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		cmd.Print(string(out))
		return nil
	},
}

func writeDiskConfig(path string) error {
	file, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err = os.Stat(file); !errors.Is(err, os.ErrNotExist) {
		return errors.New("configuration file already exists")
	}
	if err = os.MkdirAll(filepath.Dir(file), os.ModePerm); err != nil {
		return err
	}
	bytes, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(file, bytes, 0o600)
}

// expandPath expands a leading "~" to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

func init() {
	configCmd.Flags().StringVarP(&configGenArg, "gen", "g", "", "generate default configuration file")
	rootCmd.AddCommand(configCmd)
}
