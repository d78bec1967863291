package main

import (
	"github.com/scriptable/jsbridge"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configArg      string
	engineArg      string
	storeArg       string
	storePathArg   string
	memoryLimitArg int
	debugArg       bool
)

// cfg is the effective configuration, filled before any subcommand runs.
var cfg Config

var rootCmd = &cobra.Command{
	Use:          "jsbridge",
	Short:        "jsbridge runs JavaScript module entry points from Go.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = readConfig(configArg)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)

		log, err := newLogger(debugArg)
		if err != nil {
			return err
		}
		jsbridge.SetLogger(log)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = jsbridge.Logger().Sync()
	},
}

// applyFlags overrides configuration values with flags set on the
// command line.
func applyFlags(cmd *cobra.Command, c *Config) {
	flags := cmd.Flags()
	if flags.Changed("engine") {
		c.Engine = engineArg
	}
	if flags.Changed("store") {
		c.Store.Kind = storeArg
	}
	if flags.Changed("store-path") {
		c.Store.Path = storePathArg
	}
	if flags.Changed("memory-limit") {
		c.MemoryLimitMB = memoryLimitArg
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	lc := zap.NewProductionConfig()
	lc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return lc.Build()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configArg, "config", "", "config file path (YAML)")
	pf.StringVarP(&engineArg, "engine", "e", jsbridge.EngineQuickJS, "script engine")
	pf.StringVar(&storeArg, "store", "dir", "module store kind: dir, bolt or sqlite")
	pf.StringVar(&storePathArg, "store-path", ".", "module store location")
	pf.IntVar(&memoryLimitArg, "memory-limit", 0, "per-runtime memory limit in MB, 0 for none")
	pf.BoolVarP(&debugArg, "debug", "d", false, "output the debug log")
}
