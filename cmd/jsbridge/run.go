package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/scriptable/jsbridge"
	"github.com/scriptable/jsbridge/internal/store"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run <module> <entry> [args...]",
	Short: "call the entry function of a module",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runModule(cfg, args[0], args[1], parseArgs(args[2:]))
		if err != nil {
			return err
		}
		return outputJSON(cmd, res)
	},
}

// runModule creates a runtime for module, calls entry once and destroys
// the runtime. Script callbacks are logged and echoed back.
func runModule(c Config, module, entry string, args []any) (jsbridge.Result, error) {
	src, err := store.Open(c.Store.Kind, c.Store.Path)
	if err != nil {
		return jsbridge.Result{Status: -1}, err
	}
	defer src.Close()

	opts := c.Options
	opts.Loader = src
	b := jsbridge.New(opts)
	defer b.Close()

	rt, err := b.CreateRuntime(module, entry)
	if err != nil {
		return jsbridge.Result{Status: -1}, err
	}
	defer b.DestroyRuntime(rt)

	res, err := b.Invoke(rt, jsbridge.HostFunc(echoHost), args...)
	var se *jsbridge.ScriptError
	if errors.As(err, &se) {
		return res, fmt.Errorf("%w\n%s", err, jsbridge.FormatException(b.LastException(rt)))
	}
	return res, err
}

func echoHost(args []any) []any {
	jsbridge.Logger().Info("callback", zap.Any("args", args))
	return args
}

// parseArgs turns command line arguments into script values: numbers,
// true/false and null are converted, everything else stays a string.
func parseArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch a {
		case "null":
			out[i] = nil
			continue
		case "true", "false":
			out[i] = cast.ToBool(a)
			continue
		}
		if n, err := strconv.ParseInt(a, 10, 64); err == nil {
			out[i] = n
			continue
		}
		if f, err := cast.ToFloat64E(a); err == nil {
			out[i] = f
			continue
		}
		out[i] = a
	}
	return out
}

func outputJSON(cmd *cobra.Command, res jsbridge.Result) error {
	bytes, err := json.MarshalIndent(map[string]any{
		"status": res.Status,
		"values": res.Values,
	}, "", "\t")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bytes))
	return err
}

func init() {
	rootCmd.AddCommand(runCmd)
}
