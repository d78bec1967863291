package main

import (
	"fmt"

	"github.com/scriptable/jsbridge"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <command>",
	Short: "run a command without arguments and print its exit status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), jsbridge.ExecCommand(args))
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
