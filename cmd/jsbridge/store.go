package main

import (
	"os"

	"github.com/scriptable/jsbridge/internal/store"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "manage the module store",
}

var storePutCmd = &cobra.Command{
	Use:   "put <name> <file>",
	Short: "copy a file into the module store under name",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		return putModule(cfg.Store, args[0], args[1])
	},
}

func putModule(sc StoreConfig, name, file string) error {
	source, err := os.ReadFile(file) //nolint:gosec
	if err != nil {
		return err
	}
	s, err := store.Open(sc.Kind, sc.Path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Put(name, string(source))
}

func init() {
	storeCmd.AddCommand(storePutCmd)
	rootCmd.AddCommand(storeCmd)
}
