// Drop command for the sparrowctl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evertheylen/sparrow/pkg/sqlite"
)

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the model's tables from the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entityTypes, err := loadResolvedModel()
		if err != nil {
			fmt.Fprintln(os.Stderr, "drop:", err)
			os.Exit(exitUserError)
		}

		cfg, err := storageConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, "drop:", err)
			os.Exit(exitSysError)
		}

		m, err := sqlite.Open(cfg, logger, entityTypes...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "drop:", err)
			os.Exit(exitSysError)
		}
		defer m.Close()

		if err := m.DropAllTables(cmd.Context()); err != nil {
			fmt.Fprintln(os.Stderr, "drop:", err)
			os.Exit(exitSysError)
		}

		fmt.Println("Tables dropped successfully")
		return nil
	},
}
