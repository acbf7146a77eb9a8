// Init command for the sparrowctl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evertheylen/sparrow/pkg/sqlite"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and the model's tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entityTypes, err := loadResolvedModel()
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitUserError)
		}

		cfg, err := storageConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}

		m, err := sqlite.Open(cfg, logger, entityTypes...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}
		defer m.Close()

		if err := m.CreateAllTables(cmd.Context()); err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}

		fmt.Println("Database initialized successfully")
		fmt.Println("  database:", cfg.DSN)
		for _, t := range entityTypes {
			fmt.Println("  table:   ", t.TableName())
		}
		return nil
	},
}
