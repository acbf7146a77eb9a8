// Schema command for the sparrowctl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the CREATE TABLE statements for the model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entityTypes, err := loadResolvedModel()
		if err != nil {
			fmt.Fprintln(os.Stderr, "schema:", err)
			os.Exit(exitUserError)
		}

		for _, t := range entityTypes {
			fmt.Println(t.CreateTable().Text() + ";")
		}
		return nil
	},
}
