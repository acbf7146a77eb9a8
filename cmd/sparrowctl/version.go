// Version command for the sparrowctl CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evertheylen/sparrow/pkg/sparrow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sparrowctl version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("sparrowctl", sparrow.Version)
	},
}
