// Package main provides the sparrowctl CLI for managing sparrow entity
// databases: printing schema DDL, creating tables and dropping them.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
