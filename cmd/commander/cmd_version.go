package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/commander/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("commander dev build (use 'make build' for version info)")
			return
		}
		fmt.Println(version.Info())
	},
}
