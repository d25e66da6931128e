package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "worstcrm", SilenceUsage: true}

	root.AddCommand(serveCMD(), migrateCMD(), userCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
