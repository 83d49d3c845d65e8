package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "4.2.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("antigravity version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
