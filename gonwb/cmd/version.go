package cmd

import (
	"fmt"

	"github.com/nwb-archive/gonwb/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "prints version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gonwb %s (%s, %s, built by %s)\n",
			version.Version, version.ShortCommit(), version.Date, version.BuiltBy)
	},
}

func initVersion() {
}
