package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/catalog"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and embedded catalog version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("adaptiq", version)
		fmt.Println("catalog", catalog.Default().Version())
	},
}
