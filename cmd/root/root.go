package root

import (
	"github.com/spf13/cobra"

	"github.com/arcana-network/roastnode/cmd/start"
	"github.com/arcana-network/roastnode/cmd/version"
)

func GetRootCmd() *cobra.Command {

	var rootCmd = &cobra.Command{}
	rootCmd.AddCommand(start.GetCommand())
	rootCmd.AddCommand(version.GetCommand())
	return rootCmd
}
