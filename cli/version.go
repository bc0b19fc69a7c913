package cli

import (
	"fmt"

	"github.com/helmwright/helmwright/version"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the standard version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the helmwright version",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.GetInfo()
			fmt.Printf("helmwright %s\n", info.Version)
			fmt.Printf("  Commit:    %s\n", info.Commit)
			fmt.Printf("  Branch:    %s\n", info.Branch)
			fmt.Printf("  Built:     %s\n", info.BuildDate)
		},
	}
}
