// Package commands implements the helmwright CLI commands.
package commands

import (
	"github.com/helmwright/helmwright/cli"
	"github.com/helmwright/helmwright/config"
	"github.com/helmwright/helmwright/errors"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the helmwright command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"helmwright",
		"Terminal client for the hosted Helm chart authoring assistant",
	)
	// The error handler in main renders errors with hints
	root.SilenceErrors = true
	root.SilenceUsage = true

	root.AddCommand(NewWatchCmd())
	root.AddCommand(NewLoginCmd())
	root.AddCommand(NewWorkspacesCmd())
	root.AddCommand(NewStatusCmd())
	root.AddCommand(NewLogsCmd())
	root.AddCommand(cli.NewVersionCommand())

	cli.ApplyStyledHelpRecursive(root)

	return root
}

// loadConfig resolves and loads helmwright.yml for a command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := cli.GetOptions(cmd)
	path, err := cli.InitConfig(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.ConfigNotFound("helmwright.yml")
	}
	return config.Load(path)
}
