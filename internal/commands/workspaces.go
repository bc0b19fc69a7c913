package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/helmwright/helmwright/cli"
	"github.com/helmwright/helmwright/errors"
	"github.com/helmwright/helmwright/internal/api"
	"github.com/helmwright/helmwright/state"
	"github.com/helmwright/helmwright/tui/theme"
	"github.com/spf13/cobra"
)

// NewWorkspacesCmd creates the `workspaces` command group.
func NewWorkspacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "List assistant workspaces and select the active one",
		RunE:  runWorkspacesListE,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "select <workspace-id>",
		Short: "Set the active workspace for this project",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkspacesSelectE,
	})

	return cmd
}

func runWorkspacesListE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	token, err := loadCredential(credentialPath(cfg))
	if err != nil {
		return err
	}

	client := api.NewWithToken(cfg.Server.APIURL, token)
	resp, err := client.Workspaces(cmd.Context())
	if err != nil {
		return err
	}

	active, _ := state.ActiveWorkspace()

	opts := cli.GetOptions(cmd)
	if opts.JSONOutput {
		return json.NewEncoder(os.Stdout).Encode(resp.Workspaces)
	}

	t := theme.DefaultTheme
	for _, ws := range resp.Workspaces {
		marker := "  "
		if ws.ID == active {
			marker = t.Success.Render("* ")
		}
		line := fmt.Sprintf("%s%s  %s", marker, t.Bold.Render(ws.ID), ws.Name)
		if dir := cfg.ChartDir(ws.ID); dir != "" {
			line += "  " + t.Muted.Render(dir)
		} else {
			line += "  " + t.Warning.Render("(no chart_dir mapping)")
		}
		fmt.Println(line)
	}
	return nil
}

func runWorkspacesSelectE(cmd *cobra.Command, args []string) error {
	workspaceID := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.ChartDir(workspaceID) == "" {
		return errors.WorkspaceNotMapped(workspaceID)
	}

	if err := state.SetActiveWorkspace(workspaceID); err != nil {
		return err
	}

	fmt.Println(theme.RenderStatus("success", "Active workspace: "+workspaceID))
	return nil
}
