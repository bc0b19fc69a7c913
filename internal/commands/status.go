package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/helmwright/helmwright/cli"
	"github.com/helmwright/helmwright/internal/api"
	"github.com/helmwright/helmwright/state"
	"github.com/helmwright/helmwright/tui/theme"
	"github.com/spf13/cobra"
)

type statusReport struct {
	ConfigOK        bool   `json:"configOk"`
	LoggedIn        bool   `json:"loggedIn"`
	APIReachable    bool   `json:"apiReachable"`
	APIError        string `json:"apiError,omitempty"`
	ActiveWorkspace string `json:"activeWorkspace,omitempty"`
	ChartDir        string `json:"chartDir,omitempty"`
	MappedCount     int    `json:"mappedWorkspaces"`
}

// NewStatusCmd creates the `status` command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, credential, and connectivity status",
		RunE:  runStatusE,
	}
}

func runStatusE(cmd *cobra.Command, args []string) error {
	var report statusReport

	cfg, cfgErr := loadConfig(cmd)
	report.ConfigOK = cfgErr == nil

	if cfg != nil {
		report.MappedCount = len(cfg.Workspaces)
	}

	token, credErr := loadCredential(credentialPath(cfg))
	report.LoggedIn = credErr == nil

	if report.ConfigOK && report.LoggedIn {
		client := api.NewWithToken(cfg.Server.APIURL, token)
		if _, err := client.Workspaces(cmd.Context()); err != nil {
			report.APIError = err.Error()
		} else {
			report.APIReachable = true
		}
	}

	if active, err := state.ActiveWorkspace(); err == nil && active != "" {
		report.ActiveWorkspace = active
		if cfg != nil {
			report.ChartDir = cfg.ChartDir(active)
		}
	}

	opts := cli.GetOptions(cmd)
	if opts.JSONOutput {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	printStatusLine("Configuration", report.ConfigOK, errString(cfgErr))
	printStatusLine("Credential", report.LoggedIn, errString(credErr))
	if report.ConfigOK && report.LoggedIn {
		printStatusLine("Assistant API", report.APIReachable, report.APIError)
	}

	t := theme.DefaultTheme
	if report.ActiveWorkspace != "" {
		fmt.Printf("%s %s", t.Bold.Render("Active workspace:"), report.ActiveWorkspace)
		if report.ChartDir != "" {
			fmt.Printf("  %s", t.Muted.Render(report.ChartDir))
		}
		fmt.Println()
	} else {
		fmt.Println(t.Muted.Render("No active workspace. Run 'helmwright workspaces select <id>'."))
	}
	fmt.Printf("%s %d\n", t.Bold.Render("Mapped workspaces:"), report.MappedCount)

	return nil
}

func printStatusLine(label string, ok bool, detail string) {
	if ok {
		fmt.Printf("%s %s\n", theme.RenderStatus("success", "✓"), label)
		return
	}
	line := fmt.Sprintf("%s %s", theme.RenderStatus("error", "✗"), label)
	if detail != "" {
		line += "  " + theme.DefaultTheme.Muted.Render(detail)
	}
	fmt.Println(line)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
