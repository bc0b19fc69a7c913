package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/helmwright/helmwright/errors"
	"github.com/helmwright/helmwright/internal/api"
	"github.com/helmwright/helmwright/internal/engine"
	"github.com/helmwright/helmwright/internal/notify"
	"github.com/helmwright/helmwright/state"
	"github.com/helmwright/helmwright/tui"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the `watch` command, the main reconciler session.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the assistant and reconcile chart changes",
		Long: `Opens the push connection for the active workspace and keeps local
chart files in sync with the assistant: chat updates and plans stream
into the dashboard, generated file content is held for diff review, and
accepted changes are written into the mapped chart directory.`,
		Example: `  # Interactive dashboard for the active workspace
  helmwright watch

  # Reconcile without a UI (logs only), e.g. under a process manager
  helmwright watch --headless

  # Watch a specific workspace
  helmwright watch -w ws_1a2b3c`,
		RunE: runWatchE,
	}

	cmd.Flags().Bool("headless", false, "Run without the interactive dashboard")
	cmd.Flags().StringP("workspace", "w", "", "Workspace id to watch (default: the selected active workspace)")

	return cmd
}

func runWatchE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	token, err := loadCredential(credentialPath(cfg))
	if err != nil {
		return err
	}
	if cfg.Server == nil || cfg.Server.PushURL == "" {
		return errors.ConfigInvalid("server.push_url is required for watch")
	}

	workspaceID, _ := cmd.Flags().GetString("workspace")
	if workspaceID == "" {
		workspaceID, _ = state.ActiveWorkspace()
	}
	if workspaceID == "" {
		return errors.New(errors.ErrCodeNoActiveWorkspace,
			"no active workspace, run 'helmwright workspaces select <id>' or pass --workspace")
	}
	if cfg.ChartDir(workspaceID) == "" {
		return errors.WorkspaceNotMapped(workspaceID)
	}

	headless, _ := cmd.Flags().GetBool("headless")
	apiClient := api.NewWithToken(cfg.Server.APIURL, token)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if headless {
		eng := engine.New(cfg, apiClient, notify.NewLogNotifier())
		if err := eng.SetActiveWorkspace(workspaceID); err != nil {
			return err
		}
		fmt.Printf("Watching workspace %s (headless). Ctrl-C to stop.\n", workspaceID)
		return eng.Start(ctx)
	}

	notifier := notify.NewChannelNotifier(100)
	eng := engine.New(cfg, apiClient, notify.MultiNotifier{notifier, notify.NewLogNotifier()})
	if err := eng.SetActiveWorkspace(workspaceID); err != nil {
		return err
	}

	return tui.Run(ctx, eng, notifier)
}
