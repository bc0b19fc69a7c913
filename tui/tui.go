// Package tui implements the interactive watch dashboard: chat
// transcript, plan list, pending-change review, and connection status.
package tui

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/helmwright/helmwright/internal/artifact"
	"github.com/helmwright/helmwright/internal/notify"
	"github.com/helmwright/helmwright/internal/state"
	"github.com/muesli/termenv"
)

// Engine is the slice of the reconciler the dashboard drives. All
// mutations go back through it; the dashboard only reads state.
type Engine interface {
	Store() *state.Store
	Pending() *artifact.Store
	Start(ctx context.Context) error
	SubmitPrompt(ctx context.Context, prompt string) error
	AcceptPending(ctx context.Context, filePath string, force bool) error
	RejectPending(filePath string) error
}

// InitializeTUI prepares the terminal environment. CLICOLOR_FORCE and
// COLORTERM force the color profile in non-interactive environments
// (CI, tests); in a normal terminal this is a no-op.
func InitializeTUI() {
	if os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor" {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// Run starts the engine and the dashboard, and blocks until the user
// quits or the context is cancelled. The engine's terminal error (for
// example an exhausted reconnect budget) is returned after the UI exits.
func Run(ctx context.Context, eng Engine, notifier *notify.ChannelNotifier) error {
	InitializeTUI()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engineErr := make(chan error, 1)
	go func() {
		engineErr <- eng.Start(ctx)
	}()

	m := NewDashboard(eng, notifier.C())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		if err := <-engineErr; err != nil {
			p.Send(engineStoppedMsg{err: err})
		}
	}()

	finalModel, err := p.Run()
	cancel()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return err
	}
	if d, ok := finalModel.(*Dashboard); ok {
		return d.finalErr
	}
	return nil
}
