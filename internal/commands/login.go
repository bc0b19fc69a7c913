package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/helmwright/helmwright/config"
	"github.com/helmwright/helmwright/tui/theme"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the `login` command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the API credential for the assistant",
		Long: `Prompts for your API token and stores it with owner-only permissions.
The token is read without echo; it can also be piped on stdin for
non-interactive use.`,
		Example: `  # Interactive prompt
  helmwright login

  # Non-interactive
  echo "$HELMWRIGHT_TOKEN" | helmwright login`,
		RunE: runLoginE,
	}
	return cmd
}

func runLoginE(cmd *cobra.Command, args []string) error {
	// Config is optional here: login may be the first thing a user runs
	cfg, _ := loadConfig(cmd)
	if cfg == nil {
		cfg = &config.Config{}
	}

	token, err := readToken()
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("empty token")
	}

	path := credentialPath(cfg)
	if err := saveCredential(path, token); err != nil {
		return err
	}

	fmt.Println(theme.RenderStatus("success", "Credential saved to "+path))
	return nil
}

func readToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print("API token: ")
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}

	// Piped input
	var token string
	if _, err := fmt.Fscanln(os.Stdin, &token); err != nil {
		return "", err
	}
	return strings.TrimSpace(token), nil
}
