// terminal.go implements "servicesaver terminal-setup".
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/servicesaver/servicesaver/internal/config"
	"github.com/servicesaver/servicesaver/internal/tui/terminal"
)

var terminalCmd = &cobra.Command{
	Use:   "terminal-setup",
	Short: "Make Shift+Enter insert a newline in the chat composer",
	Long: `Add a Shift+Enter keybinding to the terminal's config that sends the
same sequence as Alt+Enter. Supports VS Code, Cursor, Warp and Alacritty.`,
	RunE: runTerminalSetup,
}

var terminalFlag string

func init() {
	terminalCmd.Flags().StringVar(&terminalFlag, "terminal", "", "vscode, warp, alacritty or apple (default: detected)")
	rootCmd.AddCommand(terminalCmd)
}

func runTerminalSetup(cmd *cobra.Command, args []string) error {
	home, err := config.Home(homeFlag)
	if err != nil {
		return err
	}

	kind := terminal.Kind(terminalFlag)
	if kind == terminal.KindUnknown {
		kind = terminal.Detect(os.Getenv)
	}

	c, err := terminal.NewConfigurator()
	if err != nil {
		return err
	}
	res, err := c.Setup(kind)
	if err != nil {
		return fmt.Errorf("configuring terminal: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Message)
	if res.ConfigPath != "" {
		fmt.Fprintf(out, "Config: %s\n", res.ConfigPath)
	}
	if res.NeedsRestart {
		fmt.Fprintln(out, "Restart the terminal for the change to take effect.")
	}

	if res.Configured {
		return terminal.SaveState(home, &terminal.State{Completed: true, Kind: kind})
	}
	return nil
}
