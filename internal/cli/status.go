// status.go implements the one-shot session commands: status, send and reset.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/servicesaver/servicesaver/internal/category"
	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current negotiation",
	Long: `Read the session and its messages once and print them as plain text:
status, the screen the dashboard would open on, the last reply and each
provider's call state.`,
	RunE: runStatus,
}

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a chat message",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the session and start a new negotiation",
	RunE:  runReset,
}

var categoryFlag string

func init() {
	sendCmd.Flags().StringVar(&categoryFlag, "category", "", "Category key or label (default: derived from the message)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(_ *env, s *userSession) error {
		return tui.NewFallbackRunner(s, cmd.OutOrStdout()).Run(cmd.Context())
	})
}

func runSend(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	cat := categoryKey(categoryFlag, text)

	return withSession(cmd.Context(), func(_ *env, s *userSession) error {
		if err := s.AppendMessage(cmd.Context(), text, cat); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sent (%s).\n", cat)
		return nil
	})
}

// categoryKey resolves the --category flag, which may be a key or a label.
func categoryKey(flag, text string) string {
	flag = strings.TrimSpace(flag)
	if flag == "" {
		return category.KeyFor(text)
	}
	for _, c := range category.All {
		if c.Key == flag {
			return c.Key
		}
	}
	return category.KeyFor(flag)
}

func runReset(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(_ *env, s *userSession) error {
		err := s.Reset(cmd.Context())
		var rerr *session.ResetError
		if errors.As(err, &rerr) && rerr.Stage == session.StageReinit {
			return fmt.Errorf("session deleted but the backend did not start a new one: %w", rerr.Err)
		}
		if err != nil {
			return fmt.Errorf("resetting session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Session reset. Describe what you need with `servicesaver send`.")
		return nil
	})
}
