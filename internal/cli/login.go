// login.go implements the "servicesaver login" and "logout" commands.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/servicesaver/servicesaver/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long: `Sign in to ServiceSaver and store the credentials under the home
directory. Use --register to create a new account instead.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored sign-in",
	RunE:  runLogout,
}

var (
	emailFlag    string
	registerFlag bool
)

func init() {
	loginCmd.Flags().StringVar(&emailFlag, "email", "", "Account email (prompted when omitted)")
	loginCmd.Flags().BoolVar(&registerFlag, "register", false, "Create a new account")
}

func runLogin(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	email := strings.TrimSpace(emailFlag)
	if email == "" {
		if email, err = prompt(in, out, "Email: "); err != nil {
			return err
		}
	}
	password, err := readSecret(in, out, "Password: ")
	if err != nil {
		return err
	}

	var creds *auth.Credentials
	if registerFlag {
		confirm, err := readSecret(in, out, "Confirm password: ")
		if err != nil {
			return err
		}
		creds, err = e.auth.Register(cmd.Context(), email, password, confirm)
		if err != nil {
			return errors.New(auth.Message(err))
		}
	} else {
		creds, err = e.auth.SignIn(cmd.Context(), email, password)
		if err != nil {
			return errors.New(auth.Message(err))
		}
	}

	fmt.Fprintf(out, "Signed in as %s\n", creds.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.auth.SignOut(); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads a password without echo when stdin is a terminal.
func readSecret(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(in, out, label)
	}
	fmt.Fprint(out, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
