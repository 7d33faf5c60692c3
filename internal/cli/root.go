// Package cli defines Cobra command definitions for the servicesaver CLI.
// This file contains the root command, its persistent flags and Execute.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/servicesaver/servicesaver/internal/cloud"
	"github.com/servicesaver/servicesaver/internal/log"
	"github.com/servicesaver/servicesaver/internal/push"
	"github.com/servicesaver/servicesaver/internal/tui"
	"github.com/servicesaver/servicesaver/internal/tui/app"
	"github.com/servicesaver/servicesaver/internal/tui/commands"
)

var (
	homeFlag string
	debug    bool
	version  = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "servicesaver",
	Short: "AI negotiation assistant for the services you pay for",
	Long: `ServiceSaver collects what you need in a chat, builds a negotiation
strategy, calls providers on your behalf and recommends the best deal.
Run without a subcommand to open the dashboard.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if !tui.IsTTY() {
		return tui.Run(nil)
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	e.logger.Info("app started", zap.String("event", log.EventAppStarted), zap.String("version", version))

	deps := app.Deps{
		Auth:   e.auth,
		Logger: e.logger,
		Sessions: func(uid string) (commands.SessionClient, error) {
			s, err := e.connect(ctx, uid)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}

	registrar, closePush := e.pushRegistrar(ctx)
	defer closePush()
	if registrar != nil {
		deps.Push = registrar
	}

	tuiApp := app.New(ctx, deps)
	runErr := tui.Run(tuiApp)
	if err := tuiApp.Close(); err != nil {
		e.logger.Warn("closing session", zap.Error(err))
	}
	return runErr
}

// pushRegistrar returns a registrar when a device key is configured. Topic
// management needs the service account, so a separate admin connection
// is opened for it.
func (e *env) pushRegistrar(ctx context.Context) (*push.Registrar, func()) {
	pc := e.cfg.Push
	if pc.DeviceKey == "" {
		return nil, func() {}
	}

	var subscriber push.TopicSubscriber
	closeFn := func() {}
	if e.cfg.Firebase.CredentialsFile != "" {
		admin, err := cloud.Connect(ctx, cloud.Options{
			ProjectID:       e.cfg.Firebase.ProjectID,
			CredentialsFile: e.cfg.Firebase.CredentialsFile,
		}, e.logger)
		if err != nil {
			e.logger.Warn("push: admin connection failed", zap.Error(err))
		} else {
			closeFn = func() { _ = admin.Close() }
			if admin.Messaging != nil {
				subscriber = admin.Messaging
			}
		}
	}
	return push.NewRegistrar(subscriber, pc.DeviceKey, pc.DeviceToken, e.logger), closeFn
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", "", "Config and cache directory (default $SERVICESAVER_HOME or ~/.servicesaver)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(configCmd)
}
