// Package circle implements the circle CLI: account management, message
// posting, the live watch mode and the interactive chat view, all
// against a circled daemon.
package circle

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wisdomcircle/circled/internal/client"
	"github.com/wisdomcircle/circled/internal/config"
	"github.com/wisdomcircle/circled/internal/models"
)

const defaultServer = "http://localhost:8486"

// Execute runs the CLI. Interrupt cancels the command context so the
// long-running commands (watch, chat) shut down cleanly.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "circle",
		Short:         "Community chat and profiles from the terminal",
		Long:          "circle talks to a circled daemon: post and follow chat messages, browse member profiles, and get notified when someone mentions you.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().String("server", defaultServer, "circled server URL")
	cmd.PersistentFlags().String("config-dir", defaultConfigDir(), "directory for CLI state")

	cmd.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newPostCmd(),
		newMessagesCmd(),
		newProfilesCmd(),
		newProfileCmd(),
		newWatchCmd(),
		newChatCmd(),
	)

	return cmd
}

// defaultNotifyIcon reads the shared daemon config for a notification
// icon so the CLI and web surface show the same one.
func defaultNotifyIcon() string {
	cfg, err := config.LoadDefault()
	if err != nil {
		return ""
	}
	return cfg.Notify.IconURL
}

// defaultNotifyPermission mirrors the configured notification permission
// state. Anything but an explicit grant suppresses notifications.
func defaultNotifyPermission() models.Permission {
	cfg, err := config.LoadDefault()
	if err != nil {
		return models.PermissionDefault
	}
	return models.Permission(cfg.Notify.Permission)
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".circle"
	}
	return filepath.Join(home, ".config", "circle")
}

func configDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("config-dir")
	return dir
}

// anonymousClient builds a client without credentials.
func anonymousClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	return client.New(server, "", zerolog.Nop())
}

// authedClient builds a client from the saved login. The saved server
// wins over the flag default so sessions stick to the daemon they were
// opened against, but an explicit --server overrides it.
func authedClient(cmd *cobra.Command) (*client.Client, client.Credentials, error) {
	creds, err := client.LoadCredentials(configDir(cmd))
	if err != nil {
		return nil, client.Credentials{}, err
	}
	server := creds.BaseURL
	if cmd.Flags().Changed("server") {
		server, _ = cmd.Flags().GetString("server")
	}
	return client.New(server, creds.Token, zerolog.Nop()), creds, nil
}
