package circle

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wisdomcircle/circled/internal/logging"
	"github.com/wisdomcircle/circled/internal/models"
	"github.com/wisdomcircle/circled/internal/notify"
	"github.com/wisdomcircle/circled/internal/session"
)

func newWatchCmd() *cobra.Command {
	var silent bool
	var icon string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the chat and raise desktop notifications",
		Long:  "watch follows the live feed without opening the chat view. New messages are printed and raised as desktop notifications; your own messages only notify when they mention you.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, creds, err := authedClient(cmd)
			if err != nil {
				return err
			}

			permission := models.PermissionGranted
			if silent {
				permission = models.PermissionDenied
			}
			if icon == "" {
				icon = defaultNotifyIcon()
			}

			out := cmd.OutOrStdout()
			sess := session.New(session.Options{
				Kind:       session.KindShell,
				Viewer:     models.Viewer{Username: creds.Username},
				Permission: permission,
				Stream:     c,
				Poster:     c,
				Notifier:   notify.NewDesktop(logging.Component("notify"), icon),
				OnMessage: func(m models.Message) {
					fmt.Fprintf(out, "%s  %-16s %s\n",
						m.CreatedAt.Local().Format("15:04"), m.Username, m.Body)
				},
				Logger: logging.WithUser(creds.Username),
			})
			if err := sess.Start(cmd.Context()); err != nil {
				return err
			}
			defer sess.Close()

			fmt.Fprintf(out, "Watching as %s, %d messages so far. Ctrl-C to stop.\n",
				creds.Username, len(sess.Messages()))

			<-cmd.Context().Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&silent, "silent", false, "print messages without desktop notifications")
	cmd.Flags().StringVar(&icon, "icon", "", "notification icon path")
	return cmd
}
