package circle

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <message...>",
		Short: "Post a message to the community chat",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := authedClient(cmd)
			if err != nil {
				return err
			}
			msg, err := c.Post(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted message #%d.\n", msg.ID)
			return nil
		},
	}
}

func newMessagesCmd() *cobra.Command {
	var tail int
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Print the chat history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := anonymousClient(cmd)
			msgs, err := c.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			if tail > 0 && len(msgs) > tail {
				msgs = msgs[len(msgs)-tail:]
			}
			for _, m := range msgs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s %s\n",
					m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Username, m.Body)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&tail, "tail", 0, "only print the last N messages")
	return cmd
}
