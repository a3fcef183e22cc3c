package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "Manage saved conversations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved conversations, most recently created first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				session, closeSession, err := openSession(cmd.Context(), loadConfig())
				if err != nil {
					return err
				}
				defer closeSession()

				active := session.Active().ID
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "\tID\tTITLE\tMESSAGES\tUPDATED")
				for _, conversation := range session.Conversations() {
					marker := ""
					if conversation.ID == active {
						marker = "*"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
						marker,
						conversation.ID,
						conversation.Title,
						len(conversation.Messages),
						conversation.UpdatedAt.Local().Format(time.DateTime),
					)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "delete [id...]",
			Short: "Delete conversations",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				session, closeSession, err := openSession(ctx, loadConfig())
				if err != nil {
					return err
				}
				defer closeSession()

				for _, id := range args {
					if err := session.DeleteConversation(ctx, id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				}
				return nil
			},
		},
	)

	return cmd
}
