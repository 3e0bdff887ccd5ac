package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/lu-zhengda/mailboard/internal/app"
)

func newMarkReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-read <email-id>...",
		Short: "Mark emails as read",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			results := make([]jsonAction, 0, len(args))
			for _, id := range args {
				if err := e.emails.MarkAsRead(cmd.Context(), id); err != nil {
					return err
				}
				results = append(results, jsonAction{OK: true, Action: "mark-read", EmailID: id})
			}

			if jsonFlag {
				return printJSON(results)
			}
			printSuccess(fmt.Sprintf("Marked %d email(s) read", len(args)))
			return nil
		},
	}
}

func newStarCmd() *cobra.Command {
	return newToggleCmd("star", "Star or unstar an email", "starred", "unstarred",
		(*app.EmailService).ToggleStar,
		func(s *app.EmailService, ctx context.Context, id string) (bool, error) {
			em, err := s.GetEmailByID(ctx, id)
			if err != nil {
				return false, err
			}
			return em.IsStarred, nil
		})
}

func newImportantCmd() *cobra.Command {
	return newToggleCmd("important", "Mark or unmark an email as important", "marked important", "no longer important",
		(*app.EmailService).ToggleImportant,
		func(s *app.EmailService, ctx context.Context, id string) (bool, error) {
			em, err := s.GetEmailByID(ctx, id)
			if err != nil {
				return false, err
			}
			return em.IsImportant, nil
		})
}

// newToggleCmd builds a command that flips a flag and reports its new value.
func newToggleCmd(
	name, short, onMsg, offMsg string,
	toggle func(*app.EmailService, context.Context, string) error,
	state func(*app.EmailService, context.Context, string) (bool, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <email-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.requireSession(); err != nil {
				return err
			}

			if err := toggle(e.emails, cmd.Context(), id); err != nil {
				return err
			}
			on, err := state(e.emails, cmd.Context(), id)
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: name, EmailID: id, Value: &on})
			}
			msg := offMsg
			if on {
				msg = onMsg
			}
			printSuccess(fmt.Sprintf("Email %s %s", id, msg))
			return nil
		},
	}
}
