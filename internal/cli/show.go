package cli

import (
	"fmt"
	"strconv"

	"postboard/internal/models"
	"postboard/internal/tui"
	"postboard/internal/view"

	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a single post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return models.NewValidationError(fmt.Sprintf("invalid post id %q", args[0]))
			}

			creds, err := a.requireLogin()
			if err != nil {
				return err
			}

			post, err := a.client().GetPost(cmd.Context(), creds.Token, id, true)
			if err != nil {
				return fmt.Errorf("error loading post: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderDetail(view.BuildDetail(*post, a.cfg.DateLayout), a.width))
			return nil
		},
	}
}
