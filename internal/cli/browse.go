package cli

import (
	"context"

	"postboard/internal/models"
	"postboard/internal/tui"

	"github.com/spf13/cobra"
)

func newBrowseCmd(a *app) *cobra.Command {
	var (
		page int
		tag  string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse posts interactively",
		Long: `Open a full screen post browser.

Keys: ←/h and →/l page, ↑/↓ select, / search the page, enter opens a post,
esc goes back, q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := a.requireLogin()
			if err != nil {
				return err
			}

			v := tui.NewTextView()
			client := a.client()
			heading := ""
			if tag != "" {
				heading = "tag: " + tag
			}

			m := tui.New(tui.Options{
				Controller: a.controller(v, creds.Token, tag),
				View:       v,
				Detail: func(ctx context.Context, id int) (*models.Post, error) {
					return client.GetPost(ctx, creds.Token, id, true)
				},
				StartPage:  page,
				DateLayout: a.cfg.DateLayout,
				Heading:    heading,
				Context:    cmd.Context(),
			})
			return tui.Run(cmd.Context(), m)
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page to open on")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only fetch posts with this tag")
	return cmd
}
