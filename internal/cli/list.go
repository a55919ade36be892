package cli

import (
	"fmt"

	"postboard/internal/tui"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var (
		page   int
		search string
		tag    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of posts",
		Long: `Print one page of posts and the pagination status.

--search filters the fetched page by title; it never reaches the API.
Without --page a search starts over on page 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := a.requireLogin()
			if err != nil {
				return err
			}

			v := tui.NewTextView()
			ctrl := a.controller(v, creds.Token, tag)
			ctx := cmd.Context()

			var navErr error
			if search != "" && !cmd.Flags().Changed("page") {
				navErr = ctrl.Search(ctx, search)
			} else {
				ctrl.SetQuery(search)
				navErr = ctrl.Load(ctx, page)
			}

			fmt.Fprint(cmd.OutOrStdout(), v.Render(a.width, false))
			return navErr
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page to show")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show posts whose title contains this text")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only fetch posts with this tag")
	return cmd
}
