package cli

import (
	"fmt"
	"strings"

	"postboard/internal/feed"
	"postboard/internal/tags"

	"github.com/spf13/cobra"
)

func newTagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tags <title>",
		Short: "Print the tags a post with this title would get",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dict, err := tags.Load(a.cfg.TagDictionaryPath)
			if err != nil {
				return err
			}

			suggested := dict.Suggest(strings.Join(args, " "))
			if len(suggested) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), feed.NoTags)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(suggested, ", "))
			return nil
		},
	}
}
