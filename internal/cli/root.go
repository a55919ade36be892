// Package cli implements the postctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"postboard/internal/api"
	"postboard/internal/config"
	"postboard/internal/feed"
	"postboard/internal/models"
	"postboard/internal/observability"

	"github.com/spf13/cobra"
)

const defaultWidth = 80

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg   *config.Config
	store *CredentialStore

	credPath string
	apiURL   string
	apiKey   string
	width    int
	verbose  bool
}

// NewRootCmd builds a fresh postctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "postctl",
		Short: "Browse and manage social posts from the terminal",
		Long: `postctl talks to the same social API as the postboard web front end.
Log in once with "postctl login"; the credential is kept in
$HOME/.config/postboard/credentials.yml until you log out or it expires.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.credPath, "credentials", "", "credentials file (default is $HOME/.config/postboard/credentials.yml)")
	flags.StringVar(&a.apiURL, "api-url", "", "social API base URL (overrides SOCIAL_API_BASE_URL)")
	flags.StringVar(&a.apiKey, "api-key", "", "social API key (overrides SOCIAL_API_KEY)")
	flags.IntVar(&a.width, "width", defaultWidth, "output width in columns")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log upstream calls to stderr")

	root.AddCommand(
		newBrowseCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newTagsCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
	)
	return root
}

// Execute runs postctl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIBaseURL = a.apiURL
	}
	if a.apiKey != "" {
		cfg.APIKey = a.apiKey
	}
	a.cfg = cfg

	var logOut io.Writer = io.Discard
	if a.verbose {
		logOut = cmd.ErrOrStderr()
	}
	observability.ConfigureLogger(cfg.Env, logOut)

	path := a.credPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to locate home directory: %w", err)
		}
		path = filepath.Join(home, ".config", "postboard", "credentials.yml")
	}
	a.store = NewCredentialStore(path)
	return nil
}

func (a *app) client() *api.Client {
	return api.NewClient(a.cfg.APIBaseURL, a.cfg.APIKey, api.WithTimeout(a.cfg.APITimeout()))
}

// requireLogin returns the stored credential or an unauthorized error.
func (a *app) requireLogin() (*Credentials, error) {
	creds, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, models.NewUnauthorizedError(`You are not logged in. Run "postctl login" first.`)
	}
	return creds, nil
}

// controller wires a feed controller on v to the post list endpoint.
func (a *app) controller(v feed.View, token, tag string) *feed.Controller {
	client := a.client()
	fetch := feed.FetcherFunc(func(ctx context.Context, req feed.PageRequest) (*models.PostPage, error) {
		return client.ListPosts(ctx, token, api.ListParams{
			Limit:         req.Limit,
			Page:          req.Page,
			Tag:           req.Tag,
			IncludeAuthor: req.IncludeAuthor,
		})
	})
	p := feed.NewPipeline(fetch, feed.PipelineConfig{
		PageSize:      a.cfg.PageSize,
		Tag:           tag,
		IncludeAuthor: true,
		Cards:         feed.CardOptions{DateLayout: a.cfg.DateLayout},
	})
	return feed.NewController(p, v, a.cfg.MaxVisiblePages)
}
