package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"parler/pkg/parler"
)

type callFunc func(ctx context.Context, client *parler.Client, args []string) (map[string]interface{}, error)

type pageFunc func(ctx context.Context, client *parler.Client, args []string, page parler.Page) (map[string]interface{}, error)

// newCallCommand builds a command that makes one request and prints the result.
func newCallCommand(cmd *cobra.Command, call callFunc) *cobra.Command {
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient(cmd)
		if err != nil {
			return err
		}
		ctx, stop := commandContext(cmd)
		defer stop()

		payload, err := call(ctx, client, args)
		if err != nil {
			return err
		}
		return console.JSON(payload)
	}
	return cmd
}

// newListingCommand builds a paginated command. key picks the checkpoint
// key from the arguments and may be nil for the session's own listings.
func newListingCommand(cmd *cobra.Command, key func(args []string) string, fetch pageFunc) *cobra.Command {
	var opts pageOptions

	cmd.Flags().IntVarP(&opts.limit, "limit", "l", parler.DefaultLimit, "items per page")
	cmd.Flags().StringVar(&opts.cursor, "cursor", "", "start from this startkey")
	cmd.Flags().IntVarP(&opts.pages, "pages", "p", 1, "pages to fetch, 0 for all")
	cmd.Flags().BoolVarP(&opts.resume, "resume", "r", false, "continue from the saved cursor")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newAPIClient(cmd)
		if err != nil {
			return err
		}
		ctx, stop := commandContext(cmd)
		defer stop()

		store := openCheckpoints(cfg)
		defer store.Close()

		var k string
		if key != nil {
			k = key(args)
		}
		p := &pager{store: store, term: console}
		return p.run(ctx, cmd.Name(), k, opts, func(ctx context.Context, page parler.Page) (map[string]interface{}, error) {
			return fetch(ctx, client, args, page)
		})
	}
	return cmd
}

// commandContext is cancelled on interrupt and serves metrics when asked.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	startMetrics(ctx, metricsAddr)
	return ctx, stop
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

var profileCmd = newCallCommand(&cobra.Command{
	Use:   "profile [username]",
	Short: "Show a profile",
	Long:  `Show the profile of username, or of the session's own account when omitted.`,
	Args:  cobra.MaximumNArgs(1),
}, func(ctx context.Context, c *parler.Client, args []string) (map[string]interface{}, error) {
	return c.Profile(ctx, firstArg(args))
})

var hashtagsCmd = newCallCommand(&cobra.Command{
	Use:   "hashtags <search>",
	Short: "Search hashtags",
	Args:  cobra.ExactArgs(1),
}, func(ctx context.Context, c *parler.Client, args []string) (map[string]interface{}, error) {
	return c.Hashtags(ctx, args[0])
})

var feedCmd = newListingCommand(&cobra.Command{
	Use:   "feed",
	Short: "Read the session's home feed",
	Args:  cobra.NoArgs,
}, nil, func(ctx context.Context, c *parler.Client, _ []string, page parler.Page) (map[string]interface{}, error) {
	return c.Feed(ctx, page)
})

var createdCmd = newListingCommand(&cobra.Command{
	Use:   "created <post|comment> <username>",
	Short: "List posts or comments created by a user",
	Example: `  parler created post alice --pages 0
  parler created comment alice --resume`,
	Args: cobra.ExactArgs(2),
}, func(args []string) string {
	return strings.Join(args, "/")
}, func(ctx context.Context, c *parler.Client, args []string, page parler.Page) (map[string]interface{}, error) {
	return c.CreatedItems(ctx, args[0], args[1], page)
})

var deleteCmd = newCallCommand(&cobra.Command{
	Use:   "delete <post|comment|echo> <id>",
	Short: "Delete one of the session's posts, echoes or comments",
	Long: `Delete an item owned by the session. Echoes are deleted through the
post endpoint.`,
	Args: cobra.ExactArgs(2),
}, func(ctx context.Context, c *parler.Client, args []string) (map[string]interface{}, error) {
	return c.DeleteItem(ctx, args[0], args[1])
})

var notificationsCmd = newListingCommand(&cobra.Command{
	Use:   "notifications",
	Short: "List the session's notifications",
	Args:  cobra.NoArgs,
}, nil, func(ctx context.Context, c *parler.Client, _ []string, page parler.Page) (map[string]interface{}, error) {
	return c.Notifications(ctx, page)
})

var discoverCmd = newListingCommand(&cobra.Command{
	Use:   "discover",
	Short: "Read the discover feed",
	Args:  cobra.NoArgs,
}, nil, func(ctx context.Context, c *parler.Client, _ []string, page parler.Page) (map[string]interface{}, error) {
	return c.DiscoverFeed(ctx, page)
})

var hashtagFeedCmd = newListingCommand(&cobra.Command{
	Use:   "hashtag-feed <tag>",
	Short: "Read posts tagged with a hashtag",
	Args:  cobra.ExactArgs(1),
}, firstArg, func(ctx context.Context, c *parler.Client, args []string, page parler.Page) (map[string]interface{}, error) {
	return c.HashtagsFeed(ctx, args[0], page)
})

var userFeedCmd = newListingCommand(&cobra.Command{
	Use:   "user-feed <creator-id>",
	Short: "Read the posts of a user by creator id",
	Args:  cobra.ExactArgs(1),
}, firstArg, func(ctx context.Context, c *parler.Client, args []string, page parler.Page) (map[string]interface{}, error) {
	return c.UserFeed(ctx, args[0], page)
})

var usersCmd = newListingCommand(&cobra.Command{
	Use:   "users <search>",
	Short: "Search users",
	Args:  cobra.ExactArgs(1),
}, firstArg, func(ctx context.Context, c *parler.Client, args []string, page parler.Page) (map[string]interface{}, error) {
	return c.Users(ctx, args[0], page)
})

var followCmd = newCallCommand(&cobra.Command{
	Use:   "follow <username>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
}, func(ctx context.Context, c *parler.Client, args []string) (map[string]interface{}, error) {
	return c.FollowUser(ctx, args[0])
})

var followersCmd = newListingCommand(&cobra.Command{
	Use:   "followers <creator-id>",
	Short: "List the followers of a user by creator id",
	Args:  cobra.ExactArgs(1),
}, firstArg, func(ctx context.Context, c *parler.Client, args []string, page parler.Page) (map[string]interface{}, error) {
	return c.Followers(ctx, args[0], page)
})

func init() {
	rootCmd.AddCommand(
		profileCmd,
		hashtagsCmd,
		feedCmd,
		createdCmd,
		deleteCmd,
		notificationsCmd,
		discoverCmd,
		hashtagFeedCmd,
		userFeedCmd,
		usersCmd,
		followCmd,
		followersCmd,
	)
}
