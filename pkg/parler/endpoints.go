package parler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultLimit is the page size used when Page.Limit is not positive.
const DefaultLimit = 10

// Item types accepted by CreatedItems and DeleteItem.
const (
	ItemPost    = "post"
	ItemComment = "comment"
	ItemEcho    = "echo"
)

// Page selects one page of a paginated listing.
type Page struct {
	// Limit is the number of items requested
	Limit int
	// Cursor is the startkey returned by the previous page; empty for the first page
	Cursor string
}

func (p Page) params() query {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := query{{"limit", strconv.Itoa(limit)}}
	if p.Cursor != "" {
		q = append(q, param{"startkey", p.Cursor})
	}
	return q
}

type param struct {
	key   string
	value string
}

// query keeps parameters in insertion order on the wire.
type query []param

func (q query) encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

func (c *Client) get(ctx context.Context, path string, q query) (map[string]interface{}, error) {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: q})
}

// Profile fetches the profile of username, or of the session owner when
// username is empty.
func (c *Client) Profile(ctx context.Context, username string) (map[string]interface{}, error) {
	var q query
	if username != "" {
		q = query{{"username", username}}
	}
	return c.get(ctx, "/profile", q)
}

// Hashtags searches hashtags matching search.
func (c *Client) Hashtags(ctx context.Context, search string) (map[string]interface{}, error) {
	return c.get(ctx, "/hashtag", query{{"search", search}})
}

// Feed fetches the session owner's home feed.
func (c *Client) Feed(ctx context.Context, page Page) (map[string]interface{}, error) {
	return c.get(ctx, "/feed", page.params())
}

// CreatedItems lists posts or comments created by username.
func (c *Client) CreatedItems(ctx context.Context, itemType, username string, page Page) (map[string]interface{}, error) {
	if itemType != ItemPost && itemType != ItemComment {
		return nil, fmt.Errorf("unsupported item type %q: want post or comment", itemType)
	}
	q := append(query{{"username", username}}, page.params()...)
	return c.get(ctx, "/"+itemType+"/creator", q)
}

// DeleteItem deletes the post or comment with the given id. Echoes are
// deleted as posts.
func (c *Client) DeleteItem(ctx context.Context, itemType, id string) (map[string]interface{}, error) {
	itemType, err := deletableItemType(itemType)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/" + itemType + "/delete",
		query:  query{{"id", id}},
	})
}

// Notifications lists the session owner's notifications.
func (c *Client) Notifications(ctx context.Context, page Page) (map[string]interface{}, error) {
	return c.get(ctx, "/notification", page.params())
}

// DiscoverFeed lists posts from the discover section.
func (c *Client) DiscoverFeed(ctx context.Context, page Page) (map[string]interface{}, error) {
	return c.get(ctx, "/discover/posts", page.params())
}

// HashtagsFeed lists posts tagged with tag.
func (c *Client) HashtagsFeed(ctx context.Context, tag string, page Page) (map[string]interface{}, error) {
	q := append(query{{"tag", tag}}, page.params()...)
	return c.get(ctx, "/post/hashtag", q)
}

// UserFeed lists posts by the user with the given creator id.
func (c *Client) UserFeed(ctx context.Context, creatorID string, page Page) (map[string]interface{}, error) {
	q := append(query{{"id", creatorID}}, page.params()...)
	return c.get(ctx, "/post/creator", q)
}

// Users searches users matching search.
func (c *Client) Users(ctx context.Context, search string, page Page) (map[string]interface{}, error) {
	q := append(query{{"search", search}}, page.params()...)
	return c.get(ctx, "/users", q)
}

// FollowUser follows username.
func (c *Client) FollowUser(ctx context.Context, username string) (map[string]interface{}, error) {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/follow",
		query:  query{{"username", username}},
		headers: map[string]string{
			"Accept":       "application/json, text/plain, */*",
			"Content-Type": "application/json",
		},
		body: map[string]string{"username": username},
	})
}

// Followers lists the followers of the user with the given creator id.
func (c *Client) Followers(ctx context.Context, creatorID string, page Page) (map[string]interface{}, error) {
	q := append(query{{"id", creatorID}}, page.params()...)
	return c.get(ctx, "/follow/followers", q)
}

func deletableItemType(itemType string) (string, error) {
	switch itemType {
	case ItemPost, ItemEcho:
		return ItemPost, nil
	case ItemComment:
		return ItemComment, nil
	default:
		return "", fmt.Errorf("unsupported item type %q: want post, comment or echo", itemType)
	}
}

// NextCursor reads the pagination markers of a listing response. more is
// false once the API flags the page as the last one or omits a cursor.
func NextCursor(payload map[string]interface{}) (cursor string, more bool) {
	if last, ok := payload["last"].(bool); ok && last {
		return "", false
	}
	switch next := payload["next"].(type) {
	case string:
		return next, next != ""
	case float64:
		return strconv.FormatFloat(next, 'f', -1, 64), true
	default:
		return "", false
	}
}
