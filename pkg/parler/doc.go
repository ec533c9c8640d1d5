// Package parler provides a client for Parler's private REST API.
//
// A Client is bound to one session, identified by the jst (short-term) and
// mst (master) tokens a browser receives after logging in. Every request
// carries both as cookies together with a User-Agent picked once per client.
//
// Status handling is shared by all endpoints:
//   - 200 returns the decoded JSON object unchanged
//   - 400 through 428 fail with an unauthorized error
//   - 429 and 502 sleep and retry, counting against the reconnect budget
//   - once the budget is spent the call aborts without another request
//
// Example usage:
//
//	client, err := parler.NewClient(jst, mst, false)
//	if err != nil {
//	    return err
//	}
//
//	page := parler.Page{Limit: 20}
//	for {
//	    feed, err := client.Feed(ctx, page)
//	    if errors.IsUnauthorized(err) {
//	        // refresh the tokens
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    cursor, more := parler.NextCursor(feed)
//	    if !more {
//	        break
//	    }
//	    page.Cursor = cursor
//	}
//
// The parlertest subpackage serves a scripted fake of the API for tests.
package parler
