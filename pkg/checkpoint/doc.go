// Package checkpoint remembers pagination cursors between runs.
//
// Each listing is identified by an endpoint name and a key (a username,
// hashtag or creator id; empty for the session's own feeds). After every
// page the CLI saves the cursor returned by the API, and --resume starts
// from it on the next run.
//
// Entries live in a single bbolt database, by default under
// $XDG_DATA_HOME/parler/cursors.db.
//
// Usage:
//
//	store, err := checkpoint.Open(cfg.Checkpoint.Path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	entry, ok, err := store.Load("feed", "")
//	if ok {
//	    page.Cursor = entry.Cursor
//	}
//	...
//	err = store.Save("feed", "", nextCursor)
package checkpoint
