package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"parler/pkg/logger"
)

const cursorBucket = "cursors"

// keySep separates endpoint and key inside a bolt key.
const keySep = "\x00"

// Entry is the pagination state saved for one listing
type Entry struct {
	Endpoint  string    `json:"endpoint"`
	Key       string    `json:"key"`
	Cursor    string    `json:"cursor"`
	Pages     int       `json:"pages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists cursors in a bbolt database
type Store struct {
	db     *bolt.DB
	path   string
	logger logger.Logger
}

// Open opens or creates the cursor database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("checkpoint path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create checkpoint directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cursorBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &Store{
		db:     db,
		path:   path,
		logger: logger.GetLogger(),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Save records cursor as the next page of endpoint/key and counts the page.
func (s *Store) Save(endpoint, key, cursor string) error {
	now := time.Now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(cursorBucket))
		if bucket == nil {
			return fmt.Errorf("cursor bucket missing")
		}

		id := boltKey(endpoint, key)
		entry := Entry{Endpoint: endpoint, Key: key, CreatedAt: now}
		if raw := bucket.Get(id); raw != nil {
			if err := json.Unmarshal(raw, &entry); err != nil {
				return fmt.Errorf("decode entry: %w", err)
			}
		}

		entry.Cursor = cursor
		entry.Pages++
		entry.UpdatedAt = now

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
		return bucket.Put(id, data)
	})
	if err != nil {
		return err
	}

	s.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"endpoint": endpoint,
		"key":      key,
		"cursor":   cursor,
	})
	return nil
}

// Load returns the entry for endpoint/key and whether one exists.
func (s *Store) Load(endpoint, key string) (Entry, bool, error) {
	var entry Entry
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(cursorBucket))
		if bucket == nil {
			return fmt.Errorf("cursor bucket missing")
		}
		raw := bucket.Get(boltKey(endpoint, key))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &entry)
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("load checkpoint: %w", err)
	}
	return entry, found, nil
}

// Delete forgets endpoint/key. Deleting a missing entry is not an error.
func (s *Store) Delete(endpoint, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(cursorBucket))
		if bucket == nil {
			return fmt.Errorf("cursor bucket missing")
		}
		return bucket.Delete(boltKey(endpoint, key))
	})
	if err != nil {
		return err
	}

	s.logger.DebugWithFields("Checkpoint deleted", map[string]interface{}{
		"endpoint": endpoint,
		"key":      key,
	})
	return nil
}

// List returns every entry, most recently updated first.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(cursorBucket))
		if bucket == nil {
			return fmt.Errorf("cursor bucket missing")
		}
		return bucket.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("decode entry %q: %w", strings.ReplaceAll(string(k), keySep, "/"), err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries, nil
}

func boltKey(endpoint, key string) []byte {
	return []byte(endpoint + keySep + key)
}
