// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

// Package catalog keeps a small database of the save files a user has
// registered, so tools can list characters without decoding every save.
package catalog

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/hengband/savekeep/pkg/savefile"
	"github.com/hengband/savekeep/pkg/utils"
)

const (
	databaseFileName = "catalog.db"
)

// Bucket names
var (
	savesBucketName = []byte("saves") // Contains save info <absolute path>=<entry>
)

var (
	// ErrNotFound errors when the querying entry not exists
	ErrNotFound = errors.New("entry not found")
)

// Entry describes one registered save file.
type Entry struct {
	ID      string    `msgpack:"id" json:"id"`
	Path    string    `msgpack:"path" json:"path"`
	Digest  string    `msgpack:"digest" json:"digest"`
	Name    string    `msgpack:"name" json:"name"`
	Level   int16     `msgpack:"level" json:"level"`
	Depth   int16     `msgpack:"depth" json:"depth"`
	Dead    bool      `msgpack:"dead" json:"dead"`
	Saves   uint16    `msgpack:"saves" json:"saves"`
	Floors  int       `msgpack:"floors" json:"floors"`
	Version string    `msgpack:"version" json:"version"`
	AddedAt time.Time `msgpack:"added_at" json:"added_at"`
}

// Describe builds the entry of a loaded save.
func Describe(path string, g *savefile.Game) (*Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	digest, err := utils.HashFile(abs)
	if err != nil {
		return nil, err
	}
	st := &g.State
	entry := &Entry{
		Path:    abs,
		Digest:  hex.EncodeToString(digest),
		Name:    st.Player.Name,
		Level:   st.Player.Lev,
		Depth:   st.Player.Depth,
		Dead:    st.Player.IsDead,
		Saves:   st.Header.Saves,
		Version: st.Header.Version.String(),
	}
	if g.Dungeon.Pager != nil {
		entry.Floors = len(g.Dungeon.Pager.Records())
	}
	return entry, nil
}

// Catalog keeps entries that need to survive among tool runs.
type Catalog struct {
	db *bolt.DB
}

// New creates a new or opens an existing catalog under rootDir.
func New(rootDir string) (*Catalog, error) {
	if err := os.MkdirAll(rootDir, 0700); err != nil {
		return nil, errors.Wrapf(err, "create catalog directory %s", rootDir)
	}
	db, err := bolt.Open(filepath.Join(rootDir, databaseFileName), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open catalog database")
	}
	c := &Catalog{db: db}
	if err := c.init(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize catalog")
	}
	return c, nil
}

func (c *Catalog) init() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(savesBucketName)
		return err
	})
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add records entry. Registering a path again refreshes its entry but
// keeps the id and the time it was first added.
func (c *Catalog) Add(ctx context.Context, entry *Entry) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(savesBucketName)

		var existing Entry
		err := getObject(bucket, entry.Path, &existing)
		switch {
		case err == nil:
			entry.ID = existing.ID
			entry.AddedAt = existing.AddedAt
		case errors.Is(err, ErrNotFound):
			entry.ID = uuid.NewString()
			entry.AddedAt = time.Now().UTC().Truncate(time.Second)
		default:
			return err
		}
		return putObject(bucket, entry.Path, entry)
	})
}

// Get returns the entry registered for path.
func (c *Catalog) Get(ctx context.Context, path string) (*Entry, error) {
	var entry Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		return getObject(tx.Bucket(savesBucketName), path, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete removes the entry of path.
func (c *Catalog) Delete(ctx context.Context, path string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(savesBucketName)
		if bucket.Get([]byte(path)) == nil {
			return ErrNotFound
		}
		if err := bucket.Delete([]byte(path)); err != nil {
			return errors.Wrapf(err, "failed to delete entry for %q", path)
		}
		return nil
	})
}

// Walk invokes cb on every entry in path order.
func (c *Catalog) Walk(ctx context.Context, cb func(entry *Entry) error) error {
	return c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(savesBucketName)
		return bucket.ForEach(func(key, value []byte) error {
			entry := &Entry{}
			if err := msgpack.Unmarshal(value, entry); err != nil {
				return errors.Wrapf(err, "failed to unmarshal %s", key)
			}
			return cb(entry)
		})
	})
}

// List returns every entry in path order.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := c.Walk(ctx, func(entry *Entry) error {
		entries = append(entries, *entry)
		return nil
	})
	return entries, err
}

func putObject(bucket *bolt.Bucket, key string, obj interface{}) error {
	value, err := msgpack.Marshal(obj)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal object with key %q", key)
	}
	if err := bucket.Put([]byte(key), value); err != nil {
		return errors.Wrapf(err, "failed to insert object with key %q", key)
	}
	return nil
}

func getObject(bucket *bolt.Bucket, key string, obj interface{}) error {
	value := bucket.Get([]byte(key))
	if value == nil {
		return ErrNotFound
	}
	if err := msgpack.Unmarshal(value, obj); err != nil {
		return errors.Wrapf(err, "failed to unmarshal object with key %q", key)
	}
	return nil
}
