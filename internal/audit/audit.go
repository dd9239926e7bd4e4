// Package audit keeps a persistent log of access decisions.
package audit

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var decisionsBucketName = []byte("decisions") // <sequence:uint64 BE>=<entry JSON>

// Entry is one logged access decision.
type Entry struct {
	Time       time.Time `json:"time"`
	Door       uint16    `json:"door"`
	Credential string    `json:"credential"`
	Verdict    string    `json:"verdict"`
}

// Log is an append-only decision log in a bbolt database.
type Log struct {
	db *bolt.DB
}

// Open creates or opens the log at path.
func Open(path string) (*Log, error) {
	if err := ensureDirectory(filepath.Dir(path)); err != nil {
		return nil, errors.Wrapf(err, "create directory for %s", path)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open audit log %s", path)
	}

	l := &Log{db: db}
	if err := l.init(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize audit log")
	}

	return l, nil
}

func ensureDirectory(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0700)
	}
	return nil
}

func (l *Log) init() error {
	return l.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(decisionsBucketName)
		return err
	})
}

// Append stores e after every entry already in the log.
func (l *Log) Append(e Entry) error {
	value, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "failed to marshal entry")
	}

	return l.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(decisionsBucketName)

		seq, err := bucket.NextSequence()
		if err != nil {
			return errors.Wrap(err, "failed to allocate sequence")
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		return bucket.Put(key, value)
	})
}

// Walk calls fn for every entry in the order they were appended. A non-nil
// error from fn stops the walk and is returned.
func (l *Log) Walk(fn func(seq uint64, e Entry) error) error {
	return l.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(decisionsBucketName)

		return bucket.ForEach(func(key, value []byte) error {
			var e Entry
			if err := json.Unmarshal(value, &e); err != nil {
				return errors.Wrapf(err, "failed to unmarshal entry %x", key)
			}
			return fn(binary.BigEndian.Uint64(key), e)
		})
	})
}

func (l *Log) Close() error {
	return l.db.Close()
}
